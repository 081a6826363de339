package filter

import (
	"sort"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
)

// Идентификаторы групп фильтров и служебные ключи строки запроса
const (
	GroupCategory    = "category"
	GroupSubCategory = "sub_category"
	GroupTags        = "tags"

	KeyMinPrice = "minPrice"
	KeyMaxPrice = "maxPrice"
	KeyPage     = "page"
	KeySearch   = "search"
	KeySort     = "sort"
	KeyOnSale   = "onSale"
)

// DefaultPriceFloor нижняя граница цены каталога
const DefaultPriceFloor = 0

// Option значение фильтра
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Group именованная группа фильтров с фиксированным набором значений
type Group struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

// Catalog справочник известных групп фильтров и границ цены
type Catalog struct {
	Groups       []Group `json:"groups"`
	PriceFloor   int     `json:"price_floor"`
	PriceCeiling int     `json:"price_ceiling"`
}

// DefaultGroups возвращает группы витрины без значений
func DefaultGroups() []Group {
	return []Group{
		{ID: GroupCategory, Label: "Category"},
		{ID: GroupSubCategory, Label: "Sub category"},
		{ID: GroupTags, Label: "Tags"},
	}
}

// NewCatalog создает справочник с заданным потолком цены
func NewCatalog(priceCeiling int, groups ...Group) *Catalog {
	if len(groups) == 0 {
		groups = DefaultGroups()
	}
	return &Catalog{
		Groups:       groups,
		PriceFloor:   DefaultPriceFloor,
		PriceCeiling: priceCeiling,
	}
}

// CatalogFromRecords собирает справочник из строк хранилища.
// Группы витрины идут первыми в фиксированном порядке, остальные - в порядке появления.
func CatalogFromRecords(records []models.FilterOptionRecord, priceCeiling int) *Catalog {
	groups := DefaultGroups()
	index := make(map[string]int, len(groups))
	for i, g := range groups {
		index[g.ID] = i
	}

	sorted := make([]models.FilterOptionRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	for _, rec := range sorted {
		i, ok := index[rec.GroupID]
		if !ok {
			groups = append(groups, Group{ID: rec.GroupID, Label: rec.GroupLabel})
			i = len(groups) - 1
			index[rec.GroupID] = i
		}
		if rec.GroupLabel != "" {
			groups[i].Label = rec.GroupLabel
		}
		groups[i].Options = append(groups[i].Options, Option{ID: rec.OptionID, Label: rec.Label})
	}

	return NewCatalog(priceCeiling, groups...)
}

// Group возвращает группу по идентификатору
func (c *Catalog) Group(id string) (Group, bool) {
	for _, g := range c.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// IsGroup сообщает, является ли ключ известной группой
func (c *Catalog) IsGroup(id string) bool {
	_, ok := c.Group(id)
	return ok
}

// OptionLabel возвращает подпись значения, если оно известно
func (c *Catalog) OptionLabel(groupID, optionID string) (string, bool) {
	g, ok := c.Group(groupID)
	if !ok {
		return "", false
	}
	for _, o := range g.Options {
		if o.ID == optionID {
			return o.Label, true
		}
	}
	return "", false
}
