package shop

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/domain/filter"
	"github.com/athebyme/gomarket-storefront/pkg/debounce"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// DefaultPriceDebounce задержка перед применением изменения диапазона цены
const DefaultPriceDebounce = 300 * time.Millisecond

// Chip примененный фильтр с подписью
type Chip struct {
	GroupID    string `json:"group_id"`
	GroupLabel string `json:"group_label"`
	OptionID   string `json:"option_id"`
	Label      string `json:"label"`
}

// Controller переводит намерения пользователя в переходы по новым адресам.
// Собственного состояния фильтров у контроллера нет: все читается из Location.
type Controller struct {
	catalog   *filter.Catalog
	location  Location
	navigator Navigator
	logger    interfaces.LoggerPort
	price     *debounce.Debouncer
}

// NewController создает контроллер списка
func NewController(catalog *filter.Catalog, location Location, navigator Navigator, logger interfaces.LoggerPort, priceDebounce time.Duration) *Controller {
	if priceDebounce <= 0 {
		priceDebounce = DefaultPriceDebounce
	}
	return &Controller{
		catalog:   catalog,
		location:  location,
		navigator: navigator,
		logger:    logger,
		price:     debounce.New(priceDebounce),
	}
}

// Selection восстанавливает выбор из текущего адреса
func (c *Controller) Selection() filter.Selection {
	return filter.Decode(c.location.RawQuery(), c.catalog)
}

// Query возвращает запрос к каталогу для текущего адреса
func (c *Controller) Query() filter.ListQuery {
	return filter.Encode(c.Selection(), c.catalog)
}

// ToggleFilterOption включает или выключает значение группы; страница сбрасывается на первую
func (c *Controller) ToggleFilterOption(groupID, optionID string, checked bool) (string, error) {
	if !c.catalog.IsGroup(groupID) {
		return "", fmt.Errorf("%w: %s", ErrUnknownGroup, groupID)
	}
	return c.navigate(c.Selection().WithOption(groupID, optionID, checked))
}

// SetPriceRange откладывает применение диапазона цены; при серии вызовов применяется последний
func (c *Controller) SetPriceRange(min, max int) {
	c.price.Trigger(func() {
		if _, err := c.ApplyPriceRange(min, max); err != nil {
			c.logger.Warn("Не удалось применить диапазон цены",
				interfaces.LogField{Key: "min", Value: min},
				interfaces.LogField{Key: "max", Value: max},
				interfaces.LogField{Key: "error", Value: err.Error()},
			)
		}
	})
}

// FlushPriceRange немедленно применяет отложенный диапазон цены
func (c *Controller) FlushPriceRange() bool {
	return c.price.Flush()
}

// ApplyPriceRange сразу применяет диапазон цены; страница сбрасывается на первую
func (c *Controller) ApplyPriceRange(min, max int) (string, error) {
	if min < c.catalog.PriceFloor {
		min = c.catalog.PriceFloor
	}
	if max > c.catalog.PriceCeiling {
		max = c.catalog.PriceCeiling
	}
	if min > max {
		return "", fmt.Errorf("%w: %d > %d", ErrInvalidPriceRange, min, max)
	}
	return c.navigate(c.Selection().WithPrice(min, max))
}

// SetSearch меняет поисковый запрос; страница сбрасывается на первую
func (c *Controller) SetSearch(term string) (string, error) {
	return c.navigate(c.Selection().WithSearch(strings.TrimSpace(term)))
}

// ChangePage меняет только параметр page, остальная строка запроса сохраняется как есть
func (c *Controller) ChangePage(page int) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}
	query := replaceParam(c.location.RawQuery(), filter.KeyPage, strconv.Itoa(page))
	return c.goTo(c.location.Path() + "?" + query)
}

// ClearAll переходит на путь списка без строки запроса
func (c *Controller) ClearAll() (string, error) {
	return c.goTo(c.location.Path())
}

// AppliedFilters возвращает плашки примененных фильтров в порядке справочника.
// Неизвестные значения плашек не получают.
func (c *Controller) AppliedFilters() []Chip {
	return AppliedFilters(c.Selection(), c.catalog)
}

// RemoveChip эквивалентно выключению значения плашки
func (c *Controller) RemoveChip(chip Chip) (string, error) {
	return c.ToggleFilterOption(chip.GroupID, chip.OptionID, false)
}

// Close отменяет отложенные действия
func (c *Controller) Close() {
	c.price.Stop()
}

// AppliedFilters строит плашки для выбора
func AppliedFilters(sel filter.Selection, catalog *filter.Catalog) []Chip {
	var chips []Chip
	for _, g := range catalog.Groups {
		set := sel.Groups[g.ID]
		if len(set) == 0 {
			continue
		}
		for _, o := range g.Options {
			if set.Has(o.ID) {
				chips = append(chips, Chip{GroupID: g.ID, GroupLabel: g.Label, OptionID: o.ID, Label: o.Label})
			}
		}
	}
	return chips
}

func (c *Controller) navigate(sel filter.Selection) (string, error) {
	return c.goTo(c.location.Path() + "?" + filter.Encode(sel, c.catalog).Encode())
}

func (c *Controller) goTo(target string) (string, error) {
	if err := c.navigator.Navigate(target); err != nil {
		return "", fmt.Errorf("navigate to %s: %w", target, err)
	}
	c.logger.Debug("Переход списка", interfaces.LogField{Key: "target", Value: target})
	return target, nil
}

// replaceParam заменяет значение ключа в строке запроса, сохраняя порядок и
// кодирование остальных параметров; отсутствующий ключ добавляется в конец
func replaceParam(rawQuery, key, value string) string {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	pair := key + "=" + value
	if rawQuery == "" {
		return pair
	}

	parts := strings.Split(rawQuery, "&")
	out := parts[:0]
	replaced := false
	for _, p := range parts {
		k, _, _ := strings.Cut(p, "=")
		if k == key {
			if !replaced {
				out = append(out, pair)
				replaced = true
			}
			continue
		}
		out = append(out, p)
	}
	if !replaced {
		out = append(out, pair)
	}
	return strings.Join(out, "&")
}
