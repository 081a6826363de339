package filter

import "sort"

// OptionSet множество выбранных значений группы
type OptionSet map[string]struct{}

// NewOptionSet создает множество из идентификаторов
func NewOptionSet(ids ...string) OptionSet {
	s := make(OptionSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has проверяет наличие значения
func (s OptionSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted возвращает значения в лексическом порядке
func (s OptionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s OptionSet) clone() OptionSet {
	c := make(OptionSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// PriceRange диапазон цены
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Selection структурированное состояние фильтров, восстановленное из строки запроса
type Selection struct {
	Groups map[string]OptionSet `json:"groups"`
	Price  PriceRange           `json:"price"`
	Page   int                  `json:"page"`
	Search string               `json:"search,omitempty"`
	Sort   string               `json:"sort,omitempty"`
}

// NewSelection возвращает пустой выбор с границами цены справочника
func NewSelection(c *Catalog) Selection {
	return Selection{
		Groups: make(map[string]OptionSet),
		Price:  PriceRange{Min: c.PriceFloor, Max: c.PriceCeiling},
		Page:   1,
	}
}

// Clone возвращает глубокую копию
func (s Selection) Clone() Selection {
	out := s
	out.Groups = make(map[string]OptionSet, len(s.Groups))
	for g, set := range s.Groups {
		out.Groups[g] = set.clone()
	}
	return out
}

// WithOption возвращает копию с включенным или выключенным значением группы.
// Страница всегда сбрасывается на первую.
func (s Selection) WithOption(groupID, optionID string, checked bool) Selection {
	out := s.Clone()
	set := out.Groups[groupID]
	if set == nil {
		set = make(OptionSet)
	}
	if checked {
		set[optionID] = struct{}{}
	} else {
		delete(set, optionID)
	}
	if len(set) == 0 {
		delete(out.Groups, groupID)
	} else {
		out.Groups[groupID] = set
	}
	out.Page = 1
	return out
}

// WithPrice возвращает копию с новым диапазоном цены и первой страницей
func (s Selection) WithPrice(min, max int) Selection {
	out := s.Clone()
	out.Price = PriceRange{Min: min, Max: max}
	out.Page = 1
	return out
}

// WithSearch возвращает копию с новым поисковым запросом и первой страницей
func (s Selection) WithSearch(term string) Selection {
	out := s.Clone()
	out.Search = term
	out.Page = 1
	return out
}

// WithPage возвращает копию с другой страницей, остальные поля не меняются
func (s Selection) WithPage(page int) Selection {
	out := s.Clone()
	if page < 1 {
		page = 1
	}
	out.Page = page
	return out
}

// Equal сравнивает выборы; множества сравниваются как множества, пустые группы не учитываются
func (s Selection) Equal(o Selection) bool {
	if s.Price != o.Price || s.Page != o.Page || s.Search != o.Search || s.Sort != o.Sort {
		return false
	}
	return groupsEqual(s.Groups, o.Groups) && groupsEqual(o.Groups, s.Groups)
}

func groupsEqual(a, b map[string]OptionSet) bool {
	for g, set := range a {
		other := b[g]
		if len(set) != len(other) {
			return false
		}
		for id := range set {
			if !other.Has(id) {
				return false
			}
		}
	}
	return true
}
