package filter

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Param параметр запроса к списку; значения групп склеиваются через запятую
type Param struct {
	Key    string
	Values []string
}

// ListQuery плоское представление выбора для запроса к каталогу.
// Порядок параметров детерминирован.
type ListQuery []Param

// Get возвращает значение параметра, склеенное через запятую
func (q ListQuery) Get(key string) (string, bool) {
	for _, p := range q {
		if p.Key == key {
			return strings.Join(p.Values, ","), true
		}
	}
	return "", false
}

// Has проверяет наличие параметра
func (q ListQuery) Has(key string) bool {
	_, ok := q.Get(key)
	return ok
}

// Merge добавляет параметры, которых еще нет в запросе. Параметр page остается последним.
func (q ListQuery) Merge(extra ...Param) ListQuery {
	out := make(ListQuery, 0, len(q)+len(extra))
	var page *Param
	for i := range q {
		if q[i].Key == KeyPage {
			page = &q[i]
			continue
		}
		out = append(out, q[i])
	}
	for _, p := range extra {
		if !q.Has(p.Key) {
			out = append(out, p)
		}
	}
	if page != nil {
		out = append(out, *page)
	}
	return out
}

// Encode формирует строку запроса без ведущего "?". Запятые между значениями не экранируются.
func (q ListQuery) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		for j, v := range p.Values {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// String реализует fmt.Stringer
func (q ListQuery) String() string {
	return q.Encode()
}

// Decode восстанавливает выбор из строки запроса. Неизвестные ключи игнорируются,
// нечисловые границы цены и страница заменяются значениями по умолчанию.
func Decode(rawQuery string, c *Catalog) Selection {
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	return DecodeValues(values, c)
}

// DecodeValues то же, что Decode, для уже разобранных параметров
func DecodeValues(values url.Values, c *Catalog) Selection {
	sel := NewSelection(c)

	for _, g := range c.Groups {
		raw, ok := values[g.ID]
		if !ok {
			continue
		}
		set := make(OptionSet)
		for _, v := range raw {
			for _, id := range strings.Split(v, ",") {
				id = strings.TrimSpace(id)
				if id == "" {
					continue
				}
				set[id] = struct{}{}
			}
		}
		if len(set) > 0 {
			sel.Groups[g.ID] = set
		}
	}

	sel.Price.Min = parseBound(values.Get(KeyMinPrice), c.PriceFloor)
	sel.Price.Max = parseBound(values.Get(KeyMaxPrice), c.PriceCeiling)
	sel.Page = parsePage(values.Get(KeyPage))
	sel.Search = strings.TrimSpace(values.Get(KeySearch))
	sel.Sort = strings.TrimSpace(values.Get(KeySort))

	return sel
}

// Encode превращает выбор в запрос к каталогу
func Encode(sel Selection, c *Catalog) ListQuery {
	q := make(ListQuery, 0, len(c.Groups)+5)

	for _, g := range c.Groups {
		set := sel.Groups[g.ID]
		if len(set) == 0 {
			continue
		}
		q = append(q, Param{Key: g.ID, Values: orderedOptions(g, set)})
	}

	if sel.Search != "" {
		q = append(q, Param{Key: KeySearch, Values: []string{sel.Search}})
	}
	if sel.Sort != "" {
		q = append(q, Param{Key: KeySort, Values: []string{sel.Sort}})
	}
	if sel.Price.Min != c.PriceFloor {
		q = append(q, Param{Key: KeyMinPrice, Values: []string{strconv.Itoa(sel.Price.Min)}})
	}
	if sel.Price.Max != c.PriceCeiling {
		q = append(q, Param{Key: KeyMaxPrice, Values: []string{strconv.Itoa(sel.Price.Max)}})
	}

	page := sel.Page
	if page < 1 {
		page = 1
	}
	q = append(q, Param{Key: KeyPage, Values: []string{strconv.Itoa(page)}})

	return q
}

// orderedOptions упорядочивает значения как в справочнике, неизвестные - в конце по алфавиту
func orderedOptions(g Group, set OptionSet) []string {
	out := make([]string, 0, len(set))
	known := make(map[string]struct{}, len(g.Options))
	for _, o := range g.Options {
		known[o.ID] = struct{}{}
		if set.Has(o.ID) {
			out = append(out, o.ID)
		}
	}

	var unknown []string
	for id := range set {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)

	return append(out, unknown...)
}

func parseBound(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return int(f)
}

func parsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
