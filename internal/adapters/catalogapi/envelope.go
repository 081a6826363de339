package catalogapi

import "encoding/json"

// envelope ответ каталога {data: {...}}
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// collection список каталога. Имена полей различаются по ресурсам:
// products/items/blogs/posts/testimonials и totalProducts/totalPosts/totalCount/total.
type collection struct {
	Products     json.RawMessage `json:"products"`
	Items        json.RawMessage `json:"items"`
	Lines        json.RawMessage `json:"lines"`
	Entries      json.RawMessage `json:"entries"`
	Blogs        json.RawMessage `json:"blogs"`
	Posts        json.RawMessage `json:"posts"`
	Testimonials json.RawMessage `json:"testimonials"`
	Suggestions  json.RawMessage `json:"suggestions"`

	CurrentPage   int `json:"currentPage"`
	TotalPages    int `json:"totalPages"`
	TotalCount    int `json:"totalCount"`
	TotalProducts int `json:"totalProducts"`
	TotalPosts    int `json:"totalPosts"`
	Total         int `json:"total"`
}

func (c collection) rawItems() json.RawMessage {
	for _, raw := range []json.RawMessage{c.Products, c.Items, c.Lines, c.Entries, c.Blogs, c.Posts, c.Testimonials, c.Suggestions} {
		if len(raw) > 0 && string(raw) != "null" {
			return raw
		}
	}
	return nil
}

func (c collection) decodeItems(v interface{}) error {
	raw := c.rawItems()
	if raw == nil {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (c collection) total() int {
	for _, n := range []int{c.TotalCount, c.TotalProducts, c.TotalPosts, c.Total} {
		if n > 0 {
			return n
		}
	}
	return 0
}
