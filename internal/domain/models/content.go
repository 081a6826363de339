package models

import "time"

// BlogPost запись блога
type BlogPost struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Testimonial отзыв покупателя
type Testimonial struct {
	ID       string `json:"id"`
	Author   string `json:"author"`
	Content  string `json:"content"`
	Rating   int    `json:"rating,omitempty"`
	Location string `json:"location,omitempty"`
}

// SearchSuggestion подсказка поиска
type SearchSuggestion struct {
	Slug  string  `json:"slug"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}
