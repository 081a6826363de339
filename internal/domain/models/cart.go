package models

import "time"

// CartLine строка корзины
type CartLine struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku_variant,omitempty"`
	Quantity  int    `json:"quantity"`
}

// WishlistEntry запись избранного
type WishlistEntry struct {
	ProductID string    `json:"product_id"`
	SKU       string    `json:"sku_variant,omitempty"`
	AddedAt   time.Time `json:"added_at,omitempty"`
}

// CartSnapshot состояние корзины после операции
type CartSnapshot struct {
	Lines      []CartLine `json:"lines"`
	TotalCount int        `json:"total_count"`
}

// WishlistSnapshot состояние избранного после операции
type WishlistSnapshot struct {
	Entries    []WishlistEntry `json:"entries"`
	TotalCount int             `json:"total_count"`
}

// BulkInquiry заявка на оптовый заказ для товаров с большим минимальным количеством
type BulkInquiry struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	SKU          string    `json:"sku_variant,omitempty"`
	Quantity     int       `json:"quantity"`
	ContactName  string    `json:"contact_name"`
	ContactEmail string    `json:"contact_email"`
	Message      string    `json:"message,omitempty"`
	SessionID    string    `json:"-"`
	UserID       string    `json:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// OutboxRecord событие, сохраненное в одной транзакции с изменением данных
type OutboxRecord struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Key       string    `json:"key"`
	EventType string    `json:"event_type"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}
