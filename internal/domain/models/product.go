package models

import (
	"time"
)

// DefaultMinOrderQuantity минимальное количество для заказа, если у товара оно не задано
const DefaultMinOrderQuantity = 1

// Product представляет товар витрины в том виде, в котором его отдает каталог
type Product struct {
	ID               string    `json:"id"`
	Slug             string    `json:"slug"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Category         string    `json:"category,omitempty"`
	SubCategory      string    `json:"sub_category,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	Price            float64   `json:"price"`
	SalePrice        float64   `json:"sale_price,omitempty"`
	OnSale           bool      `json:"on_sale,omitempty"`
	StockQuantity    int       `json:"stock_quantity"`
	MinOrderQuantity int       `json:"min_order_quantity,omitempty"`
	Images           []string  `json:"images,omitempty"`
	Variants         []Variant `json:"variants,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// Variant конкретная комбинация цвета и размера со своим остатком и артикулом
type Variant struct {
	Color string `json:"color"`
	Size  string `json:"size"`
	Stock int    `json:"stock"`
	SKU   string `json:"sku"`
}

// MinQuantity возвращает минимальное количество для заказа с учетом значения по умолчанию
func (p *Product) MinQuantity() int {
	if p == nil || p.MinOrderQuantity < 1 {
		return DefaultMinOrderQuantity
	}
	return p.MinOrderQuantity
}

// HasVariants сообщает, управляется ли наличие товара вариантами
func (p *Product) HasVariants() bool {
	return p != nil && len(p.Variants) > 0
}
