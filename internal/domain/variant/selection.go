package variant

import (
	"errors"
	"fmt"
	"sync"

	"github.com/athebyme/gomarket-storefront/internal/domain/cart"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

var (
	ErrNoProduct    = errors.New("no product loaded")
	ErrUnknownColor = errors.New("unknown color")
	ErrUnknownSize  = errors.New("size not offered for color")
)

// View снимок выбора на странице товара
type View struct {
	Slug          string       `json:"slug"`
	Colors        []string     `json:"colors"`
	Sizes         []SizeOption `json:"sizes"`
	Color         string       `json:"color,omitempty"`
	Size          string       `json:"size,omitempty"`
	Quantity      int          `json:"quantity"`
	MinQuantity   int          `json:"min_quantity"`
	Stock         int          `json:"stock"`
	SKU           string       `json:"sku,omitempty"`
	Resolved      bool         `json:"resolved"`
	BulkOrderOnly bool         `json:"bulk_order_only"`
	Duplicates    []Pair       `json:"duplicates,omitempty"`
}

// Selection выбор цвета, размера и количества для загруженного товара
type Selection struct {
	logger interfaces.LoggerPort

	mu       sync.Mutex
	product  *models.Product
	color    string
	size     string
	quantity int
}

// NewSelection создает пустой выбор
func NewSelection(logger interfaces.LoggerPort) *Selection {
	return &Selection{logger: logger}
}

// Load загружает товар. Выбор сбрасывается только при смене slug; возвращает true при сбросе.
func (s *Selection) Load(p *models.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.product != nil && p != nil && s.product.Slug == p.Slug {
		s.product = p
		s.quantity = s.clamp(s.quantity)
		return false
	}

	s.product = p
	s.color, s.size = "", ""
	if p == nil {
		s.quantity = 0
		return true
	}

	if dups := DuplicatePairs(p.Variants); len(dups) > 0 {
		s.logger.Warn("Повторяющиеся варианты товара",
			interfaces.LogField{Key: "slug", Value: p.Slug},
			interfaces.LogField{Key: "pairs", Value: dups},
		)
	}

	if p.HasVariants() {
		s.color = p.Variants[0].Color
		s.size, _ = FirstSize(p.Variants, s.color)
	}
	s.quantity = s.clamp(p.MinQuantity())
	return true
}

// SelectColor выбирает цвет; размер сбрасывается на первый доступный для этого цвета
func (s *Selection) SelectColor(color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.product == nil {
		return ErrNoProduct
	}
	size, ok := FirstSize(s.product.Variants, color)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColor, color)
	}
	s.color = color
	s.size = size
	s.quantity = s.clamp(s.quantity)
	return nil
}

// SelectSize выбирает размер текущего цвета
func (s *Selection) SelectSize(size string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.product == nil {
		return ErrNoProduct
	}
	if Resolve(s.product.Variants, s.color, size) == nil {
		return fmt.Errorf("%w: %s/%s", ErrUnknownSize, s.color, size)
	}
	s.size = size
	s.quantity = s.clamp(s.quantity)
	return nil
}

// SetQuantity устанавливает количество с ограничением [минимум, остаток]
func (s *Selection) SetQuantity(q int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quantity = s.clamp(q)
}

// Increment увеличивает количество на единицу, не превышая остаток
func (s *Selection) Increment() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quantity = s.clamp(cart.ClampIncrement(s.quantity, s.stock()))
	return s.quantity
}

// Decrement уменьшает количество на единицу, не опускаясь ниже минимума
func (s *Selection) Decrement() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quantity = s.clamp(cart.ClampDecrement(s.quantity, s.product.MinQuantity()))
	return s.quantity
}

// Validate проверяет выбор перед добавлением в корзину
func (s *Selection) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.product == nil {
		return ErrNoProduct
	}
	if s.product.HasVariants() && Resolve(s.product.Variants, s.color, s.size) == nil {
		return &cart.ValidationError{Err: cart.ErrSelectionRequired}
	}
	return cart.ValidateAddToCart(s.quantity, s.product.MinQuantity(), s.stock())
}

// Line возвращает строку корзины для текущего выбора
func (s *Selection) Line() models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := models.CartLine{Quantity: s.quantity}
	if s.product != nil {
		line.ProductID = s.product.ID
		if v := Resolve(s.product.Variants, s.color, s.size); v != nil {
			line.SKU = v.SKU
		}
	}
	return line
}

// Product возвращает загруженный товар
func (s *Selection) Product() *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.product
}

// View возвращает снимок выбора
func (s *Selection) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.product == nil {
		return View{}
	}
	v := View{
		Slug:          s.product.Slug,
		Colors:        AvailableColors(s.product.Variants),
		Sizes:         AvailableSizes(s.product.Variants, s.color),
		Color:         s.color,
		Size:          s.size,
		Quantity:      s.quantity,
		MinQuantity:   s.product.MinQuantity(),
		Stock:         s.stock(),
		BulkOrderOnly: cart.IsBulkOrderOnly(s.product.MinQuantity()),
		Duplicates:    DuplicatePairs(s.product.Variants),
	}
	if r := Resolve(s.product.Variants, s.color, s.size); r != nil {
		v.SKU = r.SKU
		v.Resolved = true
	} else if !s.product.HasVariants() {
		v.Resolved = true
	}
	return v
}

// ResolvedStock возвращает остаток выбранного варианта или самого товара
func (s *Selection) ResolvedStock() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock()
}

// stock вызывается под мьютексом
func (s *Selection) stock() int {
	return ResolvedStock(s.product, s.color, s.size)
}

// clamp вызывается под мьютексом. При остатке меньше минимума количество равно минимуму,
// чтобы проверка перед добавлением сообщила о нехватке.
func (s *Selection) clamp(q int) int {
	if s.product == nil {
		return 0
	}
	return max(s.product.MinQuantity(), min(q, s.stock()))
}

// ResolvedStock остаток для выбора: вариант, если у товара есть варианты, иначе сам товар.
// Невыбранный вариант дает нулевой остаток.
func ResolvedStock(p *models.Product, color, size string) int {
	if p == nil {
		return 0
	}
	if !p.HasVariants() {
		return p.StockQuantity
	}
	if v := Resolve(p.Variants, color, size); v != nil {
		return v.Stock
	}
	return 0
}
