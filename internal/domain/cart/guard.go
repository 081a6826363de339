package cart

import (
	"errors"
	"fmt"
)

// BulkOrderThreshold минимальное количество, выше которого товар продается только по оптовой заявке
const BulkOrderThreshold = 5

var (
	ErrBelowMinimum      = errors.New("quantity below minimum order")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSelectionRequired = errors.New("color and size must be selected")
)

// ValidationError ошибка проверки, которая блокирует изменение до обращения к каталогу
type ValidationError struct {
	Err       error
	Requested int
	Limit     int
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrBelowMinimum):
		return fmt.Sprintf("%v: requested %d, minimum %d", e.Err, e.Requested, e.Limit)
	case errors.Is(e.Err, ErrInsufficientStock):
		return fmt.Sprintf("%v: requested %d, available %d", e.Err, e.Requested, e.Limit)
	default:
		return e.Err.Error()
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UserMessage текст уведомления для покупателя
func (e *ValidationError) UserMessage() string {
	switch {
	case errors.Is(e.Err, ErrBelowMinimum):
		return fmt.Sprintf("Minimum order quantity is %d.", e.Limit)
	case errors.Is(e.Err, ErrInsufficientStock):
		if e.Limit <= 0 {
			return "This item is out of stock."
		}
		return fmt.Sprintf("Only %d left in stock.", e.Limit)
	case errors.Is(e.Err, ErrSelectionRequired):
		return "Please select a color and size."
	default:
		return e.Err.Error()
	}
}

// ClampIncrement увеличивает количество, не превышая остаток
func ClampIncrement(current, maxStock int) int {
	return min(current+1, maxStock)
}

// ClampDecrement уменьшает количество, не опускаясь ниже минимума
func ClampDecrement(current, minQuantity int) int {
	return max(current-1, minQuantity)
}

// ValidateAddToCart проверяет количество перед добавлением в корзину.
// availableStock - остаток выбранного варианта, либо самого товара, если вариантов нет.
func ValidateAddToCart(requested, minQuantity, availableStock int) error {
	if requested < minQuantity {
		return &ValidationError{Err: ErrBelowMinimum, Requested: requested, Limit: minQuantity}
	}
	if requested > availableStock {
		return &ValidationError{Err: ErrInsufficientStock, Requested: requested, Limit: availableStock}
	}
	return nil
}

// IsBulkOrderOnly сообщает, что добавление в корзину заменяется оптовой заявкой
func IsBulkOrderOnly(minQuantity int) bool {
	return minQuantity > BulkOrderThreshold
}
