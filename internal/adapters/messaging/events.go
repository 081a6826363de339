package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType = string

// События витрины (тема storefront-events)
const (
	CartItemAddedEvent       EventType = "cart_item_added"
	CartItemRemovedEvent     EventType = "cart_item_removed"
	WishlistItemAddedEvent   EventType = "wishlist_item_added"
	WishlistItemRemovedEvent EventType = "wishlist_item_removed"
	BulkInquiryCreatedEvent  EventType = "bulk_inquiry_created"
)

// События каталога (тема catalog-events)
const (
	ProductUpdatedEvent   EventType = "product_updated"
	ProductDeletedEvent   EventType = "product_deleted"
	InventoryUpdatedEvent EventType = "inventory_updated"
	PriceUpdatedEvent     EventType = "price_updated"
)

// Event конверт события
type Event struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	SessionID  string          `json:"session_id,omitempty"`
	UserID     string          `json:"user_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// ItemPayload данные событий корзины и избранного
type ItemPayload struct {
	ProductID  string `json:"product_id"`
	SKU        string `json:"sku_variant,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
	TotalCount int    `json:"total_count"`
	Remote     bool   `json:"remote"`
}

// CatalogPayload данные событий каталога
type CatalogPayload struct {
	ProductID string `json:"product_id,omitempty"`
	Slug      string `json:"slug,omitempty"`
}

// NewEvent собирает событие с сериализованными данными
func NewEvent(eventType EventType, sessionID, userID string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		SessionID:  sessionID,
		UserID:     userID,
		Payload:    raw,
	}, nil
}

// Encode сериализует событие для публикации
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent разбирает событие из сообщения
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("event type is empty")
	}
	return e, nil
}

// DecodePayload разбирает данные события в out
func (e Event) DecodePayload(out any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}

// IsCatalogEvent сообщает, сбрасывает ли событие кэш каталога
func IsCatalogEvent(t EventType) bool {
	switch t {
	case ProductUpdatedEvent, ProductDeletedEvent, InventoryUpdatedEvent, PriceUpdatedEvent:
		return true
	}
	return false
}
