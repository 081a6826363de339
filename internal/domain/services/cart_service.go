package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/adapters/messaging"
	"github.com/athebyme/gomarket-storefront/internal/domain/cart"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/domain/store"
	"github.com/athebyme/gomarket-storefront/internal/domain/variant"
	"github.com/athebyme/gomarket-storefront/internal/infrastructure/postgres"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/athebyme/gomarket-storefront/pkg/tx"
	"github.com/google/uuid"
)

// publishTimeout ограничивает ожидание подтверждения публикации события
const publishTimeout = 3 * time.Second

// AddToCartRequest добавление товара в корзину. Пустые цвет, размер и количество
// берутся из выбора сессии, если он сделан для того же товара.
type AddToCartRequest struct {
	Slug     string `json:"slug"`
	Color    string `json:"color,omitempty"`
	Size     string `json:"size,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

// BulkInquiryRequest заявка на оптовый заказ
type BulkInquiryRequest struct {
	Slug         string `json:"slug"`
	SKU          string `json:"sku_variant,omitempty"`
	Quantity     int    `json:"quantity"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	Message      string `json:"message,omitempty"`
}

// CartService корзина, избранное и оптовые заявки
type CartService struct {
	sessions   *store.Registry
	products   ProductSource
	stores     *cart.Factory
	repository postgres.Repository
	txManager  tx.TxManager
	publisher  interfaces.MessagingPort
	topic      string
	logger     interfaces.LoggerPort
}

// NewCartService создает новый экземпляр CartService. repository и txManager могут быть nil:
// тогда оптовые заявки недоступны.
func NewCartService(
	sessions *store.Registry,
	products ProductSource,
	stores *cart.Factory,
	repository postgres.Repository,
	txManager tx.TxManager,
	publisher interfaces.MessagingPort,
	topic string,
	logger interfaces.LoggerPort,
) *CartService {
	return &CartService{
		sessions:   sessions,
		products:   products,
		stores:     stores,
		repository: repository,
		txManager:  txManager,
		publisher:  publisher,
		topic:      topic,
		logger:     logger,
	}
}

// Cart возвращает корзину покупателя
func (s *CartService) Cart(ctx context.Context, id cart.Identity) (store.Slice[models.CartSnapshot], error) {
	sess := s.sessions.GetOrCreate(id.SessionID)
	sess.DispatchCart(store.Requested[models.CartSnapshot]{})

	snap, err := s.stores.NewStores(id).Cart.List(ctx)
	if err != nil {
		sess.DispatchCart(store.Rejected[models.CartSnapshot]{Message: userMessage(err)})
		return sess.Cart(), fmt.Errorf("failed to list cart: %w", err)
	}
	sess.DispatchCart(store.Received[models.CartSnapshot]{Value: snap})
	return sess.Cart(), nil
}

// AddToCart проверяет количество и добавляет товар в корзину. Проверка выполняется до
// обращения к хранилищу; товары только для оптовых заявок отклоняются с ErrBulkOrderOnly.
func (s *CartService) AddToCart(ctx context.Context, id cart.Identity, req AddToCartRequest) (store.Slice[models.CartSnapshot], error) {
	sess := s.sessions.GetOrCreate(id.SessionID)

	line, err := s.prepareLine(ctx, sess, req)
	if err != nil {
		return sess.Cart(), err
	}

	sess.DispatchCart(store.Requested[models.CartSnapshot]{})
	stores := s.stores.NewStores(id)
	snap, err := stores.Cart.Add(ctx, line)
	if err != nil {
		sess.DispatchCart(store.Rejected[models.CartSnapshot]{Message: userMessage(err)})
		return sess.Cart(), fmt.Errorf("failed to add to cart: %w", err)
	}
	sess.DispatchCart(store.Received[models.CartSnapshot]{Value: snap})

	s.logger.InfoWithContext(ctx, "Товар добавлен в корзину",
		interfaces.LogField{Key: "product_id", Value: line.ProductID},
		interfaces.LogField{Key: "sku", Value: line.SKU},
		interfaces.LogField{Key: "quantity", Value: line.Quantity},
		interfaces.LogField{Key: "remote", Value: stores.Remote},
	)
	s.publish(ctx, id, messaging.CartItemAddedEvent, line.ProductID, messaging.ItemPayload{
		ProductID:  line.ProductID,
		SKU:        line.SKU,
		Quantity:   line.Quantity,
		TotalCount: snap.TotalCount,
		Remote:     stores.Remote,
	})
	return sess.Cart(), nil
}

// prepareLine собирает и проверяет строку корзины
func (s *CartService) prepareLine(ctx context.Context, sess *store.Session, req AddToCartRequest) (models.CartLine, error) {
	if req.Slug == "" {
		return models.CartLine{}, ErrNoSelection
	}

	p, err := s.products.Product(ctx, req.Slug)
	if err != nil {
		return models.CartLine{}, fmt.Errorf("failed to load product %s: %w", req.Slug, err)
	}
	if cart.IsBulkOrderOnly(p.MinQuantity()) {
		return models.CartLine{}, fmt.Errorf("%w: minimum %d", ErrBulkOrderOnly, p.MinQuantity())
	}

	color, size, quantity := req.Color, req.Size, req.Quantity
	if current := sess.Product.Product(); current != nil && current.Slug == p.Slug {
		view := sess.Product.View()
		if color == "" && size == "" {
			color, size = view.Color, view.Size
		}
		if quantity == 0 {
			quantity = view.Quantity
		}
	}
	if quantity == 0 {
		quantity = p.MinQuantity()
	}

	line := models.CartLine{ProductID: p.ID, Quantity: quantity}
	if p.HasVariants() {
		v := variant.Resolve(p.Variants, color, size)
		if v == nil {
			return models.CartLine{}, &cart.ValidationError{Err: cart.ErrSelectionRequired}
		}
		line.SKU = v.SKU
	}

	if err := cart.ValidateAddToCart(quantity, p.MinQuantity(), variant.ResolvedStock(p, color, size)); err != nil {
		return models.CartLine{}, err
	}
	return line, nil
}

// RemoveFromCart удаляет строку корзины; пустой sku удаляет все строки товара
func (s *CartService) RemoveFromCart(ctx context.Context, id cart.Identity, productID, sku string) (store.Slice[models.CartSnapshot], error) {
	sess := s.sessions.GetOrCreate(id.SessionID)
	sess.DispatchCart(store.Requested[models.CartSnapshot]{})

	stores := s.stores.NewStores(id)
	snap, err := stores.Cart.Remove(ctx, productID, sku)
	if err != nil {
		sess.DispatchCart(store.Rejected[models.CartSnapshot]{Message: userMessage(err)})
		return sess.Cart(), fmt.Errorf("failed to remove from cart: %w", err)
	}
	sess.DispatchCart(store.Received[models.CartSnapshot]{Value: snap})

	s.publish(ctx, id, messaging.CartItemRemovedEvent, productID, messaging.ItemPayload{
		ProductID:  productID,
		SKU:        sku,
		TotalCount: snap.TotalCount,
		Remote:     stores.Remote,
	})
	return sess.Cart(), nil
}

// Wishlist возвращает избранное покупателя
func (s *CartService) Wishlist(ctx context.Context, id cart.Identity) (store.Slice[models.WishlistSnapshot], error) {
	sess := s.sessions.GetOrCreate(id.SessionID)
	sess.DispatchWishlist(store.Requested[models.WishlistSnapshot]{})

	snap, err := s.stores.NewStores(id).Wishlist.List(ctx)
	if err != nil {
		sess.DispatchWishlist(store.Rejected[models.WishlistSnapshot]{Message: userMessage(err)})
		return sess.Wishlist(), fmt.Errorf("failed to list wishlist: %w", err)
	}
	sess.DispatchWishlist(store.Received[models.WishlistSnapshot]{Value: snap})
	return sess.Wishlist(), nil
}

// AddToWishlist добавляет товар в избранное. Количество и остаток не проверяются.
func (s *CartService) AddToWishlist(ctx context.Context, id cart.Identity, productID, sku string) (store.Slice[models.WishlistSnapshot], error) {
	sess := s.sessions.GetOrCreate(id.SessionID)
	if productID == "" {
		return sess.Wishlist(), ErrNoSelection
	}
	sess.DispatchWishlist(store.Requested[models.WishlistSnapshot]{})

	stores := s.stores.NewStores(id)
	snap, err := stores.Wishlist.Add(ctx, models.WishlistEntry{ProductID: productID, SKU: sku})
	if err != nil {
		sess.DispatchWishlist(store.Rejected[models.WishlistSnapshot]{Message: userMessage(err)})
		return sess.Wishlist(), fmt.Errorf("failed to add to wishlist: %w", err)
	}
	sess.DispatchWishlist(store.Received[models.WishlistSnapshot]{Value: snap})

	s.publish(ctx, id, messaging.WishlistItemAddedEvent, productID, messaging.ItemPayload{
		ProductID:  productID,
		SKU:        sku,
		TotalCount: snap.TotalCount,
		Remote:     stores.Remote,
	})
	return sess.Wishlist(), nil
}

// RemoveFromWishlist удаляет товар из избранного
func (s *CartService) RemoveFromWishlist(ctx context.Context, id cart.Identity, productID, sku string) (store.Slice[models.WishlistSnapshot], error) {
	sess := s.sessions.GetOrCreate(id.SessionID)
	sess.DispatchWishlist(store.Requested[models.WishlistSnapshot]{})

	stores := s.stores.NewStores(id)
	snap, err := stores.Wishlist.Remove(ctx, productID, sku)
	if err != nil {
		sess.DispatchWishlist(store.Rejected[models.WishlistSnapshot]{Message: userMessage(err)})
		return sess.Wishlist(), fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	sess.DispatchWishlist(store.Received[models.WishlistSnapshot]{Value: snap})

	s.publish(ctx, id, messaging.WishlistItemRemovedEvent, productID, messaging.ItemPayload{
		ProductID:  productID,
		SKU:        sku,
		TotalCount: snap.TotalCount,
		Remote:     stores.Remote,
	})
	return sess.Wishlist(), nil
}

// CreateBulkInquiry сохраняет оптовую заявку и событие о ней в одной транзакции,
// затем публикует событие. Неопубликованное событие дошлет воркер.
func (s *CartService) CreateBulkInquiry(ctx context.Context, id cart.Identity, req BulkInquiryRequest) (*models.BulkInquiry, error) {
	if s.repository == nil || s.txManager == nil {
		return nil, ErrInquiryUnavailable
	}
	if err := validateInquiry(req); err != nil {
		return nil, err
	}

	p, err := s.products.Product(ctx, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", req.Slug, err)
	}
	if req.Quantity < p.MinQuantity() {
		return nil, &cart.ValidationError{Err: cart.ErrBelowMinimum, Requested: req.Quantity, Limit: p.MinQuantity()}
	}

	inquiry := &models.BulkInquiry{
		ID:           uuid.NewString(),
		ProductID:    p.ID,
		SKU:          req.SKU,
		Quantity:     req.Quantity,
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		Message:      strings.TrimSpace(req.Message),
		SessionID:    id.SessionID,
		UserID:       id.UserID,
		CreatedAt:    time.Now().UTC(),
	}

	event, err := messaging.NewEvent(messaging.BulkInquiryCreatedEvent, id.SessionID, id.UserID, inquiry)
	if err != nil {
		return nil, err
	}
	payload, err := event.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	outbox := &models.OutboxRecord{
		ID:        event.ID,
		Topic:     s.topic,
		Key:       inquiry.ProductID,
		EventType: event.Type,
		Payload:   payload,
		CreatedAt: inquiry.CreatedAt,
	}

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.repository.SaveBulkInquiry(txCtx, inquiry); err != nil {
			return err
		}
		return s.repository.SaveOutbox(txCtx, outbox)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save bulk inquiry: %w", err)
	}

	s.logger.InfoWithContext(ctx, "Оптовая заявка создана",
		interfaces.LogField{Key: "inquiry_id", Value: inquiry.ID},
		interfaces.LogField{Key: "product_id", Value: inquiry.ProductID},
		interfaces.LogField{Key: "quantity", Value: inquiry.Quantity},
	)

	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.publisher.PublishWithKey(pubCtx, outbox.Topic, outbox.Key, outbox.Payload); err != nil {
			s.logger.WarnWithContext(ctx, "Событие заявки будет отправлено повторно",
				interfaces.LogField{Key: "inquiry_id", Value: inquiry.ID},
				interfaces.LogField{Key: "error", Value: err.Error()},
			)
		} else if err := s.repository.MarkOutboxPublished(pubCtx, outbox.ID); err != nil {
			s.logger.WarnWithContext(ctx, "Не удалось отметить событие отправленным",
				interfaces.LogField{Key: "outbox_id", Value: outbox.ID},
				interfaces.LogField{Key: "error", Value: err.Error()},
			)
		}
	}
	return inquiry, nil
}

// BulkInquiry возвращает оптовую заявку по ID
func (s *CartService) BulkInquiry(ctx context.Context, inquiryID string) (*models.BulkInquiry, error) {
	if s.repository == nil {
		return nil, ErrInquiryUnavailable
	}
	if _, err := uuid.Parse(inquiryID); err != nil {
		return nil, fmt.Errorf("%w: id is not a uuid", ErrInvalidInquiry)
	}
	inquiry, err := s.repository.GetBulkInquiry(ctx, inquiryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bulk inquiry: %w", err)
	}
	if inquiry == nil {
		return nil, ErrInquiryNotFound
	}
	return inquiry, nil
}

func validateInquiry(req BulkInquiryRequest) error {
	switch {
	case req.Slug == "":
		return fmt.Errorf("%w: product is required", ErrInvalidInquiry)
	case strings.TrimSpace(req.ContactName) == "":
		return fmt.Errorf("%w: contact name is required", ErrInvalidInquiry)
	case req.Quantity < 1:
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInquiry)
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.ContactEmail)); err != nil {
		return fmt.Errorf("%w: contact email is invalid", ErrInvalidInquiry)
	}
	return nil
}

// publish отправляет событие витрины. Ошибка публикации не отменяет действие покупателя.
func (s *CartService) publish(ctx context.Context, id cart.Identity, eventType messaging.EventType, key string, payload messaging.ItemPayload) {
	if s.publisher == nil {
		return
	}
	event, err := messaging.NewEvent(eventType, id.SessionID, id.UserID, payload)
	if err != nil {
		s.logger.ErrorWithContext(ctx, "Не удалось собрать событие", interfaces.LogField{Key: "error", Value: err.Error()})
		return
	}
	data, err := event.Encode()
	if err != nil {
		s.logger.ErrorWithContext(ctx, "Не удалось сериализовать событие", interfaces.LogField{Key: "error", Value: err.Error()})
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishWithKey(pubCtx, s.topic, key, data); err != nil {
		s.logger.WarnWithContext(ctx, "Не удалось опубликовать событие",
			interfaces.LogField{Key: "event", Value: eventType},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
	}
}

type userMessenger interface {
	UserMessage() string
}

// userMessage текст ошибки для покупателя
func userMessage(err error) string {
	var um userMessenger
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return "Something went wrong. Please try again."
}
