package services

import (
	"context"
	"fmt"

	"github.com/athebyme/gomarket-storefront/internal/adapters/catalogapi"
	"github.com/athebyme/gomarket-storefront/internal/adapters/messaging"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// CatalogEventHandler сбрасывает кэши витрины по событиям каталога
type CatalogEventHandler struct {
	cache   interfaces.CachePort
	filters *FilterCatalogService
	logger  interfaces.LoggerPort
}

// NewCatalogEventHandler создает новый экземпляр CatalogEventHandler. filters может быть nil.
func NewCatalogEventHandler(cache interfaces.CachePort, filters *FilterCatalogService, logger interfaces.LoggerPort) *CatalogEventHandler {
	return &CatalogEventHandler{cache: cache, filters: filters, logger: logger}
}

// Handle обрабатывает сообщение темы событий каталога. Чужие события пропускаются без ошибки,
// ошибка разбора или сброса кэша возвращается для повторной доставки.
func (h *CatalogEventHandler) Handle(ctx context.Context, msg *interfaces.Message) error {
	event, err := messaging.DecodeEvent(msg.Value)
	if err != nil {
		return err
	}
	if !messaging.IsCatalogEvent(event.Type) {
		h.logger.WarnWithContext(ctx, "Неизвестный тип события",
			interfaces.LogField{Key: "event_type", Value: event.Type},
			interfaces.LogField{Key: "message_id", Value: msg.ID},
		)
		return nil
	}

	var payload messaging.CatalogPayload
	if len(event.Payload) > 0 {
		if err := event.DecodePayload(&payload); err != nil {
			return err
		}
	}

	if err := catalogapi.Invalidate(ctx, h.cache, payload.Slug); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	if h.filters != nil {
		h.filters.Invalidate()
	}

	h.logger.InfoWithContext(ctx, "Кэш каталога сброшен",
		interfaces.LogField{Key: "event_type", Value: event.Type},
		interfaces.LogField{Key: "slug", Value: payload.Slug},
	)
	return nil
}
