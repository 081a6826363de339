package services

import (
	"context"
	"fmt"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/infrastructure/postgres"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// Параметры досылки по умолчанию
const (
	DefaultOutboxBatch    = 100
	DefaultOutboxInterval = 10 * time.Second
)

// OutboxRelay досылает события, сохраненные в outbox, но не опубликованные сразу
type OutboxRelay struct {
	repository postgres.Repository
	publisher  interfaces.MessagingPort
	batch      int
	logger     interfaces.LoggerPort
}

// NewOutboxRelay создает новый экземпляр OutboxRelay
func NewOutboxRelay(repository postgres.Repository, publisher interfaces.MessagingPort, batch int, logger interfaces.LoggerPort) *OutboxRelay {
	if batch <= 0 {
		batch = DefaultOutboxBatch
	}
	return &OutboxRelay{repository: repository, publisher: publisher, batch: batch, logger: logger}
}

// RelayOnce публикует очередную порцию событий. Возвращает число опубликованных.
// Первая ошибка публикации останавливает проход, чтобы сохранить порядок.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	records, err := r.repository.PendingOutbox(ctx, r.batch)
	if err != nil {
		return 0, fmt.Errorf("failed to read outbox: %w", err)
	}

	sent := 0
	for _, rec := range records {
		if err := r.publisher.PublishWithKey(ctx, rec.Topic, rec.Key, rec.Payload); err != nil {
			return sent, fmt.Errorf("failed to publish outbox record %s: %w", rec.ID, err)
		}
		if err := r.repository.MarkOutboxPublished(ctx, rec.ID); err != nil {
			return sent, fmt.Errorf("failed to mark outbox record %s: %w", rec.ID, err)
		}
		sent++
	}
	return sent, nil
}

// Run периодически досылает события до отмены контекста
func (r *OutboxRelay) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultOutboxInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, err := r.RelayOnce(ctx)
			if err != nil {
				r.logger.Warn("Ошибка отправки событий outbox", interfaces.LogField{Key: "error", Value: err.Error()})
			}
			if sent > 0 {
				r.logger.Info("События outbox отправлены", interfaces.LogField{Key: "count", Value: sent})
			}
		}
	}
}
