package postgres

import (
	"context"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
)

// Repository определяет интерфейс взаимодействия витрины с хранилищем PostgreSQL
type Repository interface {
	// FilterOption методы
	ListFilterOptions(ctx context.Context) ([]models.FilterOptionRecord, error)

	// BulkInquiry методы
	SaveBulkInquiry(ctx context.Context, inquiry *models.BulkInquiry) error
	GetBulkInquiry(ctx context.Context, id string) (*models.BulkInquiry, error)

	// Outbox методы
	SaveOutbox(ctx context.Context, rec *models.OutboxRecord) error
	PendingOutbox(ctx context.Context, limit int) ([]models.OutboxRecord, error)
	MarkOutboxPublished(ctx context.Context, id string) error
}
