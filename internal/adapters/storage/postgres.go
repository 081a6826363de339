package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	infra "github.com/athebyme/gomarket-storefront/internal/infrastructure/postgres"
	"github.com/athebyme/gomarket-storefront/pkg/tx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation код ошибки PostgreSQL при нарушении уникальности
const uniqueViolation = "23505"

// ErrDuplicateInquiry заявка с таким идентификатором уже сохранена
var ErrDuplicateInquiry = errors.New("bulk inquiry already exists")

const schemaDDL = `
	CREATE SCHEMA IF NOT EXISTS storefront;

	CREATE TABLE IF NOT EXISTS storefront.filter_options (
		group_id    TEXT    NOT NULL,
		group_label TEXT    NOT NULL DEFAULT '',
		option_id   TEXT    NOT NULL,
		label       TEXT    NOT NULL,
		position    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (group_id, option_id)
	);

	CREATE TABLE IF NOT EXISTS storefront.bulk_inquiries (
		id            UUID        PRIMARY KEY,
		product_id    TEXT        NOT NULL,
		sku_variant   TEXT        NOT NULL DEFAULT '',
		quantity      INTEGER     NOT NULL,
		contact_name  TEXT        NOT NULL,
		contact_email TEXT        NOT NULL,
		message       TEXT        NOT NULL DEFAULT '',
		session_id    TEXT        NOT NULL DEFAULT '',
		user_id       TEXT        NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS storefront.outbox (
		id           UUID        PRIMARY KEY,
		topic        TEXT        NOT NULL,
		msg_key      TEXT        NOT NULL DEFAULT '',
		event_type   TEXT        NOT NULL,
		payload      JSONB       NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		published_at TIMESTAMPTZ
	);
`

// StorefrontStorage хранилище витрины в PostgreSQL
type StorefrontStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage создает новый экземпляр StorefrontStorage
func NewPostgresStorage(ctx context.Context, connectionString string) (*StorefrontStorage, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewPostgresStorageWithPool(ctx, pool)
}

// NewPostgresStorageWithPool создает хранилище поверх готового пула
func NewPostgresStorageWithPool(ctx context.Context, pool *pgxpool.Pool) (*StorefrontStorage, error) {
	if pool == nil {
		return nil, errors.New("pool is nil")
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &StorefrontStorage{pool: pool}, nil
}

// Pool возвращает пул соединений (для менеджера транзакций)
func (r *StorefrontStorage) Pool() *pgxpool.Pool {
	return r.pool
}

// Close закрывает соединение с БД
func (r *StorefrontStorage) Close() error {
	r.pool.Close()
	return nil
}

// EnsureSchema создает таблицы витрины, если их нет
func (r *StorefrontStorage) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Ping проверяет соединение
func (r *StorefrontStorage) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

type executor interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// getExecutor возвращает исполнителя запросов (транзакцию или пул)
func (r *StorefrontStorage) getExecutor(ctx context.Context) executor {
	if t, ok := tx.GetTxFromContext(ctx); ok {
		return t
	}
	return r.pool
}

// ListFilterOptions возвращает справочник фильтров витрины
func (r *StorefrontStorage) ListFilterOptions(ctx context.Context) ([]models.FilterOptionRecord, error) {
	query := `
		SELECT group_id, group_label, option_id, label, position
		FROM storefront.filter_options
		ORDER BY position, group_id, option_id
	`

	rows, err := r.getExecutor(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list filter options: %w", err)
	}
	defer rows.Close()

	var records []models.FilterOptionRecord
	for rows.Next() {
		var rec models.FilterOptionRecord
		if err := rows.Scan(&rec.GroupID, &rec.GroupLabel, &rec.OptionID, &rec.Label, &rec.Position); err != nil {
			return nil, fmt.Errorf("failed to scan filter option: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate filter options: %w", err)
	}
	return records, nil
}

// SaveBulkInquiry сохраняет заявку на оптовый заказ
func (r *StorefrontStorage) SaveBulkInquiry(ctx context.Context, inq *models.BulkInquiry) error {
	query := `
		INSERT INTO storefront.bulk_inquiries
			(id, product_id, sku_variant, quantity, contact_name, contact_email, message, session_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if inq.ID == "" {
		inq.ID = uuid.NewString()
	}
	if inq.CreatedAt.IsZero() {
		inq.CreatedAt = time.Now().UTC()
	}

	_, err := r.getExecutor(ctx).Exec(ctx, query,
		inq.ID, inq.ProductID, inq.SKU, inq.Quantity, inq.ContactName, inq.ContactEmail,
		inq.Message, inq.SessionID, inq.UserID, inq.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateInquiry
		}
		return fmt.Errorf("failed to save bulk inquiry: %w", err)
	}
	return nil
}

// GetBulkInquiry возвращает заявку по ID. Возвращает nil, nil если заявка не найдена
func (r *StorefrontStorage) GetBulkInquiry(ctx context.Context, id string) (*models.BulkInquiry, error) {
	query := `
		SELECT id, product_id, sku_variant, quantity, contact_name, contact_email, message, session_id, user_id, created_at
		FROM storefront.bulk_inquiries
		WHERE id = $1
	`

	var inq models.BulkInquiry
	err := r.getExecutor(ctx).QueryRow(ctx, query, id).Scan(
		&inq.ID, &inq.ProductID, &inq.SKU, &inq.Quantity, &inq.ContactName, &inq.ContactEmail,
		&inq.Message, &inq.SessionID, &inq.UserID, &inq.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bulk inquiry: %w", err)
	}
	return &inq, nil
}

// SaveOutbox сохраняет событие для последующей публикации
func (r *StorefrontStorage) SaveOutbox(ctx context.Context, rec *models.OutboxRecord) error {
	query := `
		INSERT INTO storefront.outbox (id, topic, msg_key, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if _, err := r.getExecutor(ctx).Exec(ctx, query, rec.ID, rec.Topic, rec.Key, rec.EventType, rec.Payload, rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to save outbox record: %w", err)
	}
	return nil
}

// PendingOutbox возвращает неопубликованные события в порядке создания
func (r *StorefrontStorage) PendingOutbox(ctx context.Context, limit int) ([]models.OutboxRecord, error) {
	query := `
		SELECT id, topic, msg_key, event_type, payload, created_at
		FROM storefront.outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.getExecutor(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox: %w", err)
	}
	defer rows.Close()

	var out []models.OutboxRecord
	for rows.Next() {
		var rec models.OutboxRecord
		if err := rows.Scan(&rec.ID, &rec.Topic, &rec.Key, &rec.EventType, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkOutboxPublished отмечает событие опубликованным
func (r *StorefrontStorage) MarkOutboxPublished(ctx context.Context, id string) error {
	query := `UPDATE storefront.outbox SET published_at = $2 WHERE id = $1`
	if _, err := r.getExecutor(ctx).Exec(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark outbox record: %w", err)
	}
	return nil
}

var _ infra.Port = (*StorefrontStorage)(nil)
