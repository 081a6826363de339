package postgres

import (
	"context"
)

type Port interface {
	Repository

	// EnsureSchema создает таблицы витрины, если их нет
	EnsureSchema(ctx context.Context) error

	Ping(ctx context.Context) error

	Close() error
}
