package interfaces

import (
	"context"
	"time"
)

// CachePort определяет интерфейс для работы с системой кэширования
// Реализация может использовать Redis, Memcached или любую другую систему кэширования
type CachePort interface {
	// Get получает значение из кэша по ключу
	// Возвращает errors.ErrCacheMiss, если значение не найдено
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кэше с указанным сроком действия
	// Если expiration равно 0, срок действия не устанавливается
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// Delete удаляет значение из кэша по ключу
	Delete(ctx context.Context, key string) error

	// DeleteByPattern удаляет все значения, соответствующие шаблону
	// Например, "listing:*" удалит все ключи, начинающиеся с "listing:"
	DeleteByPattern(ctx context.Context, pattern string) error

	// Increment увеличивает числовое значение ключа на указанную величину
	// Если ключ не существует, он будет создан со значением delta
	Increment(ctx context.Context, key string, delta int64) (int64, error)

	// Lock пытается получить блокировку с указанным ключом
	// Возвращает токен владельца и true, если блокировка получена успешно
	Lock(ctx context.Context, key string, expiration time.Duration) (string, bool, error)

	// Unlock освобождает блокировку, только если она все еще принадлежит владельцу токена
	Unlock(ctx context.Context, key, token string) error

	// Close закрывает соединение с системой кэширования
	Close() error
}
