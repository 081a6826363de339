package cache

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"

	cacheerrors "github.com/athebyme/gomarket-storefront/pkg/errors"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache реализация CachePort в памяти процесса. Используется, когда Redis
// отключен в конфигурации, и в тестах.
type MemoryCache struct {
	mu    sync.Mutex
	items *gocache.Cache
}

// NewMemoryCache создает кэш с периодом очистки просроченных записей
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func ttl(expiration time.Duration) time.Duration {
	if expiration <= 0 {
		return gocache.NoExpiration
	}
	return expiration
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, cacheerrors.ErrCacheMiss
	}
	b := v.([]byte)
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	b := make([]byte, len(value))
	copy(b, value)
	m.items.Set(key, b, ttl(expiration))
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

func (m *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	for key := range m.items.Items() {
		if ok, _ := path.Match(pattern, key); ok {
			m.items.Delete(key)
		}
	}
	return nil
}

func (m *MemoryCache) Increment(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	if v, ok := m.items.Get(key); ok {
		parsed, err := strconv.ParseInt(string(v.([]byte)), 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n += delta
	m.items.Set(key, []byte(strconv.FormatInt(n, 10)), gocache.NoExpiration)
	return n, nil
}

func (m *MemoryCache) Lock(_ context.Context, key string, expiration time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := uuid.NewString()
	if err := m.items.Add(lockPrefix+key, []byte(token), ttl(expiration)); err != nil {
		return "", false, nil
	}
	return token, true, nil
}

func (m *MemoryCache) Unlock(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.items.Get(lockPrefix + key); ok && string(v.([]byte)) == token {
		m.items.Delete(lockPrefix + key)
	}
	return nil
}

func (m *MemoryCache) Close() error {
	m.items.Flush()
	return nil
}
