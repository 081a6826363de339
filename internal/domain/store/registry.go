package store

import (
	"sync"
	"time"

	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultSessionTTL время жизни неактивной сессии
const DefaultSessionTTL = 30 * time.Minute

// Registry сессии покупателей в памяти процесса. Срок жизни продлевается при каждом обращении;
// вытесненная сессия закрывается.
type Registry struct {
	sessions *gocache.Cache
	fetchers Fetchers
	ttl      time.Duration
	logger   interfaces.LoggerPort

	mu sync.Mutex
}

// NewRegistry создает реестр сессий
func NewRegistry(fetchers Fetchers, ttl time.Duration, logger interfaces.LoggerPort) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	r := &Registry{
		sessions: gocache.New(ttl, ttl/2),
		fetchers: fetchers,
		ttl:      ttl,
		logger:   logger,
	}
	r.sessions.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Close()
		}
		r.logger.Debug("Сессия вытеснена", interfaces.LogField{Key: "session_id", Value: id})
	})
	return r
}

// Get возвращает существующую сессию и продлевает ее срок
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

// GetOrCreate возвращает сессию, создавая ее при необходимости
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.get(id); ok {
		return s
	}
	s := NewSession(id, r.fetchers, r.logger)
	r.sessions.Set(id, s, r.ttl)
	r.logger.Debug("Создана сессия", interfaces.LogField{Key: "session_id", Value: id})
	return s
}

// Drop удаляет сессию
func (r *Registry) Drop(id string) {
	r.sessions.Delete(id)
}

// Len число активных сессий
func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}

func (r *Registry) get(id string) (*Session, bool) {
	v, ok := r.sessions.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	r.sessions.Set(id, s, r.ttl)
	return s, true
}
