package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	cacheerrors "github.com/athebyme/gomarket-storefront/pkg/errors"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

const (
	// DefaultGuestTTL срок хранения гостевой корзины
	DefaultGuestTTL = 7 * 24 * time.Hour

	lockTTL      = 5 * time.Second
	lockAttempts = 20
	lockBackoff  = 25 * time.Millisecond
)

// ErrNoSession гостевое действие без идентификатора сессии
var ErrNoSession = errors.New("guest session is required")

func guestCartKey(sessionID string) string     { return "guest:cart:" + sessionID }
func guestWishlistKey(sessionID string) string { return "guest:wishlist:" + sessionID }

// guestState общая часть локальных хранилищ: JSON-документ в кэше под блокировкой
type guestState struct {
	cache  interfaces.CachePort
	key    string
	ttl    time.Duration
	logger interfaces.LoggerPort
}

func (g guestState) load(ctx context.Context, v interface{}) error {
	data, err := g.cache.Get(ctx, g.key)
	if errors.Is(err, cacheerrors.ErrCacheMiss) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", g.key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		// испорченный документ заменяется пустым
		g.logger.Warn("Не удалось разобрать гостевое состояние",
			interfaces.LogField{Key: "key", Value: g.key},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
	}
	return nil
}

func (g guestState) save(ctx context.Context, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", g.key, err)
	}
	if err := g.cache.Set(ctx, g.key, data, g.ttl); err != nil {
		return fmt.Errorf("save %s: %w", g.key, err)
	}
	return nil
}

// mutate выполняет чтение-изменение-запись под распределенной блокировкой
func (g guestState) mutate(ctx context.Context, fn func() error) error {
	var (
		locked bool
		token  string
	)
	for attempt := 0; attempt < lockAttempts; attempt++ {
		t, ok, err := g.cache.Lock(ctx, g.key, lockTTL)
		if err != nil {
			return fmt.Errorf("lock %s: %w", g.key, err)
		}
		if ok {
			locked, token = true, t
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockBackoff):
		}
	}
	if !locked {
		return fmt.Errorf("%s: %w", g.key, cacheerrors.ErrLockNotAcquired)
	}
	defer func() {
		if err := g.cache.Unlock(context.WithoutCancel(ctx), g.key, token); err != nil {
			g.logger.Warn("Не удалось снять блокировку",
				interfaces.LogField{Key: "key", Value: g.key},
				interfaces.LogField{Key: "error", Value: err.Error()},
			)
		}
	}()
	return fn()
}

// LocalCartStore корзина гостя в кэше сессии
type LocalCartStore struct {
	state guestState
}

func newLocalCartStore(cache interfaces.CachePort, sessionID string, ttl time.Duration, logger interfaces.LoggerPort) *LocalCartStore {
	if ttl <= 0 {
		ttl = DefaultGuestTTL
	}
	return &LocalCartStore{state: guestState{cache: cache, key: guestCartKey(sessionID), ttl: ttl, logger: logger}}
}

func (s *LocalCartStore) Add(ctx context.Context, line models.CartLine) (models.CartSnapshot, error) {
	var snap models.CartSnapshot
	err := s.withSession(ctx, func() error {
		lines, err := s.read(ctx)
		if err != nil {
			return err
		}
		lines = AddLine(lines, line)
		snap = CartSnapshotOf(lines)
		return s.state.save(ctx, lines)
	})
	return snap, err
}

func (s *LocalCartStore) Remove(ctx context.Context, productID, sku string) (models.CartSnapshot, error) {
	var snap models.CartSnapshot
	err := s.withSession(ctx, func() error {
		lines, err := s.read(ctx)
		if err != nil {
			return err
		}
		lines = RemoveLine(lines, productID, sku)
		snap = CartSnapshotOf(lines)
		return s.state.save(ctx, lines)
	})
	return snap, err
}

func (s *LocalCartStore) List(ctx context.Context) (models.CartSnapshot, error) {
	lines, err := s.read(ctx)
	if err != nil {
		return models.CartSnapshot{}, err
	}
	return CartSnapshotOf(lines), nil
}

func (s *LocalCartStore) withSession(ctx context.Context, fn func() error) error {
	if s.state.key == guestCartKey("") {
		return ErrNoSession
	}
	return s.state.mutate(ctx, fn)
}

func (s *LocalCartStore) read(ctx context.Context) ([]models.CartLine, error) {
	var lines []models.CartLine
	if err := s.state.load(ctx, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// LocalWishlistStore избранное гостя в кэше сессии
type LocalWishlistStore struct {
	state guestState
	clock func() time.Time
}

func newLocalWishlistStore(cache interfaces.CachePort, sessionID string, ttl time.Duration, clock func() time.Time, logger interfaces.LoggerPort) *LocalWishlistStore {
	if ttl <= 0 {
		ttl = DefaultGuestTTL
	}
	return &LocalWishlistStore{
		state: guestState{cache: cache, key: guestWishlistKey(sessionID), ttl: ttl, logger: logger},
		clock: clock,
	}
}

func (s *LocalWishlistStore) Add(ctx context.Context, entry models.WishlistEntry) (models.WishlistSnapshot, error) {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = s.clock().UTC()
	}
	var snap models.WishlistSnapshot
	err := s.withSession(ctx, func() error {
		entries, err := s.read(ctx)
		if err != nil {
			return err
		}
		entries = AddEntry(entries, entry)
		snap = WishlistSnapshotOf(entries)
		return s.state.save(ctx, entries)
	})
	return snap, err
}

func (s *LocalWishlistStore) Remove(ctx context.Context, productID, sku string) (models.WishlistSnapshot, error) {
	var snap models.WishlistSnapshot
	err := s.withSession(ctx, func() error {
		entries, err := s.read(ctx)
		if err != nil {
			return err
		}
		entries = RemoveEntry(entries, productID, sku)
		snap = WishlistSnapshotOf(entries)
		return s.state.save(ctx, entries)
	})
	return snap, err
}

func (s *LocalWishlistStore) List(ctx context.Context) (models.WishlistSnapshot, error) {
	entries, err := s.read(ctx)
	if err != nil {
		return models.WishlistSnapshot{}, err
	}
	return WishlistSnapshotOf(entries), nil
}

func (s *LocalWishlistStore) withSession(ctx context.Context, fn func() error) error {
	if s.state.key == guestWishlistKey("") {
		return ErrNoSession
	}
	return s.state.mutate(ctx, fn)
}

func (s *LocalWishlistStore) read(ctx context.Context) ([]models.WishlistEntry, error) {
	var entries []models.WishlistEntry
	if err := s.state.load(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
