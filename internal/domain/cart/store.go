package cart

import (
	"context"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// CartStore операции с корзиной покупателя
type CartStore interface {
	Add(ctx context.Context, line models.CartLine) (models.CartSnapshot, error)
	Remove(ctx context.Context, productID, sku string) (models.CartSnapshot, error)
	List(ctx context.Context) (models.CartSnapshot, error)
}

// WishlistStore операции с избранным покупателя
type WishlistStore interface {
	Add(ctx context.Context, entry models.WishlistEntry) (models.WishlistSnapshot, error)
	Remove(ctx context.Context, productID, sku string) (models.WishlistSnapshot, error)
	List(ctx context.Context) (models.WishlistSnapshot, error)
}

// RemoteAPI корзина и избранное авторизованного покупателя на стороне каталога
type RemoteAPI interface {
	GetCart(ctx context.Context, token string) (models.CartSnapshot, error)
	AddToCart(ctx context.Context, token string, line models.CartLine) (models.CartSnapshot, error)
	RemoveFromCart(ctx context.Context, token, productID, sku string) (models.CartSnapshot, error)

	GetWishlist(ctx context.Context, token string) (models.WishlistSnapshot, error)
	AddToWishlist(ctx context.Context, token string, entry models.WishlistEntry) (models.WishlistSnapshot, error)
	RemoveFromWishlist(ctx context.Context, token, productID, sku string) (models.WishlistSnapshot, error)
}

// Identity кто выполняет действие
type Identity struct {
	SessionID string
	UserID    string
	Token     string
}

// Authenticated сообщает, вошел ли покупатель
func (i Identity) Authenticated() bool {
	return i.UserID != "" && i.Token != ""
}

// Stores хранилища корзины и избранного для одного действия
type Stores struct {
	Cart     CartStore
	Wishlist WishlistStore
	Remote   bool
}

// Factory выбирает реализацию хранилищ по состоянию авторизации на момент действия
type Factory struct {
	remote   RemoteAPI
	cache    interfaces.CachePort
	guestTTL time.Duration
	clock    func() time.Time
	logger   interfaces.LoggerPort
}

// NewFactory создает фабрику хранилищ
func NewFactory(remote RemoteAPI, cache interfaces.CachePort, guestTTL time.Duration, logger interfaces.LoggerPort) *Factory {
	return &Factory{
		remote:   remote,
		cache:    cache,
		guestTTL: guestTTL,
		clock:    time.Now,
		logger:   logger,
	}
}

// NewStores возвращает удаленные хранилища для вошедшего покупателя и локальные для гостя.
// Смена авторизации не переносит данные между хранилищами.
func (f *Factory) NewStores(id Identity) Stores {
	if id.Authenticated() {
		return Stores{
			Cart:     &RemoteCartStore{api: f.remote, token: id.Token},
			Wishlist: &RemoteWishlistStore{api: f.remote, token: id.Token, clock: f.clock},
			Remote:   true,
		}
	}
	return Stores{
		Cart:     newLocalCartStore(f.cache, id.SessionID, f.guestTTL, f.logger),
		Wishlist: newLocalWishlistStore(f.cache, id.SessionID, f.guestTTL, f.clock, f.logger),
	}
}
