package cart

import (
	"context"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
)

// RemoteCartStore корзина вошедшего покупателя, хранится в каталоге
type RemoteCartStore struct {
	api   RemoteAPI
	token string
}

func (s *RemoteCartStore) Add(ctx context.Context, line models.CartLine) (models.CartSnapshot, error) {
	return s.api.AddToCart(ctx, s.token, line)
}

func (s *RemoteCartStore) Remove(ctx context.Context, productID, sku string) (models.CartSnapshot, error) {
	return s.api.RemoveFromCart(ctx, s.token, productID, sku)
}

func (s *RemoteCartStore) List(ctx context.Context) (models.CartSnapshot, error) {
	return s.api.GetCart(ctx, s.token)
}

// RemoteWishlistStore избранное вошедшего покупателя, хранится в каталоге
type RemoteWishlistStore struct {
	api   RemoteAPI
	token string
	clock func() time.Time
}

func (s *RemoteWishlistStore) Add(ctx context.Context, entry models.WishlistEntry) (models.WishlistSnapshot, error) {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = s.clock().UTC()
	}
	return s.api.AddToWishlist(ctx, s.token, entry)
}

func (s *RemoteWishlistStore) Remove(ctx context.Context, productID, sku string) (models.WishlistSnapshot, error) {
	return s.api.RemoveFromWishlist(ctx, s.token, productID, sku)
}

func (s *RemoteWishlistStore) List(ctx context.Context) (models.WishlistSnapshot, error) {
	return s.api.GetWishlist(ctx, s.token)
}
