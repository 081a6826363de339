package catalogapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/domain/filter"
	"github.com/athebyme/gomarket-storefront/internal/domain/listing"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	cacheerrors "github.com/athebyme/gomarket-storefront/pkg/errors"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// Ключи кэша каталога; воркер сбрасывает их по событиям каталога
const (
	ListingKeyPrefix = "listing:"
	ProductKeyPrefix = "product:"
	ListingPattern   = ListingKeyPrefix + "*"
)

// ProductKey ключ кэша товара
func ProductKey(slug string) string {
	return ProductKeyPrefix + slug
}

// ListingKey ключ кэша страницы списка
func ListingKey(q filter.ListQuery) string {
	return ListingKeyPrefix + q.Encode()
}

// CachedClient клиент каталога с кэшированием списков и товаров.
// Ошибки не кэшируются; корзина и избранное всегда идут напрямую в каталог.
type CachedClient struct {
	*Client
	cache      interfaces.CachePort
	listingTTL time.Duration
	productTTL time.Duration
	logger     interfaces.LoggerPort
}

// NewCachedClient оборачивает клиента каталога кэшем
func NewCachedClient(client *Client, cache interfaces.CachePort, listingTTL, productTTL time.Duration, logger interfaces.LoggerPort) *CachedClient {
	return &CachedClient{
		Client:     client,
		cache:      cache,
		listingTTL: listingTTL,
		productTTL: productTTL,
		logger:     logger,
	}
}

// FetchProducts возвращает страницу из кэша или каталога
func (c *CachedClient) FetchProducts(ctx context.Context, q filter.ListQuery) (listing.Page[models.Product], error) {
	key := ListingKey(q)

	var page listing.Page[models.Product]
	if c.lookup(ctx, "listing", key, &page) {
		return page, nil
	}

	page, err := c.Client.FetchProducts(ctx, q)
	if err != nil {
		return page, err
	}
	c.store(ctx, key, page, c.listingTTL)
	return page, nil
}

// Product возвращает товар из кэша или каталога
func (c *CachedClient) Product(ctx context.Context, slug string) (*models.Product, error) {
	key := ProductKey(slug)

	var p models.Product
	if c.lookup(ctx, "product", key, &p) {
		return &p, nil
	}

	fresh, err := c.Client.Product(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, fresh, c.productTTL)
	return fresh, nil
}

func (c *CachedClient) lookup(ctx context.Context, kind, key string, v interface{}) bool {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cacheerrors.ErrCacheMiss) {
			c.logger.WarnWithContext(ctx, "Ошибка чтения кэша каталога",
				interfaces.LogField{Key: "key", Value: key},
				interfaces.LogField{Key: "error", Value: err.Error()},
			)
		}
		cacheResults.WithLabelValues(kind, "miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		cacheResults.WithLabelValues(kind, "corrupt").Inc()
		return false
	}
	cacheResults.WithLabelValues(kind, "hit").Inc()
	return true
}

func (c *CachedClient) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, ttl); err != nil {
		c.logger.WarnWithContext(ctx, "Ошибка записи кэша каталога",
			interfaces.LogField{Key: "key", Value: key},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
	}
}

// Invalidate сбрасывает кэш товара и всех списков
func Invalidate(ctx context.Context, cache interfaces.CachePort, slug string) error {
	if slug != "" {
		if err := cache.Delete(ctx, ProductKey(slug)); err != nil {
			return err
		}
	}
	return cache.DeleteByPattern(ctx, ListingPattern)
}
