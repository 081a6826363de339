package services

import (
	"context"
	"testing"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/adapters/cache"
	"github.com/athebyme/gomarket-storefront/internal/adapters/catalogapi"
	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/adapters/messaging"
	"github.com/athebyme/gomarket-storefront/internal/domain/filter"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	cacheerrors "github.com/athebyme/gomarket-storefront/pkg/errors"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogMessage(t *testing.T, eventType messaging.EventType, payload any) *interfaces.Message {
	t.Helper()
	ev, err := messaging.NewEvent(eventType, "", "", payload)
	require.NoError(t, err)
	data, err := ev.Encode()
	require.NoError(t, err)
	return &interfaces.Message{ID: ev.ID, Topic: "catalog-events", Value: data}
}

func TestCatalogEventInvalidates(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryCache(time.Minute)
	repo := newFakeRepo()
	repo.options = []models.FilterOptionRecord{{GroupID: filter.GroupTags, OptionID: "New", Label: "New"}}
	filters := NewFilterCatalogService(repo, 500, time.Minute, logger.NewNop())
	filters.Catalog(ctx)

	listingKey := catalogapi.ListingKey(filter.ListQuery{{Key: filter.KeyPage, Values: []string{"1"}}})
	require.NoError(t, mem.Set(ctx, catalogapi.ProductKey("tee"), []byte("{}"), time.Minute))
	require.NoError(t, mem.Set(ctx, catalogapi.ProductKey("serum"), []byte("{}"), time.Minute))
	require.NoError(t, mem.Set(ctx, listingKey, []byte("{}"), time.Minute))

	h := NewCatalogEventHandler(mem, filters, logger.NewNop())
	require.NoError(t, h.Handle(ctx, catalogMessage(t, messaging.PriceUpdatedEvent, messaging.CatalogPayload{Slug: "tee"})))

	_, err := mem.Get(ctx, catalogapi.ProductKey("tee"))
	assert.ErrorIs(t, err, cacheerrors.ErrCacheMiss)
	_, err = mem.Get(ctx, listingKey)
	assert.ErrorIs(t, err, cacheerrors.ErrCacheMiss)
	_, err = mem.Get(ctx, catalogapi.ProductKey("serum"))
	assert.NoError(t, err)

	filters.Catalog(ctx)
	assert.Equal(t, 2, repo.optCalls)
}

func TestCatalogEventSkipsForeign(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryCache(time.Minute)
	require.NoError(t, mem.Set(ctx, catalogapi.ProductKey("tee"), []byte("{}"), time.Minute))

	h := NewCatalogEventHandler(mem, nil, logger.NewNop())
	require.NoError(t, h.Handle(ctx, catalogMessage(t, messaging.CartItemAddedEvent, messaging.ItemPayload{ProductID: "p1"})))

	_, err := mem.Get(ctx, catalogapi.ProductKey("tee"))
	assert.NoError(t, err)

	assert.Error(t, h.Handle(ctx, &interfaces.Message{Value: []byte("not json")}))
}
