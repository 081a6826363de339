package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/adapters/cache"
	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/adapters/messaging"
	"github.com/athebyme/gomarket-storefront/internal/domain/cart"
	"github.com/athebyme/gomarket-storefront/internal/domain/filter"
	"github.com/athebyme/gomarket-storefront/internal/domain/listing"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/domain/shop"
	"github.com/athebyme/gomarket-storefront/internal/domain/store"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventsTopic = "storefront-events"

type fakeProducts struct {
	products map[string]*models.Product
}

func (f *fakeProducts) Product(_ context.Context, slug string) (*models.Product, error) {
	p, ok := f.products[slug]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

func (f *fakeProducts) Suggest(_ context.Context, term string) ([]models.SearchSuggestion, error) {
	return []models.SearchSuggestion{{Slug: "tee", Name: term}}, nil
}

type fakeRepo struct {
	mu        sync.Mutex
	options   []models.FilterOptionRecord
	optErr    error
	optCalls  int
	inquiries []*models.BulkInquiry
	outbox    []models.OutboxRecord
	published map[string]bool
	failSave  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{published: map[string]bool{}}
}

func (r *fakeRepo) ListFilterOptions(context.Context) ([]models.FilterOptionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.optCalls++
	return r.options, r.optErr
}

func (r *fakeRepo) SaveBulkInquiry(_ context.Context, inq *models.BulkInquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return errors.New("db down")
	}
	r.inquiries = append(r.inquiries, inq)
	return nil
}

func (r *fakeRepo) GetBulkInquiry(_ context.Context, id string) (*models.BulkInquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inq := range r.inquiries {
		if inq.ID == id {
			return inq, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) SaveOutbox(_ context.Context, rec *models.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outbox = append(r.outbox, *rec)
	return nil
}

func (r *fakeRepo) PendingOutbox(_ context.Context, limit int) ([]models.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.OutboxRecord
	for _, rec := range r.outbox {
		if !r.published[rec.ID] && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRepo) MarkOutboxPublished(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published[id] = true
	return nil
}

// fakeTx выполняет функцию без транзакции
type fakeTx struct{}

func (fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	storefront *StorefrontService
	carts      *CartService
	repo       *fakeRepo
	bus        *messaging.MemoryMessaging
	fetches    *[]string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log := logger.NewNop()

	var mu sync.Mutex
	fetches := []string{}
	products := listing.FetcherFunc[models.Product](func(_ context.Context, q filter.ListQuery) (listing.Page[models.Product], error) {
		mu.Lock()
		fetches = append(fetches, q.Encode())
		mu.Unlock()
		return listing.Page[models.Product]{Items: []models.Product{{ID: "p1", Slug: "tee"}}, CurrentPage: 1, TotalPages: 1, TotalCount: 1}, nil
	})

	source := &fakeProducts{products: map[string]*models.Product{
		"tee": {ID: "p-tee", Slug: "tee", Variants: []models.Variant{
			{Color: "Red", Size: "S", Stock: 0, SKU: "RS"},
			{Color: "Red", Size: "M", Stock: 4, SKU: "RM"},
			{Color: "Blue", Size: "L", Stock: 1, SKU: "BL"},
		}},
		"serum":  {ID: "p-serum", Slug: "serum", StockQuantity: 10, MinOrderQuantity: 2},
		"pallet": {ID: "p-pallet", Slug: "pallet", StockQuantity: 1000, MinOrderQuantity: 50},
	}}

	repo := newFakeRepo()
	repo.options = []models.FilterOptionRecord{
		{GroupID: filter.GroupCategory, OptionID: "SKIN_CARE", Label: "Skin care", Position: 1},
		{GroupID: filter.GroupTags, OptionID: "New", Label: "New", Position: 2},
	}

	registry := store.NewRegistry(store.Fetchers{Products: products}, time.Minute, log)
	catalog := NewFilterCatalogService(repo, 1000, time.Minute, log)
	bus := messaging.NewMemoryMessaging(interfaces.ConsumerConfig{}, log)
	factory := cart.NewFactory(nil, cache.NewMemoryCache(time.Minute), time.Hour, log)

	return fixture{
		storefront: NewStorefrontService(registry, catalog, source, 10*time.Millisecond, log),
		carts:      NewCartService(registry, source, factory, repo, fakeTx{}, bus, eventsTopic, log),
		repo:       repo,
		bus:        bus,
		fetches:    &fetches,
	}
}

func TestFilterCatalogCachedAndFallback(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	repo.options = []models.FilterOptionRecord{{GroupID: filter.GroupTags, OptionID: "New", Label: "New"}}
	svc := NewFilterCatalogService(repo, 500, time.Minute, logger.NewNop())

	c := svc.Catalog(ctx)
	svc.Catalog(ctx)
	assert.Equal(t, 1, repo.optCalls)
	label, ok := c.OptionLabel(filter.GroupTags, "New")
	assert.True(t, ok)
	assert.Equal(t, "New", label)
	assert.Equal(t, 500, c.PriceCeiling)

	svc.Invalidate()
	repo.optErr = errors.New("db down")
	c = svc.Catalog(ctx)
	assert.True(t, c.IsGroup(filter.GroupCategory))
	_, ok = c.OptionLabel(filter.GroupTags, "New")
	assert.False(t, ok)
}

func TestListingUsesContextBase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.storefront.Listing(ctx, "s1", shop.ContextSale, shop.NewMemoryLocation("/shop/sale", "category=SKIN_CARE&page=2"))
	require.NoError(t, err)

	assert.Len(t, view.Result.Items, 1)
	assert.Equal(t, "category=SKIN_CARE&page=2", view.Query)
	require.Len(t, view.Chips, 1)
	assert.Equal(t, "Skin care", view.Chips[0].Label)
	assert.Equal(t, []string{"category=SKIN_CARE&onSale=true&page=2"}, *f.fetches)

	_, err = f.storefront.Listing(ctx, "s1", "outlet", shop.NewMemoryLocation("/shop/outlet", ""))
	assert.ErrorIs(t, err, shop.ErrUnknownContext)
}

func TestRetryListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.storefront.RetryListing(ctx, "s1", shop.ContextShop)
	assert.ErrorIs(t, err, listing.ErrNoPreviousQuery)

	_, err = f.storefront.Listing(ctx, "s1", shop.ContextShop, shop.NewMemoryLocation("/shop", "page=3"))
	require.NoError(t, err)
	_, err = f.storefront.RetryListing(ctx, "s1", shop.ContextShop)
	require.NoError(t, err)
	assert.Equal(t, []string{"page=3", "page=3"}, *f.fetches)
}

func TestProductSelectionFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.storefront.Product(ctx, "s1", "tee")
	require.NoError(t, err)
	assert.Equal(t, "Red", view.Selection.Color)
	assert.Equal(t, "S", view.Selection.Size)
	assert.Equal(t, 0, view.Selection.Stock)

	view, err = f.storefront.UpdateSelection(ctx, "s1", "tee", SelectionChange{Size: "M"})
	require.NoError(t, err)
	assert.Equal(t, 4, view.Selection.Stock)

	for i := 0; i < 10; i++ {
		view, err = f.storefront.UpdateSelection(ctx, "s1", "tee", SelectionChange{Step: StepIncrement})
		require.NoError(t, err)
	}
	assert.Equal(t, 4, view.Selection.Quantity)

	view, err = f.storefront.UpdateSelection(ctx, "s1", "tee", SelectionChange{Color: "Blue"})
	require.NoError(t, err)
	assert.Equal(t, "L", view.Selection.Size)
	assert.Equal(t, 1, view.Selection.Quantity)

	_, err = f.storefront.UpdateSelection(ctx, "s1", "tee", SelectionChange{Step: "jump"})
	assert.Error(t, err)
}

func TestSuggestMinLength(t *testing.T) {
	f := newFixture(t)

	res, err := f.storefront.Suggest(context.Background(), " a ")
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.NotNil(t, res)

	res, err = f.storefront.Suggest(context.Background(), "tee")
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestAddToCartUsesSessionSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := cart.Identity{SessionID: "s1"}

	_, err := f.storefront.UpdateSelection(ctx, "s1", "tee", SelectionChange{Size: "M", Quantity: intPtr(3)})
	require.NoError(t, err)

	slice, err := f.carts.AddToCart(ctx, id, AddToCartRequest{Slug: "tee"})
	require.NoError(t, err)
	assert.Equal(t, 3, slice.Value.TotalCount)
	assert.Equal(t, []models.CartLine{{ProductID: "p-tee", SKU: "RM", Quantity: 3}}, slice.Value.Lines)

	events := f.bus.Published(eventsTopic)
	require.Len(t, events, 1)
	ev, err := messaging.DecodeEvent(events[0].Value)
	require.NoError(t, err)
	assert.Equal(t, messaging.CartItemAddedEvent, ev.Type)
	assert.Equal(t, "p-tee", events[0].Key)
}

func TestAddToCartValidation(t *testing.T) {
	ctx := context.Background()
	id := cart.Identity{SessionID: "s1"}

	cases := []struct {
		name string
		req  AddToCartRequest
		want error
	}{
		{name: "below minimum", req: AddToCartRequest{Slug: "serum", Quantity: 1}, want: cart.ErrBelowMinimum},
		{name: "over stock", req: AddToCartRequest{Slug: "serum", Quantity: 11}, want: cart.ErrInsufficientStock},
		{name: "out of stock variant", req: AddToCartRequest{Slug: "tee", Color: "Red", Size: "S", Quantity: 1}, want: cart.ErrInsufficientStock},
		{name: "unresolved variant", req: AddToCartRequest{Slug: "tee", Color: "Green", Size: "S", Quantity: 1}, want: cart.ErrSelectionRequired},
		{name: "bulk only", req: AddToCartRequest{Slug: "pallet", Quantity: 60}, want: ErrBulkOrderOnly},
		{name: "no product", req: AddToCartRequest{}, want: ErrNoSelection},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			slice, err := f.carts.AddToCart(ctx, id, tc.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 0, slice.Value.TotalCount)
			assert.Empty(t, f.bus.Published(eventsTopic))
		})
	}
}

func TestCartRemoveAndWishlist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := cart.Identity{SessionID: "s1"}

	_, err := f.carts.AddToCart(ctx, id, AddToCartRequest{Slug: "serum", Quantity: 2})
	require.NoError(t, err)
	slice, err := f.carts.RemoveFromCart(ctx, id, "p-serum", "")
	require.NoError(t, err)
	assert.Equal(t, 0, slice.Value.TotalCount)

	wl, err := f.carts.AddToWishlist(ctx, id, "p-serum", "")
	require.NoError(t, err)
	assert.Equal(t, 1, wl.Value.TotalCount)

	wl, err = f.carts.Wishlist(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, wl.Value.TotalCount)

	wl, err = f.carts.RemoveFromWishlist(ctx, id, "p-serum", "")
	require.NoError(t, err)
	assert.Equal(t, 0, wl.Value.TotalCount)

	assert.Len(t, f.bus.Published(eventsTopic), 4)
}

func TestCreateBulkInquiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := cart.Identity{SessionID: "s1"}

	inq, err := f.carts.CreateBulkInquiry(ctx, id, BulkInquiryRequest{
		Slug: "pallet", Quantity: 60, ContactName: "Ann", ContactEmail: "ann@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, inq.ID)
	assert.Equal(t, "p-pallet", inq.ProductID)

	require.Len(t, f.repo.inquiries, 1)
	require.Len(t, f.repo.outbox, 1)
	assert.True(t, f.repo.published[f.repo.outbox[0].ID])
	assert.Len(t, f.bus.Published(eventsTopic), 1)

	got, err := f.carts.BulkInquiry(ctx, inq.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Quantity)
	_, err = f.carts.BulkInquiry(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrInquiryNotFound)
	_, err = f.carts.BulkInquiry(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidInquiry)

	_, err = f.carts.CreateBulkInquiry(ctx, id, BulkInquiryRequest{
		Slug: "pallet", Quantity: 10, ContactName: "Ann", ContactEmail: "ann@example.com",
	})
	assert.ErrorIs(t, err, cart.ErrBelowMinimum)

	_, err = f.carts.CreateBulkInquiry(ctx, id, BulkInquiryRequest{Slug: "pallet", Quantity: 60, ContactName: "Ann", ContactEmail: "nope"})
	assert.ErrorIs(t, err, ErrInvalidInquiry)

	f.repo.failSave = true
	_, err = f.carts.CreateBulkInquiry(ctx, id, BulkInquiryRequest{
		Slug: "pallet", Quantity: 60, ContactName: "Ann", ContactEmail: "ann@example.com",
	})
	assert.Error(t, err)
	assert.Len(t, f.repo.outbox, 1)
}

func TestOutboxRelay(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	bus := messaging.NewMemoryMessaging(interfaces.ConsumerConfig{}, logger.NewNop())
	require.NoError(t, repo.SaveOutbox(ctx, &models.OutboxRecord{ID: "a", Topic: eventsTopic, Payload: []byte(`{}`)}))
	require.NoError(t, repo.SaveOutbox(ctx, &models.OutboxRecord{ID: "b", Topic: eventsTopic, Payload: []byte(`{}`)}))

	relay := NewOutboxRelay(repo, bus, 10, logger.NewNop())
	sent, err := relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, bus.Published(eventsTopic), 2)

	sent, err = relay.RelayOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func intPtr(v int) *int { return &v }
