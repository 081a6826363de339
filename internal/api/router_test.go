package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/adapters/cache"
	"github.com/athebyme/gomarket-storefront/internal/adapters/catalogapi"
	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/adapters/messaging"
	"github.com/athebyme/gomarket-storefront/internal/domain/cart"
	"github.com/athebyme/gomarket-storefront/internal/domain/filter"
	"github.com/athebyme/gomarket-storefront/internal/domain/listing"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/internal/domain/store"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogStub struct {
	mu      sync.Mutex
	fail    bool
	queries []string
}

func (c *catalogStub) setFail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}

func (c *catalogStub) FetchPage(_ context.Context, q filter.ListQuery) (listing.Page[models.Product], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, q.Encode())
	if c.fail {
		return listing.Page[models.Product]{}, &catalogapi.Error{Op: "products", Status: http.StatusServiceUnavailable, Err: catalogapi.ErrUpstream}
	}
	raw, _ := q.Get(filter.KeyPage)
	page, _ := strconv.Atoi(raw)
	return listing.Page[models.Product]{
		Items:       []models.Product{{ID: "p-tee", Slug: "tee", Name: "Tee"}},
		CurrentPage: max(page, 1),
		TotalPages:  3,
		TotalCount:  30,
	}, nil
}

func (c *catalogStub) lastQuery() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queries[len(c.queries)-1]
}

type productStub struct{}

var stubProducts = map[string]*models.Product{
	"tee": {ID: "p-tee", Slug: "tee", Variants: []models.Variant{
		{Color: "Red", Size: "S", Stock: 0, SKU: "RS"},
		{Color: "Red", Size: "M", Stock: 4, SKU: "RM"},
		{Color: "Blue", Size: "L", Stock: 1, SKU: "BL"},
	}},
	"pallet": {ID: "p-pallet", Slug: "pallet", StockQuantity: 1000, MinOrderQuantity: 50},
}

func (productStub) Product(_ context.Context, slug string) (*models.Product, error) {
	if p, ok := stubProducts[slug]; ok {
		return p, nil
	}
	return nil, &catalogapi.Error{Op: "product", Status: http.StatusNotFound, Err: catalogapi.ErrNotFound}
}

func (productStub) Suggest(_ context.Context, term string) ([]models.SearchSuggestion, error) {
	return []models.SearchSuggestion{{Slug: "tee", Name: term}}, nil
}

type memoryRepo struct {
	mu        sync.Mutex
	inquiries map[string]*models.BulkInquiry
	outbox    []models.OutboxRecord
}

func (r *memoryRepo) ListFilterOptions(context.Context) ([]models.FilterOptionRecord, error) {
	return []models.FilterOptionRecord{
		{GroupID: filter.GroupCategory, OptionID: "SKIN_CARE", Label: "Skin care", Position: 1},
		{GroupID: filter.GroupTags, OptionID: "New", Label: "New", Position: 1},
	}, nil
}

func (r *memoryRepo) SaveBulkInquiry(_ context.Context, inq *models.BulkInquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inquiries[inq.ID] = inq
	return nil
}

func (r *memoryRepo) GetBulkInquiry(_ context.Context, id string) (*models.BulkInquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inquiries[id], nil
}

func (r *memoryRepo) SaveOutbox(_ context.Context, rec *models.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outbox = append(r.outbox, *rec)
	return nil
}

func (r *memoryRepo) PendingOutbox(context.Context, int) ([]models.OutboxRecord, error) {
	return nil, nil
}

func (r *memoryRepo) MarkOutboxPublished(context.Context, string) error {
	return nil
}

type inlineTx struct{}

func (inlineTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type tokenStub struct{}

func (tokenStub) Authenticate(_ context.Context, token string) (*interfaces.Principal, error) {
	switch token {
	case "shopper":
		return &interfaces.Principal{UserID: "u1"}, nil
	case "admin":
		return &interfaces.Principal{UserID: "u2", Roles: []string{DefaultAdminRole}}, nil
	}
	return nil, errors.New("bad token")
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	catalog *catalogStub
	bus     *messaging.MemoryMessaging
	session *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewNop()

	catalog := &catalogStub{}
	repo := &memoryRepo{inquiries: map[string]*models.BulkInquiry{}}
	memCache := cache.NewMemoryCache(time.Minute)
	bus := messaging.NewMemoryMessaging(interfaces.ConsumerConfig{}, log)

	registry := store.NewRegistry(store.Fetchers{Products: catalog}, time.Minute, log)
	filters := services.NewFilterCatalogService(repo, 1000, time.Minute, log)
	storefront := services.NewStorefrontService(registry, filters, productStub{}, 0, log)
	carts := services.NewCartService(registry, productStub{}, cart.NewFactory(nil, memCache, time.Hour, log), repo, inlineTx{}, bus, "storefront-events", log)

	router := SetupRouter(Services{
		Storefront:    storefront,
		Carts:         carts,
		FilterCatalog: filters,
		Cache:         memCache,
		Auth:          tokenStub{},
	}, log, Options{PageSize: 10, SessionTTL: time.Hour, MetricsEnabled: true})

	return &testServer{t: t, handler: router, catalog: catalog, bus: bus}
}

// do выполняет запрос в одной сессии покупателя
func (s *testServer) do(method, target string, body interface{}, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if s.session != nil {
		req.AddCookie(s.session)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sf_session" {
			s.session = c
		}
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = s.do(http.MethodHead, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/swagger/doc.json", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/bulk-inquiries")
}

func TestListing(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/shop/sale?category=SKIN_CARE&page=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, s.session)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "category=SKIN_CARE&page=2", data["query"])
	chips := data["chips"].([]interface{})
	require.Len(t, chips, 1)
	assert.Equal(t, "Skin care", chips[0].(map[string]interface{})["label"])

	meta := body["meta"].(map[string]interface{})
	assert.EqualValues(t, 2, meta["page"])
	assert.EqualValues(t, 3, meta["total_pages"])
	assert.Equal(t, true, meta["has_next"])

	assert.Equal(t, "category=SKIN_CARE&onSale=true&page=2", s.catalog.lastQuery())

	rec = s.do(http.MethodGet, "/api/v1/shop/clearance", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListingUpstreamFailureAndRetry(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/shop/shop?tags=New", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	s.catalog.setFail(true)
	rec = s.do(http.MethodGet, "/api/v1/shop/shop?tags=New&page=2", nil, "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["retry"])
	assert.NotEmpty(t, body["message"])

	// предыдущие товары остаются в ответе вместе с ошибкой
	require.Contains(t, body, "data")
	result := body["data"].(map[string]interface{})["result"].(map[string]interface{})
	items := result["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "p-tee", items[0].(map[string]interface{})["id"])
	assert.NotEmpty(t, result["error"])
	assert.Equal(t, false, result["loading"])

	rec = s.do(http.MethodPost, "/api/v1/shop/shop/retry", nil, "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, true, body["retry"])
	assert.Len(t, body["data"].(map[string]interface{})["items"], 1)

	s.catalog.setFail(false)
	rec = s.do(http.MethodPost, "/api/v1/shop/shop/retry", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "tags=New&page=2", s.catalog.lastQuery())
}

func TestFilterIntentsRedirect(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		target   string
		body     interface{}
		location string
	}{
		{
			name:     "toggle resets page",
			target:   "/api/v1/shop/shop/filters?category=SKIN_CARE&page=3",
			body:     map[string]interface{}{"group_id": "tags", "option_id": "New", "checked": true},
			location: "/api/v1/shop/shop?category=SKIN_CARE&tags=New&page=1",
		},
		{
			name:     "page keeps filters",
			target:   "/api/v1/shop/shop/page?tags=New&page=1",
			body:     map[string]interface{}{"page": 4},
			location: "/api/v1/shop/shop?tags=New&page=4",
		},
		{
			name:     "price",
			target:   "/api/v1/shop/sale/price",
			body:     map[string]interface{}{"min": 0, "max": 300},
			location: "/api/v1/shop/sale?maxPrice=300&page=1",
		},
		{
			name:     "clear",
			target:   "/api/v1/shop/sale/clear?category=SKIN_CARE&page=2",
			location: "/api/v1/shop/sale",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, tt.target, tt.body, "")
			require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestFilterIntentsRejected(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/shop/shop/price", map[string]interface{}{"min": 500, "max": 100}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/shop/shop/filters", map[string]interface{}{"group_id": "brand", "option_id": "x", "checked": true}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/shop/shop/page", map[string]interface{}{"page": 0}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/shop/clearance/clear", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductSelection(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/products/missing", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/shop", decode(t, rec)["back"])

	rec = s.do(http.MethodPost, "/api/v1/products/tee/selection", map[string]interface{}{"color": "Red", "size": "M", "quantity": 2}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sel := decode(t, rec)["data"].(map[string]interface{})["selection"].(map[string]interface{})
	assert.Equal(t, "RM", sel["sku"])
	assert.EqualValues(t, 2, sel["quantity"])

	rec = s.do(http.MethodPost, "/api/v1/products/tee/selection", map[string]interface{}{"color": "Green"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/cart", map[string]interface{}{"slug": "tee", "color": "Red", "size": "S", "quantity": 1}, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "This item is out of stock.", decode(t, rec)["message"])

	rec = s.do(http.MethodPost, "/api/v1/cart", map[string]interface{}{"slug": "pallet", "quantity": 60}, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "/bulk-inquiries", decode(t, rec)["redirect"])

	rec = s.do(http.MethodPost, "/api/v1/cart", map[string]interface{}{"slug": "tee", "color": "Red", "size": "M", "quantity": 2}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	value := decode(t, rec)["data"].(map[string]interface{})["value"].(map[string]interface{})
	assert.EqualValues(t, 2, value["total_count"])

	rec = s.do(http.MethodGet, "/api/v1/cart", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	value = decode(t, rec)["data"].(map[string]interface{})["value"].(map[string]interface{})
	assert.EqualValues(t, 2, value["total_count"])

	rec = s.do(http.MethodDelete, "/api/v1/cart/p-tee", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	value = decode(t, rec)["data"].(map[string]interface{})["value"].(map[string]interface{})
	assert.EqualValues(t, 0, value["total_count"])

	assert.Len(t, s.bus.Published("storefront-events"), 2)
}

func TestWishlistFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/wishlist", map[string]interface{}{"product_id": "p-tee", "sku_variant": "RM"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/wishlist", nil, "")
	value := decode(t, rec)["data"].(map[string]interface{})["value"].(map[string]interface{})
	assert.EqualValues(t, 1, value["total_count"])

	rec = s.do(http.MethodDelete, "/api/v1/wishlist/p-tee?sku=RM", nil, "")
	value = decode(t, rec)["data"].(map[string]interface{})["value"].(map[string]interface{})
	assert.EqualValues(t, 0, value["total_count"])

	rec = s.do(http.MethodPost, "/api/v1/wishlist", map[string]interface{}{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkInquiryAndAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/bulk-inquiries", map[string]interface{}{
		"slug": "pallet", "quantity": 60, "contact_name": "Ann", "contact_email": "ann@example.com",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["data"].(map[string]interface{})["id"].(string)

	rec = s.do(http.MethodPost, "/api/v1/bulk-inquiries", map[string]interface{}{
		"slug": "pallet", "quantity": 60, "contact_name": "Ann", "contact_email": "not-an-email",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/admin/bulk-inquiries/"+id, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/admin/bulk-inquiries/"+id, nil, "shopper")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/admin/bulk-inquiries/"+id, nil, "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 60, decode(t, rec)["data"].(map[string]interface{})["quantity"])

	rec = s.do(http.MethodPost, "/api/v1/admin/filter-catalog/invalidate", nil, "admin")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodPost, "/api/v1/admin/products/tee/invalidate", nil, "admin")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/cart", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSuggest(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/search/suggest?q=a", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["data"])

	rec = s.do(http.MethodGet, "/api/v1/search/suggest?q=tee", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"].([]interface{}), 1)
}
