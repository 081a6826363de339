package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/domain/filter"
	"github.com/athebyme/gomarket-storefront/internal/domain/listing"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 4 << 20
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUpstream     = errors.New("catalog request failed")
	ErrUnauthorized = errors.New("catalog rejected credentials")
)

// Error ошибка обращения к каталогу
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage текст ошибки для покупателя
func (e *Error) UserMessage() string {
	switch {
	case errors.Is(e.Err, ErrNotFound):
		return "We couldn't find what you were looking for."
	case errors.Is(e.Err, ErrUnauthorized):
		return "Please sign in again."
	case errors.Is(e.Err, context.DeadlineExceeded):
		return "The catalog took too long to respond. Please try again."
	default:
		return "Something went wrong while loading products. Please try again."
	}
}

// Client клиент REST API каталога
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  interfaces.LoggerPort
}

// New создает клиента каталога
func New(baseURL string, timeout time.Duration, logger interfaces.LoggerPort) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog url must be absolute: %q", baseURL)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// FetchProducts реализует listing.Fetcher для товаров
func (c *Client) FetchProducts(ctx context.Context, q filter.ListQuery) (listing.Page[models.Product], error) {
	var page listing.Page[models.Product]
	err := fetchList(ctx, c, "products", "/products", q, &page)
	return page, err
}

// Product возвращает товар по slug
func (c *Client) Product(ctx context.Context, slug string) (*models.Product, error) {
	var env struct {
		Product *models.Product `json:"product"`
	}
	raw, err := c.do(ctx, "product", http.MethodGet, "/products/"+url.PathEscape(slug), "", "", nil)
	if err != nil {
		return nil, err
	}
	// каталог отдает товар либо напрямую в data, либо в data.product
	if err := json.Unmarshal(raw, &env); err == nil && env.Product != nil {
		return env.Product, nil
	}
	var p models.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &Error{Op: "product", Err: fmt.Errorf("%w: decode: %v", ErrUpstream, err)}
	}
	if p.ID == "" && p.Slug == "" {
		return nil, &Error{Op: "product", Status: http.StatusNotFound, Err: ErrNotFound}
	}
	return &p, nil
}

// Suggest возвращает подсказки поиска
func (c *Client) Suggest(ctx context.Context, term string) ([]models.SearchSuggestion, error) {
	var page listing.Page[models.SearchSuggestion]
	q := filter.ListQuery{{Key: "q", Values: []string{term}}}
	if err := fetchList(ctx, c, "suggest", "/products/search", q, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// FetchBlogs реализует listing.Fetcher для блога
func (c *Client) FetchBlogs(ctx context.Context, q filter.ListQuery) (listing.Page[models.BlogPost], error) {
	var page listing.Page[models.BlogPost]
	err := fetchList(ctx, c, "blogs", "/blogs", q, &page)
	return page, err
}

// FetchTestimonials реализует listing.Fetcher для отзывов
func (c *Client) FetchTestimonials(ctx context.Context, q filter.ListQuery) (listing.Page[models.Testimonial], error) {
	var page listing.Page[models.Testimonial]
	err := fetchList(ctx, c, "testimonials", "/testimonials", q, &page)
	return page, err
}

// GetCart реализует cart.RemoteAPI
func (c *Client) GetCart(ctx context.Context, token string) (models.CartSnapshot, error) {
	return c.cartCall(ctx, "cart_get", http.MethodGet, "/cart", token, nil)
}

// AddToCart реализует cart.RemoteAPI
func (c *Client) AddToCart(ctx context.Context, token string, line models.CartLine) (models.CartSnapshot, error) {
	return c.cartCall(ctx, "cart_add", http.MethodPost, "/cart", token, line)
}

// RemoveFromCart реализует cart.RemoteAPI
func (c *Client) RemoveFromCart(ctx context.Context, token, productID, sku string) (models.CartSnapshot, error) {
	return c.cartCall(ctx, "cart_remove", http.MethodDelete, "/cart", token, models.CartLine{ProductID: productID, SKU: sku})
}

// GetWishlist реализует cart.RemoteAPI
func (c *Client) GetWishlist(ctx context.Context, token string) (models.WishlistSnapshot, error) {
	return c.wishlistCall(ctx, "wishlist_get", http.MethodGet, "/wishlist", token, nil)
}

// AddToWishlist реализует cart.RemoteAPI
func (c *Client) AddToWishlist(ctx context.Context, token string, entry models.WishlistEntry) (models.WishlistSnapshot, error) {
	return c.wishlistCall(ctx, "wishlist_add", http.MethodPost, "/wishlist", token, entry)
}

// RemoveFromWishlist реализует cart.RemoteAPI
func (c *Client) RemoveFromWishlist(ctx context.Context, token, productID, sku string) (models.WishlistSnapshot, error) {
	return c.wishlistCall(ctx, "wishlist_remove", http.MethodDelete, "/wishlist", token, models.WishlistEntry{ProductID: productID, SKU: sku})
}

func (c *Client) cartCall(ctx context.Context, op, method, path, token string, body interface{}) (models.CartSnapshot, error) {
	raw, err := c.do(ctx, op, method, path, "", token, body)
	if err != nil {
		return models.CartSnapshot{}, err
	}
	var p collection
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.CartSnapshot{}, &Error{Op: op, Err: fmt.Errorf("%w: decode: %v", ErrUpstream, err)}
	}
	lines := []models.CartLine{}
	if err := p.decodeItems(&lines); err != nil {
		return models.CartSnapshot{}, &Error{Op: op, Err: fmt.Errorf("%w: decode items: %v", ErrUpstream, err)}
	}
	snap := models.CartSnapshot{Lines: lines, TotalCount: p.total()}
	if snap.TotalCount == 0 {
		for _, l := range lines {
			snap.TotalCount += l.Quantity
		}
	}
	return snap, nil
}

func (c *Client) wishlistCall(ctx context.Context, op, method, path, token string, body interface{}) (models.WishlistSnapshot, error) {
	raw, err := c.do(ctx, op, method, path, "", token, body)
	if err != nil {
		return models.WishlistSnapshot{}, err
	}
	var p collection
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.WishlistSnapshot{}, &Error{Op: op, Err: fmt.Errorf("%w: decode: %v", ErrUpstream, err)}
	}
	entries := []models.WishlistEntry{}
	if err := p.decodeItems(&entries); err != nil {
		return models.WishlistSnapshot{}, &Error{Op: op, Err: fmt.Errorf("%w: decode items: %v", ErrUpstream, err)}
	}
	snap := models.WishlistSnapshot{Entries: entries, TotalCount: p.total()}
	if snap.TotalCount == 0 {
		snap.TotalCount = len(entries)
	}
	return snap, nil
}

// fetchList выполняет GET и разбирает список с учетом разных имен полей
func fetchList[T any](ctx context.Context, c *Client, op, path string, q filter.ListQuery, page *listing.Page[T]) error {
	raw, err := c.do(ctx, op, http.MethodGet, path, q.Encode(), "", nil)
	if err != nil {
		return err
	}
	var p collection
	if err := json.Unmarshal(raw, &p); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("%w: decode: %v", ErrUpstream, err)}
	}
	items := []T{}
	if err := p.decodeItems(&items); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("%w: decode items: %v", ErrUpstream, err)}
	}
	page.Items = items
	page.CurrentPage = max(p.CurrentPage, 1)
	page.TotalPages = p.TotalPages
	page.TotalCount = p.total()
	if page.TotalCount == 0 {
		page.TotalCount = len(items)
	}
	return nil
}

// do выполняет запрос и возвращает содержимое поля data
func (c *Client) do(ctx context.Context, op, method, path, rawQuery, token string, body interface{}) (json.RawMessage, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = rawQuery

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID, _ := ctx.Value(interfaces.RequestIDKey).(string)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observe(op, "error", start)
		c.logger.WarnWithContext(ctx, "Каталог недоступен",
			interfaces.LogField{Key: "op", Value: op},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
		cause := ErrUpstream
		if errors.Is(err, context.DeadlineExceeded) {
			cause = fmt.Errorf("%w: %w", ErrUpstream, context.DeadlineExceeded)
		}
		return nil, &Error{Op: op, Err: cause}
	}
	defer resp.Body.Close()
	observe(op, strconv.Itoa(resp.StatusCode), start)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%w: read body: %v", ErrUpstream, err)}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &Error{Op: op, Status: resp.StatusCode, Err: ErrNotFound}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &Error{Op: op, Status: resp.StatusCode, Err: ErrUnauthorized}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.WarnWithContext(ctx, "Каталог вернул ошибку",
			interfaces.LogField{Key: "op", Value: op},
			interfaces.LogField{Key: "status", Value: resp.StatusCode},
		)
		return nil, &Error{Op: op, Status: resp.StatusCode, Err: ErrUpstream}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%w: decode envelope: %v", ErrUpstream, err)}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		// ответ без обертки data
		return data, nil
	}
	return env.Data, nil
}
