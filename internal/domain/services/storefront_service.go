package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/domain/filter"
	"github.com/athebyme/gomarket-storefront/internal/domain/listing"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/domain/shop"
	"github.com/athebyme/gomarket-storefront/internal/domain/store"
	"github.com/athebyme/gomarket-storefront/internal/domain/variant"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// ProductSource товары и подсказки каталога
type ProductSource interface {
	Product(ctx context.Context, slug string) (*models.Product, error)
	Suggest(ctx context.Context, term string) ([]models.SearchSuggestion, error)
}

// ListingView представление списка витрины
type ListingView struct {
	Context  shop.ListingContext            `json:"context"`
	Result   listing.Result[models.Product] `json:"result"`
	Chips    []shop.Chip                    `json:"chips"`
	Catalog  *filter.Catalog                `json:"catalog"`
	Query    string                         `json:"query"`
	PriceMin int                            `json:"price_min"`
	PriceMax int                            `json:"price_max"`
	Search   string                         `json:"search,omitempty"`
}

// ProductView представление страницы товара
type ProductView struct {
	Product   *models.Product `json:"product"`
	Selection variant.View    `json:"selection"`
}

// SelectionChange изменение выбора на странице товара. Пустые поля не меняются.
type SelectionChange struct {
	Color    string `json:"color,omitempty"`
	Size     string `json:"size,omitempty"`
	Quantity *int   `json:"quantity,omitempty"`
	Step     string `json:"step,omitempty"` // inc или dec
}

// Шаги изменения количества
const (
	StepIncrement = "inc"
	StepDecrement = "dec"
)

// StorefrontService предоставляет сценарии витрины поверх сессий покупателей
type StorefrontService struct {
	sessions      *store.Registry
	catalog       *FilterCatalogService
	products      ProductSource
	priceDebounce time.Duration
	logger        interfaces.LoggerPort
}

// NewStorefrontService создает новый экземпляр StorefrontService
func NewStorefrontService(sessions *store.Registry, catalog *FilterCatalogService, products ProductSource, priceDebounce time.Duration, logger interfaces.LoggerPort) *StorefrontService {
	return &StorefrontService{
		sessions:      sessions,
		catalog:       catalog,
		products:      products,
		priceDebounce: priceDebounce,
		logger:        logger,
	}
}

// Sessions возвращает реестр сессий
func (s *StorefrontService) Sessions() *store.Registry {
	return s.sessions
}

// FilterCatalog возвращает справочник фильтров
func (s *StorefrontService) FilterCatalog(ctx context.Context) *filter.Catalog {
	return s.catalog.Catalog(ctx)
}

// Controller создает контроллер списка для адреса. Вызывающий обязан закрыть контроллер.
func (s *StorefrontService) Controller(ctx context.Context, location shop.Location, navigator shop.Navigator) *shop.Controller {
	return shop.NewController(s.catalog.Catalog(ctx), location, navigator, s.logger, s.priceDebounce)
}

// Listing загружает страницу списка контекста витрины для текущего адреса.
// Ошибка каталога не прерывает сценарий: она попадает в Result.Error, прежние элементы сохраняются.
func (s *StorefrontService) Listing(ctx context.Context, sessionID, contextName string, location shop.Location) (ListingView, error) {
	lc, ok := shop.LookupContext(contextName)
	if !ok {
		return ListingView{}, fmt.Errorf("%w: %s", shop.ErrUnknownContext, contextName)
	}
	sess := s.sessions.GetOrCreate(sessionID)
	client, _ := sess.Listing(lc.Name)

	catalog := s.catalog.Catalog(ctx)
	sel := filter.Decode(location.RawQuery(), catalog)
	q := filter.Encode(sel, catalog)

	result, err := client.Fetch(ctx, q)
	view := ListingView{
		Context:  lc,
		Result:   result,
		Chips:    shop.AppliedFilters(sel, catalog),
		Catalog:  catalog,
		Query:    q.Encode(),
		PriceMin: sel.Price.Min,
		PriceMax: sel.Price.Max,
		Search:   sel.Search,
	}
	return view, err
}

// RetryListing повторяет последний запрос списка по явной просьбе покупателя
func (s *StorefrontService) RetryListing(ctx context.Context, sessionID, contextName string) (listing.Result[models.Product], error) {
	lc, ok := shop.LookupContext(contextName)
	if !ok {
		return listing.Result[models.Product]{}, fmt.Errorf("%w: %s", shop.ErrUnknownContext, contextName)
	}
	client, _ := s.sessions.GetOrCreate(sessionID).Listing(lc.Name)
	return client.Retry(ctx)
}

// Product загружает товар в выбор сессии. Выбор сбрасывается только при смене товара.
func (s *StorefrontService) Product(ctx context.Context, sessionID, slug string) (ProductView, error) {
	p, err := s.products.Product(ctx, slug)
	if err != nil {
		return ProductView{}, fmt.Errorf("failed to load product %s: %w", slug, err)
	}

	sel := s.sessions.GetOrCreate(sessionID).Product
	if sel.Load(p) {
		s.logger.DebugWithContext(ctx, "Выбор товара сброшен", interfaces.LogField{Key: "slug", Value: slug})
	}
	return ProductView{Product: p, Selection: sel.View()}, nil
}

// UpdateSelection применяет изменение выбора цвета, размера или количества
func (s *StorefrontService) UpdateSelection(ctx context.Context, sessionID, slug string, change SelectionChange) (ProductView, error) {
	sel := s.sessions.GetOrCreate(sessionID).Product
	if p := sel.Product(); p == nil || p.Slug != slug {
		if _, err := s.Product(ctx, sessionID, slug); err != nil {
			return ProductView{}, err
		}
	}

	if change.Color != "" {
		if err := sel.SelectColor(change.Color); err != nil {
			return ProductView{}, err
		}
	}
	if change.Size != "" {
		if err := sel.SelectSize(change.Size); err != nil {
			return ProductView{}, err
		}
	}
	if change.Quantity != nil {
		sel.SetQuantity(*change.Quantity)
	}
	switch change.Step {
	case StepIncrement:
		sel.Increment()
	case StepDecrement:
		sel.Decrement()
	case "":
	default:
		return ProductView{}, fmt.Errorf("unknown quantity step %q", change.Step)
	}

	return ProductView{Product: sel.Product(), Selection: sel.View()}, nil
}

// Suggest возвращает подсказки поиска; короткий запрос дает пустой список без обращения к каталогу
func (s *StorefrontService) Suggest(ctx context.Context, term string) ([]models.SearchSuggestion, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < shop.MinSearchLength {
		return []models.SearchSuggestion{}, nil
	}
	results, err := s.products.Suggest(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest %q: %w", term, err)
	}
	if results == nil {
		results = []models.SearchSuggestion{}
	}
	return results, nil
}

// Blogs возвращает страницу блога
func (s *StorefrontService) Blogs(ctx context.Context, sessionID string, page int) (listing.Result[models.BlogPost], error) {
	client := s.sessions.GetOrCreate(sessionID).Blog
	if client == nil {
		return listing.Result[models.BlogPost]{}, fmt.Errorf("blog listing is not configured")
	}
	return client.Fetch(ctx, pageQuery(page))
}

// Testimonials возвращает страницу отзывов
func (s *StorefrontService) Testimonials(ctx context.Context, sessionID string, page int) (listing.Result[models.Testimonial], error) {
	client := s.sessions.GetOrCreate(sessionID).Testimonials
	if client == nil {
		return listing.Result[models.Testimonial]{}, fmt.Errorf("testimonials listing is not configured")
	}
	return client.Fetch(ctx, pageQuery(page))
}

func pageQuery(page int) filter.ListQuery {
	if page < 1 {
		page = 1
	}
	return filter.ListQuery{{Key: filter.KeyPage, Values: []string{strconv.Itoa(page)}}}
}
