package api

import (
	"net/http"
	"time"

	_ "github.com/athebyme/gomarket-storefront/internal/api/docs"
	"github.com/athebyme/gomarket-storefront/internal/api/handlers"
	"github.com/athebyme/gomarket-storefront/internal/api/middleware"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/pkg/auth"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// DefaultAdminRole роль для служебных маршрутов
const DefaultAdminRole = "storefront-admin"

// Options параметры HTTP слоя
type Options struct {
	CORSAllowedOrigins []string
	SessionCookie      string
	SessionTTL         time.Duration
	SecureCookies      bool
	PageSize           int
	RequestTimeout     time.Duration
	RateLimit          int
	AdminRole          string
	MetricsEnabled     bool
	MetricsEndpoint    string
}

// Services сценарии и адаптеры, которые обслуживает API
type Services struct {
	Storefront    *services.StorefrontService
	Carts         *services.CartService
	FilterCatalog *services.FilterCatalogService
	Cache         interfaces.CachePort
	Auth          interfaces.AuthPort   // nil отключает проверку токенов
	OIDC          handlers.OIDCProvider // nil отключает вход через Keycloak
}

// SetupRouter настраивает маршрутизатор
func SetupRouter(svc Services, logger interfaces.LoggerPort, opts Options) *chi.Mux {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.AdminRole == "" {
		opts.AdminRole = DefaultAdminRole
	}
	if opts.MetricsEndpoint == "" {
		opts.MetricsEndpoint = "/metrics"
	}

	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(chimiddleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.CORS(opts.CORSAllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RateLimiter(opts.RateLimit, time.Minute))

	r.Method(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	r.Method(http.MethodHead, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if opts.MetricsEnabled {
		r.Handle(opts.MetricsEndpoint, promhttp.Handler())
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(opts.SessionCookie, opts.SessionTTL, opts.SecureCookies))
		r.Use(auth.Authenticate(svc.Auth, logger))

		shopHandler := handlers.NewShopHandler(svc.Storefront, opts.PageSize, logger)
		productHandler := handlers.NewProductHandler(svc.Storefront, logger)
		cartHandler := handlers.NewCartHandler(svc.Carts, logger)
		contentHandler := handlers.NewContentHandler(svc.Storefront, opts.PageSize, logger)

		// Списки витрины
		r.Get("/shop", shopHandler.Contexts)
		r.Get("/filters", shopHandler.FilterCatalog)
		r.Route("/shop/{context}", func(r chi.Router) {
			r.Get("/", shopHandler.Listing)
			r.Post("/filters", shopHandler.ToggleFilter)
			r.Post("/price", shopHandler.ApplyPrice)
			r.Post("/page", shopHandler.ChangePage)
			r.Post("/search", shopHandler.Search)
			r.Post("/clear", shopHandler.ClearFilters)
			r.Post("/retry", shopHandler.Retry)
		})
		r.Get("/search/suggest", shopHandler.Suggest)

		// Страница товара
		r.Route("/products/{slug}", func(r chi.Router) {
			r.Get("/", productHandler.GetProduct)
			r.Post("/selection", productHandler.UpdateSelection)
		})

		// Корзина и избранное
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/", cartHandler.AddToCart)
			r.Delete("/{productID}", cartHandler.RemoveFromCart)
		})
		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", cartHandler.GetWishlist)
			r.Post("/", cartHandler.AddToWishlist)
			r.Delete("/{productID}", cartHandler.RemoveFromWishlist)
		})
		r.Post("/bulk-inquiries", cartHandler.CreateBulkInquiry)

		// Контент
		r.Get("/blogs", contentHandler.Blogs)
		r.Get("/testimonials", contentHandler.Testimonials)

		if svc.OIDC != nil {
			authHandler := handlers.NewAuthHandler(svc.OIDC, opts.SecureCookies, logger)
			r.Get("/auth/login", authHandler.Login)
			r.Get("/auth/callback", authHandler.Callback)
		}

		// Служебные операции
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(opts.AdminRole))

			adminHandler := handlers.NewAdminHandler(svc.FilterCatalog, svc.Cache, logger)
			r.Post("/filter-catalog/invalidate", adminHandler.InvalidateFilterCatalog)
			r.Post("/products/{slug}/invalidate", adminHandler.InvalidateProduct)
			r.Get("/bulk-inquiries/{id}", cartHandler.GetBulkInquiry)
		})
	})

	return r
}
