// Package app собирает зависимости витрины из конфигурации. Используется API, воркером и shopctl.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athebyme/gomarket-storefront/config"
	"github.com/athebyme/gomarket-storefront/internal/adapters/cache"
	"github.com/athebyme/gomarket-storefront/internal/adapters/catalogapi"
	"github.com/athebyme/gomarket-storefront/internal/adapters/messaging"
	"github.com/athebyme/gomarket-storefront/internal/adapters/storage"
	"github.com/athebyme/gomarket-storefront/internal/domain/cart"
	"github.com/athebyme/gomarket-storefront/internal/domain/listing"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/internal/domain/store"
	"github.com/athebyme/gomarket-storefront/internal/infrastructure/postgres"
	"github.com/athebyme/gomarket-storefront/internal/security"
	"github.com/athebyme/gomarket-storefront/pkg/auth"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/athebyme/gomarket-storefront/pkg/tx"
)

const checkTimeout = 5 * time.Second

// Infrastructure внешние зависимости процесса
type Infrastructure struct {
	Storage   postgres.Port // nil, если PostgreSQL отключен
	TxManager tx.TxManager
	Cache     interfaces.CachePort
	Messaging interfaces.MessagingPort
	Catalog   *catalogapi.CachedClient

	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// Repository хранилище витрины или nil, если PostgreSQL отключен
func (i *Infrastructure) Repository() postgres.Repository {
	if i.Storage == nil {
		return nil
	}
	return i.Storage
}

// Close закрывает зависимости в обратном порядке
func (i *Infrastructure) Close(log interfaces.LoggerPort) {
	for n := len(i.closers) - 1; n >= 0; n-- {
		c := i.closers[n]
		if err := c.close(); err != nil {
			log.Error("Ошибка при закрытии зависимости",
				interfaces.LogField{Key: "dependency", Value: c.name},
				interfaces.LogField{Key: "error", Value: err.Error()},
			)
		}
	}
	i.closers = nil
}

func (i *Infrastructure) onClose(name string, fn func() error) {
	i.closers = append(i.closers, namedCloser{name: name, close: fn})
}

// NewInfrastructure подключает хранилище, кэш, брокер и клиента каталога.
// Отключенные в конфигурации PostgreSQL, Redis и Kafka заменяются реализациями в памяти процесса.
func NewInfrastructure(ctx context.Context, cfg *config.Config, log interfaces.LoggerPort) (*Infrastructure, error) {
	infra := &Infrastructure{}
	fail := func(err error) (*Infrastructure, error) {
		infra.Close(log)
		return nil, err
	}

	if cfg.Postgres.Enabled {
		connString, err := cfg.PostgresConnString()
		if err != nil {
			return fail(err)
		}
		db, err := storage.NewPostgresStorage(ctx, connString)
		if err != nil {
			return fail(err)
		}
		infra.onClose("postgres", db.Close)

		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		if err := checkStorage(checkCtx, db); err != nil {
			return fail(err)
		}
		if err := db.EnsureSchema(checkCtx); err != nil {
			return fail(err)
		}
		infra.Storage = db
		infra.TxManager = tx.NewTxManager(db.Pool(), log)
		log.Info("Хранилище инициализировано")
	} else {
		log.Warn("PostgreSQL отключен, оптовые заявки недоступны")
	}

	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PoolTimeout:  cfg.Redis.PoolTimeout,
			IdleTimeout:  cfg.Redis.IdleTimeout,
			Prefix:       cfg.Redis.Prefix,
		})
		if err != nil {
			return fail(err)
		}
		infra.Cache = redisCache

		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		if err := checkCache(checkCtx, redisCache); err != nil {
			redisCache.Close()
			return fail(err)
		}
		log.Info("Кэш Redis инициализирован")
	} else {
		infra.Cache = cache.NewMemoryCache(time.Minute)
		log.Info("Кэш в памяти процесса инициализирован")
	}
	infra.onClose("cache", infra.Cache.Close)

	consumerCfg := interfaces.ConsumerConfig{
		GroupID:         cfg.Kafka.GroupID,
		PollTimeout:     cfg.Kafka.PollTimeout,
		MaxAttempts:     cfg.Kafka.MaxAttempts,
		RetryBackoff:    cfg.Kafka.RetryBackoff,
		DeadLetterTopic: cfg.Kafka.DeadLetterTopic,
	}
	if cfg.Kafka.Enabled {
		bus, err := messaging.NewKafkaMessaging(cfg.Kafka.Brokers, interfaces.ProducerConfig{
			ClientID:     cfg.AppName,
			LingerMs:     time.Duration(cfg.Kafka.LingerMs) * time.Millisecond,
			Compression:  cfg.Kafka.CompressionType,
			RequiredAcks: cfg.Kafka.RequiredAcks,
			RetryBackoff: cfg.Kafka.RetryBackoff,
			MaxRetries:   cfg.Kafka.MaxRetries,
		}, consumerCfg, log)
		if err != nil {
			return fail(err)
		}
		infra.Messaging = bus
		log.Info("Система обмена сообщениями инициализирована")
	} else {
		infra.Messaging = messaging.NewMemoryMessaging(consumerCfg, log)
		log.Info("Шина событий в памяти процесса инициализирована")
	}
	infra.onClose("messaging", infra.Messaging.Close)

	client, err := catalogapi.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, log)
	if err != nil {
		return fail(err)
	}
	infra.Catalog = catalogapi.NewCachedClient(client, infra.Cache, cfg.Shop.ListingCacheTTL, cfg.Shop.ProductCacheTTL, log)

	return infra, nil
}

// Services сценарии витрины поверх инфраструктуры
type Services struct {
	Sessions      *store.Registry
	FilterCatalog *services.FilterCatalogService
	Storefront    *services.StorefrontService
	Carts         *services.CartService
}

// NewServices собирает сценарии витрины
func NewServices(cfg *config.Config, infra *Infrastructure, log interfaces.LoggerPort) *Services {
	var source services.FilterOptionSource
	if repo := infra.Repository(); repo != nil {
		source = repo
	}

	sessions := store.NewRegistry(store.Fetchers{
		Products:     listing.FetcherFunc[models.Product](infra.Catalog.FetchProducts),
		Blogs:        listing.FetcherFunc[models.BlogPost](infra.Catalog.FetchBlogs),
		Testimonials: listing.FetcherFunc[models.Testimonial](infra.Catalog.FetchTestimonials),
	}, cfg.Session.TTL, log)

	filterCatalog := services.NewFilterCatalogService(source, cfg.Shop.PriceCeiling, cfg.Shop.FilterCatalogTTL, log)
	stores := cart.NewFactory(infra.Catalog, infra.Cache, cfg.Session.GuestCartTTL, log)

	return &Services{
		Sessions:      sessions,
		FilterCatalog: filterCatalog,
		Storefront:    services.NewStorefrontService(sessions, filterCatalog, infra.Catalog, cfg.Shop.PriceDebounce, log),
		Carts: services.NewCartService(
			sessions,
			infra.Catalog,
			stores,
			infra.Repository(),
			infra.TxManager,
			infra.Messaging,
			cfg.Kafka.StorefrontEvents,
			log,
		),
	}
}

// KeycloakClient клиент Keycloak или nil, если вход через Keycloak отключен
func KeycloakClient(ctx context.Context, cfg *config.Config) (*auth.KeycloakClient, error) {
	if !cfg.Keycloak.Enabled {
		return nil, nil
	}
	return auth.NewKeycloakClient(ctx, cfg.Keycloak.GetKeycloakConfig())
}

// Authenticator цепочка проверки токенов: собственные JWT, затем Keycloak.
// Возвращает nil, если ни один способ не настроен.
func Authenticator(cfg *config.Config, keycloak *auth.KeycloakClient) (interfaces.AuthPort, error) {
	var chain []interfaces.AuthPort
	if cfg.Security.JWTSecret != "" {
		jwtManager, err := security.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpiration, cfg.Security.JWTIssuer)
		if err != nil {
			return nil, err
		}
		chain = append(chain, jwtManager)
	}
	if keycloak != nil {
		chain = append(chain, keycloak)
	}

	svc := security.NewAuthService(chain...)
	if !svc.Enabled() {
		return nil, nil
	}
	return svc, nil
}

func checkStorage(ctx context.Context, db interfaces.StoragePort) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres is unavailable: %w", err)
	}
	return nil
}

// checkCache проверяет запись, чтение и удаление тестового ключа
func checkCache(ctx context.Context, c interfaces.CachePort) error {
	testKey := "test:connection"
	testValue := []byte("test-value")

	if err := c.Set(ctx, testKey, testValue, 10*time.Second); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	value, err := c.Get(ctx, testKey)
	if err != nil {
		return fmt.Errorf("failed to read from cache: %w", err)
	}
	if string(value) != string(testValue) {
		return errors.New("cache returned unexpected value")
	}
	if err := c.Delete(ctx, testKey); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}
