package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/utils"
	"github.com/spf13/viper"
)

// Config содержит все настройки сервиса
type Config struct {
	AppName  string
	Version  string
	LogLevel string
	ENV      string

	Server struct {
		Host            string
		Port            int
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		RequestTimeout  time.Duration
		RateLimit       int // запросов в минуту с одного адреса, 0 отключает ограничение
	}

	Postgres struct {
		Enabled  bool
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
		SSLMode  string
		Timeout  time.Duration
		PoolSize int // размер пула соединений
	}

	Redis struct {
		Enabled      bool
		Host         string
		Port         int
		Password     string
		DB           int
		Prefix       string
		PoolSize     int           // размер пула соединений
		MinIdleConns int           // минимальное количество неактивных соединений
		DialTimeout  time.Duration // таймаут соединения
		ReadTimeout  time.Duration // таймаут чтения
		WriteTimeout time.Duration // таймаут записи
		PoolTimeout  time.Duration // таймаут ожидания соединения из пула
		IdleTimeout  time.Duration // таймаут неактивного соединения
		MaxRetries   int           // максимальное количество повторных попыток
	}

	Kafka struct {
		Enabled          bool
		Brokers          []string
		GroupID          string
		StorefrontEvents string // события витрины
		CatalogEvents    string // события каталога для сброса кэша
		DeadLetterTopic  string
		PollTimeout      time.Duration
		MaxAttempts      int
		RetryBackoff     time.Duration
		MaxRetries       int
		LingerMs         int
		CompressionType  string
		RequiredAcks     string
	}

	Metrics struct {
		Enabled  bool
		Endpoint string
		Port     int // порт HTTP сервера метрик воркера
	}

	Security struct {
		JWTSecret        string
		JWTExpiration    time.Duration
		JWTIssuer        string
		CORSAllowOrigins []string
		SecureCookies    bool
		AdminRole        string
	}

	Keycloak KeycloakConfig

	Upstream struct {
		BaseURL string
		Timeout time.Duration
	}

	Shop struct {
		PriceCeiling     int
		PageSize         int
		PriceDebounce    time.Duration
		SearchDebounce   time.Duration
		ListingCacheTTL  time.Duration
		ProductCacheTTL  time.Duration
		FilterCatalogTTL time.Duration
	}

	Session struct {
		CookieName   string
		TTL          time.Duration
		GuestCartTTL time.Duration
	}

	Worker struct {
		OutboxInterval time.Duration
		OutboxBatch    int
	}
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	configFile := "config"
	if configPath != "" {
		configFile = configPath
	}

	var cfg Config
	v := viper.New()

	// Настройка Viper
	if strings.HasSuffix(configFile, ".yaml") || strings.HasSuffix(configFile, ".yml") {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFile)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("../config")
		v.AddConfigPath("../../config")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Чтение конфигурационного файла
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
		// Продолжаем, если файл не найден, будем использовать только переменные окружения
	}

	// Установка значений по умолчанию
	setDefaults(v)

	// Привязка переменных окружения
	bindEnvVariables(v)

	// Чтение конфигурации в структуру
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка десериализации конфигурации: %w", err)
	}

	if cfg.ENV == "" {
		cfg.ENV = "development"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsProduction сообщает, запущен ли сервис в боевом окружении
func (c *Config) IsProduction() bool {
	return c.ENV == "production"
}

// PostgresConnString собирает строку подключения к PostgreSQL
func (c *Config) PostgresConnString() (string, error) {
	return utils.GenerateConnectionString(utils.ConnOptions{
		Host:            c.Postgres.Host,
		Port:            c.Postgres.Port,
		User:            c.Postgres.User,
		Password:        c.Postgres.Password,
		DBName:          c.Postgres.DBName,
		SSLMode:         c.Postgres.SSLMode,
		ApplicationName: c.AppName,
		PoolSize:        c.Postgres.PoolSize,
		Timeout:         c.Postgres.Timeout,
	})
}

// Validate проверяет значения, без которых сервис не может работать
func (c *Config) Validate() error {
	var errs []error
	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("upstream.baseURL is required"))
	}
	if c.Shop.PriceCeiling <= 0 {
		errs = append(errs, errors.New("shop.priceCeiling must be positive"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	if c.Keycloak.Enabled && (c.Keycloak.ServerURL == "" || c.Keycloak.Realm == "" || c.Keycloak.ClientID == "") {
		errs = append(errs, errors.New("keycloak serverURL, realm and clientID are required when keycloak is enabled"))
	}
	if c.IsProduction() && c.Security.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("security.jwtSecret must be set in production"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

const defaultJWTSecret = "change-me"

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	// Основные настройки
	v.SetDefault("appName", "storefront")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("logLevel", "info")
	v.SetDefault("env", "development")

	// Настройки сервера
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "15s")
	v.SetDefault("server.shutdownTimeout", "5s")
	v.SetDefault("server.requestTimeout", "10s")
	v.SetDefault("server.rateLimit", 600)

	// Настройки Postgres
	v.SetDefault("postgres.enabled", true)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.dbname", "storefront")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timeout", "5s")
	v.SetDefault("postgres.poolSize", 10)

	// Настройки Redis
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "storefront")
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.minIdleConns", 2)
	v.SetDefault("redis.dialTimeout", "3s")
	v.SetDefault("redis.readTimeout", "1s")
	v.SetDefault("redis.writeTimeout", "1s")
	v.SetDefault("redis.poolTimeout", "4s")
	v.SetDefault("redis.idleTimeout", "300s")
	v.SetDefault("redis.maxRetries", 3)

	// Настройки Kafka
	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.groupID", "storefront")
	v.SetDefault("kafka.storefrontEvents", "storefront-events")
	v.SetDefault("kafka.catalogEvents", "catalog-events")
	v.SetDefault("kafka.deadLetterTopic", "storefront-dlq")
	v.SetDefault("kafka.pollTimeout", "100ms")
	v.SetDefault("kafka.maxAttempts", 3)
	v.SetDefault("kafka.retryBackoff", "200ms")
	v.SetDefault("kafka.maxRetries", 3)
	v.SetDefault("kafka.lingerMs", 5)
	v.SetDefault("kafka.compressionType", "snappy")
	v.SetDefault("kafka.requiredAcks", "all")

	// Настройки метрик
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.endpoint", "/metrics")
	v.SetDefault("metrics.port", 9091)

	// Настройки безопасности
	v.SetDefault("security.jwtSecret", defaultJWTSecret)
	v.SetDefault("security.jwtExpiration", "60m")
	v.SetDefault("security.jwtIssuer", "storefront")
	v.SetDefault("security.corsAllowOrigins", []string{"*"})
	v.SetDefault("security.secureCookies", false)
	v.SetDefault("security.adminRole", "storefront-admin")

	// Настройки Keycloak
	v.SetDefault("keycloak.enabled", false)

	// Каталог
	v.SetDefault("upstream.baseURL", "http://localhost:5000/api")
	v.SetDefault("upstream.timeout", "10s")

	// Витрина
	v.SetDefault("shop.priceCeiling", 1000)
	v.SetDefault("shop.pageSize", 12)
	v.SetDefault("shop.priceDebounce", "300ms")
	v.SetDefault("shop.searchDebounce", "300ms")
	v.SetDefault("shop.listingCacheTTL", "30s")
	v.SetDefault("shop.productCacheTTL", "2m")
	v.SetDefault("shop.filterCatalogTTL", "5m")

	// Сессии покупателей
	v.SetDefault("session.cookieName", "sf_session")
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.guestCartTTL", "720h")

	// Воркер
	v.SetDefault("worker.outboxInterval", "10s")
	v.SetDefault("worker.outboxBatch", 100)
}

// bindEnvVariables привязывает переменные окружения к конфигурации
func bindEnvVariables(v *viper.Viper) {
	// Основные настройки
	v.BindEnv("appName", "APP_NAME")
	v.BindEnv("version", "APP_VERSION")
	v.BindEnv("logLevel", "LOG_LEVEL")
	v.BindEnv("env", "APP_ENV")

	// Настройки сервера
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.readTimeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.writeTimeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("server.shutdownTimeout", "SERVER_SHUTDOWN_TIMEOUT")
	v.BindEnv("server.requestTimeout", "SERVER_REQUEST_TIMEOUT")
	v.BindEnv("server.rateLimit", "SERVER_RATE_LIMIT")

	// Настройки Postgres
	v.BindEnv("postgres.enabled", "POSTGRES_ENABLED")
	v.BindEnv("postgres.host", "POSTGRES_HOST")
	v.BindEnv("postgres.port", "POSTGRES_PORT")
	v.BindEnv("postgres.user", "POSTGRES_USER")
	v.BindEnv("postgres.password", "POSTGRES_PASSWORD")
	v.BindEnv("postgres.dbname", "POSTGRES_DBNAME")
	v.BindEnv("postgres.sslmode", "POSTGRES_SSLMODE")
	v.BindEnv("postgres.timeout", "POSTGRES_TIMEOUT")
	v.BindEnv("postgres.poolSize", "POSTGRES_POOL_SIZE")

	// Настройки Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("redis.prefix", "REDIS_PREFIX")
	v.BindEnv("redis.poolSize", "REDIS_POOL_SIZE")

	// Настройки Kafka
	v.BindEnv("kafka.enabled", "KAFKA_ENABLED")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.groupID", "KAFKA_GROUP_ID")
	v.BindEnv("kafka.storefrontEvents", "KAFKA_STOREFRONT_EVENTS")
	v.BindEnv("kafka.catalogEvents", "KAFKA_CATALOG_EVENTS")
	v.BindEnv("kafka.deadLetterTopic", "KAFKA_DEAD_LETTER_TOPIC")

	// Настройки метрик
	v.BindEnv("metrics.enabled", "METRICS_ENABLED")
	v.BindEnv("metrics.port", "METRICS_PORT")

	// Настройки безопасности
	v.BindEnv("security.jwtSecret", "JWT_SECRET")
	v.BindEnv("security.jwtExpiration", "JWT_EXPIRATION")
	v.BindEnv("security.corsAllowOrigins", "CORS_ALLOW_ORIGINS")
	v.BindEnv("security.secureCookies", "SECURE_COOKIES")

	// Настройки Keycloak
	v.BindEnv("keycloak.enabled", "KEYCLOAK_ENABLED")
	v.BindEnv("keycloak.serverURL", "KEYCLOAK_SERVER_URL")
	v.BindEnv("keycloak.realm", "KEYCLOAK_REALM")
	v.BindEnv("keycloak.clientID", "KEYCLOAK_CLIENT_ID")
	v.BindEnv("keycloak.clientSecret", "KEYCLOAK_CLIENT_SECRET")
	v.BindEnv("keycloak.redirectURL", "KEYCLOAK_REDIRECT_URL")

	// Каталог
	v.BindEnv("upstream.baseURL", "UPSTREAM_BASE_URL")
	v.BindEnv("upstream.timeout", "UPSTREAM_TIMEOUT")

	// Витрина
	v.BindEnv("shop.priceCeiling", "SHOP_PRICE_CEILING")
	v.BindEnv("shop.pageSize", "SHOP_PAGE_SIZE")
}
