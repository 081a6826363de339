package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athebyme/gomarket-storefront/config"
	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/api"
	"github.com/athebyme/gomarket-storefront/internal/api/handlers"
	"github.com/athebyme/gomarket-storefront/internal/app"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

func main() {
	configPath := flag.String("config", "", "путь к файлу конфигурации")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Некорректная конфигурация: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := logger.NewZapLogger(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	log.Info("Инициализация сервиса",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
	)

	infra, err := app.NewInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal("Ошибка инициализации зависимостей", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	svc := app.NewServices(cfg, infra, log)
	log.Info("Сервисы витрины инициализированы")

	keycloak, err := app.KeycloakClient(ctx, cfg)
	if err != nil {
		infra.Close(log)
		log.Fatal("Ошибка инициализации Keycloak", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	authenticator, err := app.Authenticator(cfg, keycloak)
	if err != nil {
		infra.Close(log)
		log.Fatal("Ошибка инициализации аутентификации", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	var oidc handlers.OIDCProvider
	if keycloak != nil {
		oidc = keycloak
	}

	router := api.SetupRouter(api.Services{
		Storefront:    svc.Storefront,
		Carts:         svc.Carts,
		FilterCatalog: svc.FilterCatalog,
		Cache:         infra.Cache,
		Auth:          authenticator,
		OIDC:          oidc,
	}, log, api.Options{
		CORSAllowedOrigins: cfg.Security.CORSAllowOrigins,
		SessionCookie:      cfg.Session.CookieName,
		SessionTTL:         cfg.Session.TTL,
		SecureCookies:      cfg.Security.SecureCookies,
		PageSize:           cfg.Shop.PageSize,
		RequestTimeout:     cfg.Server.RequestTimeout,
		RateLimit:          cfg.Server.RateLimit,
		AdminRole:          cfg.Security.AdminRole,
		MetricsEnabled:     cfg.Metrics.Enabled,
		MetricsEndpoint:    cfg.Metrics.Endpoint,
	})
	log.Info("Маршрутизатор настроен")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Сервер запущен", interfaces.LogField{Key: "address", Value: server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка запуска сервера", interfaces.LogField{Key: "error", Value: err.Error()})
		}
	}()

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Ошибка при graceful shutdown", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		log.Info("HTTP сервер остановлен")

		cancel()
		log.Info("Закрытие соединений с зависимостями...")
		infra.Close(log)

		close(done)
	}()

	<-done
	log.Info("Сервер корректно завершил работу")
}
