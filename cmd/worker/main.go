package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/athebyme/gomarket-storefront/config"
	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/app"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Метрики для Prometheus
var (
	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_worker_messages_processed_total",
		Help: "Общее количество обработанных сообщений",
	}, []string{"topic", "status"})

	messageProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_worker_message_processing_duration_seconds",
		Help:    "Длительность обработки сообщений",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})

	activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_worker_active_goroutines",
		Help: "Количество активных горутин-обработчиков",
	})
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
	log.Info("Инициализация воркера",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName + "-worker"},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
	)

	infra, err := app.NewInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal("Ошибка инициализации зависимостей", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	// справочник фильтров живет в памяти API и сбрасывается через служебный маршрут
	catalogEvents := services.NewCatalogEventHandler(infra.Cache, nil, log)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = startMetricsServer(cfg, log)
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	subscribe(ctx, infra.Messaging, cfg.Kafka.CatalogEvents, instrument(catalogEvents.Handle, log), log, &wg)

	if repo := infra.Repository(); repo != nil {
		relay := services.NewOutboxRelay(repo, infra.Messaging, cfg.Worker.OutboxBatch, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("Досылка событий outbox запущена",
				interfaces.LogField{Key: "interval", Value: cfg.Worker.OutboxInterval.String()})
			relay.Run(ctx, cfg.Worker.OutboxInterval)
		}()
	} else {
		log.Warn("PostgreSQL отключен, досылка событий outbox не запущена")
	}

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")
		cancel()
		wg.Wait()

		if metricsServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Error("Ошибка остановки сервера метрик", interfaces.LogField{Key: "error", Value: err.Error()})
			}
			shutdownCancel()
		}

		log.Info("Закрытие соединений с зависимостями...")
		infra.Close(log)
		close(done)
	}()

	log.Info("Воркер запущен и готов к обработке сообщений")
	<-done
	log.Info("Воркер корректно завершил работу")
}

func startMetricsServer(cfg *config.Config, log interfaces.LoggerPort) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Endpoint, promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Запуск HTTP сервера для метрик", interfaces.LogField{Key: "addr", Value: server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Ошибка запуска HTTP сервера для метрик", interfaces.LogField{Key: "error", Value: err.Error()})
		}
	}()
	return server
}

// instrument добавляет метрики и журнал к обработчику сообщений
func instrument(handler interfaces.MessageHandler, log interfaces.LoggerPort) interfaces.MessageHandler {
	return func(ctx context.Context, msg *interfaces.Message) error {
		startTime := time.Now()
		activeWorkers.Inc()
		defer activeWorkers.Dec()

		log.DebugWithContext(ctx, "Получено сообщение",
			interfaces.LogField{Key: "message_id", Value: msg.ID},
			interfaces.LogField{Key: "topic", Value: msg.Topic},
			interfaces.LogField{Key: "attempt", Value: msg.Attempts},
		)

		if err := handler(ctx, msg); err != nil {
			log.ErrorWithContext(ctx, "Ошибка обработки сообщения",
				interfaces.LogField{Key: "message_id", Value: msg.ID},
				interfaces.LogField{Key: "error", Value: err.Error()},
			)
			messagesProcessed.WithLabelValues(msg.Topic, "error").Inc()
			return err
		}

		messageProcessingDuration.WithLabelValues(msg.Topic).Observe(time.Since(startTime).Seconds())
		messagesProcessed.WithLabelValues(msg.Topic, "success").Inc()
		return nil
	}
}

// subscribe держит подписку на тему до отмены контекста
func subscribe(ctx context.Context, bus interfaces.MessagingPort, topic string, handler interfaces.MessageHandler,
	log interfaces.LoggerPort, wg *sync.WaitGroup) {

	wg.Add(1)
	go func() {
		defer wg.Done()

		unsubscribe, err := bus.Subscribe(ctx, topic, handler)
		if err != nil {
			log.Error("Ошибка подписки на тему",
				interfaces.LogField{Key: "topic", Value: topic},
				interfaces.LogField{Key: "error", Value: err.Error()})
			return
		}
		defer func() {
			if err := unsubscribe(); err != nil {
				log.Error("Ошибка отмены подписки",
					interfaces.LogField{Key: "topic", Value: topic},
					interfaces.LogField{Key: "error", Value: err.Error()})
			}
		}()

		log.Info("Подписка установлена", interfaces.LogField{Key: "topic", Value: topic})

		<-ctx.Done()
		log.Info("Отмена подписки", interfaces.LogField{Key: "topic", Value: topic})
	}()
}
