package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athebyme/shopsync-service/config"
	"github.com/athebyme/shopsync-service/internal/adapters/cache"
	"github.com/athebyme/shopsync-service/internal/adapters/gateway"
	"github.com/athebyme/shopsync-service/internal/adapters/logger"
	"github.com/athebyme/shopsync-service/internal/adapters/messaging"
	"github.com/athebyme/shopsync-service/internal/adapters/storage"
	"github.com/athebyme/shopsync-service/internal/api"
	"github.com/athebyme/shopsync-service/internal/domain/services"
	"github.com/athebyme/shopsync-service/internal/security"
	"github.com/athebyme/shopsync-service/internal/utils"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
	"github.com/athebyme/shopsync-service/pkg/tx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Метрики для Prometheus
var (
	pushDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "push_duration_seconds",
		Help:    "Длительность выгрузки товара",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	}, []string{"status"})

	pushCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "push_total",
		Help: "Общее количество выгрузок товаров",
	}, []string{"status"})
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := logger.NewZapLogger(cfg.LogLevel, cfg.ENV == "production")
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	log.Info("Инициализация сервиса",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
	)

	postgresCon, err := utils.GenerateConnectionString(
		cfg.Postgres.Host,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
		cfg.Postgres.Port,
		cfg.Postgres.PoolSize,
		cfg.Postgres.Timeout,
	)
	if err != nil {
		fmt.Printf("Ошибка инициализации строки подключения базы: %v\n", err)
		os.Exit(1)
	}

	db, err := postgres.NewPostgresStorage(ctx, postgresCon)
	if err != nil {
		log.Fatal("Ошибка инициализации хранилища", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	defer db.Close()
	log.Info("Хранилище инициализировано")

	cacheClient, err := cache.NewRedisCache(
		ctx,
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		log.Fatal("Ошибка инициализации кэша", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	defer cacheClient.Close()
	log.Info("Кэш инициализирован")

	messagingClient, err := messaging.NewKafkaMessaging(
		cfg.Kafka.Brokers,
		cfg.Kafka.GroupID,
		cfg.Kafka.DeadLetterTopic,
		log,
	)
	if err != nil {
		log.Fatal("Ошибка инициализации системы обмена сообщениями", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	defer messagingClient.Close()
	log.Info("Система обмена сообщениями инициализирована")

	privateKey, err := os.ReadFile(cfg.Security.JWTPrivateKeyPath)
	if err != nil {
		log.Fatal("Ошибка чтения приватного ключа JWT", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	publicKey, err := os.ReadFile(cfg.Security.JWTPublicKeyPath)
	if err != nil {
		log.Fatal("Ошибка чтения публичного ключа JWT", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	jwtManager, err := security.NewJWTManager(privateKey, publicKey, cfg.Security.JWTExpirationMin, cfg.AppName)
	if err != nil {
		log.Fatal("Ошибка инициализации JWT", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	shopifyGateway := gateway.NewShopifyGateway(log)
	mediaPoller := services.NewMediaPoller(shopifyGateway, log, cfg.Shopify.MediaPollMaxAttempts, cfg.Shopify.MediaPollInterval)
	inventoryResolver := services.NewInventoryResolver(shopifyGateway, log)
	pushService := services.NewPushService(shopifyGateway, mediaPoller, inventoryResolver, log)
	txManager := tx.NewTxManager(db, log)
	syncService := services.NewSyncService(pushService, db, txManager, cacheClient, messagingClient, log, cfg.Kafka.ResultsTopic, cfg.Shopify.APIVersion)
	log.Info("Сервис синхронизации инициализирован")

	router := api.SetupRouter(syncService, log, cfg.Security.CORSAllowOrigins, jwtManager)
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Endpoint, promhttp.Handler())
	}
	log.Info("Маршрутизатор настроен")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Сервер запущен", interfaces.LogField{Key: "address", Value: server.Addr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Ошибка запуска сервера", interfaces.LogField{Key: "error", Value: err.Error()})
		}
	}()

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatal("Ошибка при graceful shutdown", interfaces.LogField{Key: "error", Value: err.Error()})
		}

		log.Info("HTTP сервер остановлен")

		close(done)
	}()

	<-done
	log.Info("Сервер корректно завершил работу")
}
