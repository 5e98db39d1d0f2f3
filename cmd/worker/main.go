package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/athebyme/shopsync-service/config"
	"github.com/athebyme/shopsync-service/internal/adapters/cache"
	"github.com/athebyme/shopsync-service/internal/adapters/gateway"
	"github.com/athebyme/shopsync-service/internal/adapters/logger"
	"github.com/athebyme/shopsync-service/internal/adapters/messaging"
	"github.com/athebyme/shopsync-service/internal/adapters/storage"
	"github.com/athebyme/shopsync-service/internal/domain/models"
	"github.com/athebyme/shopsync-service/internal/domain/services"
	"github.com/athebyme/shopsync-service/internal/utils"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
	"github.com/athebyme/shopsync-service/pkg/tx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Метрики для Prometheus
var (
	commandsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_commands_processed_total",
		Help: "Общее количество обработанных команд выгрузки",
	}, []string{"command", "status"})

	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_command_duration_seconds",
		Help:    "Длительность обработки команды выгрузки",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	}, []string{"command"})

	activeCommands = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "worker_active_commands",
		Help: "Количество команд в обработке",
	})
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
	log.Info("Инициализация воркера",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName + "-worker"},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
	)

	// HTTP сервер для метрик
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Endpoint, promhttp.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("OK"))
			})

			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			log.Info("Запуск HTTP сервера для метрик",
				interfaces.LogField{Key: "addr", Value: addr})

			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error("Ошибка запуска HTTP сервера для метрик",
					interfaces.LogField{Key: "error", Value: err.Error()})
			}
		}()
	}

	connectionStr, err := utils.GenerateConnectionString(
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
		log.Fatal("Ошибка генерации строки подключения к PostgreSQL",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}

	repo, err := postgres.NewPostgresStorage(ctx, connectionStr)
	if err != nil {
		log.Fatal("Ошибка инициализации хранилища",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}
	defer repo.Close()
	log.Info("Хранилище инициализировано")

	cacheClient, err := cache.NewRedisCache(
		ctx,
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		log.Fatal("Ошибка инициализации кэша",
			interfaces.LogField{Key: "error", Value: err.Error()})
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
		log.Fatal("Ошибка инициализации системы обмена сообщениями",
			interfaces.LogField{Key: "error", Value: err.Error()})
	}
	defer messagingClient.Close()
	log.Info("Система обмена сообщениями инициализирована")

	shopifyGateway := gateway.NewShopifyGateway(log)
	mediaPoller := services.NewMediaPoller(shopifyGateway, log, cfg.Shopify.MediaPollMaxAttempts, cfg.Shopify.MediaPollInterval)
	inventoryResolver := services.NewInventoryResolver(shopifyGateway, log)
	pushService := services.NewPushService(shopifyGateway, mediaPoller, inventoryResolver, log)
	txManager := tx.NewTxManager(repo, log)
	syncService := services.NewSyncService(pushService, repo, txManager, cacheClient, messagingClient, log, cfg.Kafka.ResultsTopic, cfg.Shopify.APIVersion)
	log.Info("Сервис синхронизации инициализирован")

	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	unsubscribe := subscribeToPushCommands(ctx, cfg, messagingClient, syncService, log, &wg)

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")
		if unsubscribe != nil {
			if err := unsubscribe(); err != nil {
				log.Error("Ошибка отмены подписки",
					interfaces.LogField{Key: "error", Value: err.Error()})
			}
		}
		cancel()
		wg.Wait()
		close(done)
	}()

	log.Info("Воркер запущен и готов к обработке команд")
	<-done
	log.Info("Воркер корректно завершил работу")
}

// subscribeToPushCommands подписывается на топик команд выгрузки
func subscribeToPushCommands(
	ctx context.Context,
	cfg *config.Config,
	messagingClient interfaces.MessagingPort,
	syncService services.SyncServiceInterface,
	log interfaces.LoggerPort,
	wg *sync.WaitGroup,
) func() error {
	commandHandler := func(ctx context.Context, msg *interfaces.Message) error {
		wg.Add(1)
		defer wg.Done()
		activeCommands.Inc()
		defer activeCommands.Dec()

		startTime := time.Now()

		var command messaging.PushCommand
		if err := json.Unmarshal(msg.Value, &command); err != nil {
			log.ErrorWithContext(ctx, "Ошибка декодирования команды",
				interfaces.LogField{Key: "message_id", Value: msg.ID},
				interfaces.LogField{Key: "error", Value: err.Error()})
			commandsProcessed.WithLabelValues("unknown", "error").Inc()
			return err
		}

		if command.TenantID == "" && msg.TenantID != "" {
			command.TenantID = msg.TenantID
		}

		log.InfoWithContext(ctx, "Получена команда выгрузки",
			interfaces.LogField{Key: "command", Value: command.Type},
			interfaces.LogField{Key: "tenant_id", Value: command.TenantID},
			interfaces.LogField{Key: "product_id", Value: command.ProductID},
		)

		opts := models.PushOptions{
			Publish:         command.Publish || cfg.Shopify.PublishByDefault,
			DefaultQuantity: cfg.Shopify.DefaultQuantity,
			PartialPolicy:   cfg.Shopify.PartialPolicy,
		}

		var err error
		switch command.Type {
		case messaging.CommandPushProduct:
			_, err = syncService.PushByID(ctx, command.TenantID, command.ProductID, opts)
		case messaging.CommandPushPending:
			_, err = syncService.PushPending(ctx, command.TenantID, opts,
				cfg.Shopify.BatchConcurrency, cfg.Shopify.PendingPageSize)
		default:
			log.WarnWithContext(ctx, "Неизвестный тип команды",
				interfaces.LogField{Key: "command", Value: command.Type})
			commandsProcessed.WithLabelValues(command.Type, "skipped").Inc()
			return nil
		}

		commandDuration.WithLabelValues(command.Type).Observe(time.Since(startTime).Seconds())
		if err != nil {
			commandsProcessed.WithLabelValues(command.Type, "error").Inc()
			return err
		}

		commandsProcessed.WithLabelValues(command.Type, "success").Inc()
		return nil
	}

	unsubscribe, err := messagingClient.Subscribe(ctx, cfg.Kafka.CommandsTopic, commandHandler)
	if err != nil {
		log.Fatal("Ошибка подписки на топик команд",
			interfaces.LogField{Key: "topic", Value: cfg.Kafka.CommandsTopic},
			interfaces.LogField{Key: "error", Value: err.Error()})
	}

	return unsubscribe
}
