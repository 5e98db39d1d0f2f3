package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/athebyme/shopsync-service/internal/adapters/messaging"
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
		BodyLimit       int // максимальный размер запроса в МБ
	}

	Postgres struct {
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
		Host     string
		Port     int
		Password string
		DB       int
	}

	Kafka struct {
		Brokers         []string `mapstructure:"brokers"`
		GroupID         string   `mapstructure:"group_id"`
		CommandsTopic   string   `mapstructure:"commands_topic"`
		ResultsTopic    string   `mapstructure:"results_topic"`
		DeadLetterTopic string   `mapstructure:"dead_letter_topic"`
	}

	Shopify struct {
		APIVersion           string        // версия Admin API
		MediaPollMaxAttempts int           // бюджет опроса обработки медиа
		MediaPollInterval    time.Duration // интервал между опросами
		DefaultQuantity      int           // остаток по умолчанию
		PublishByDefault     bool          // переводить товар в активный статус
		PartialPolicy        string        // keep или delete
		BatchConcurrency     int           // параллелизм пакетной выгрузки
		PendingPageSize      int           // размер страницы пакетной выгрузки
	}

	Metrics struct {
		Enabled  bool
		Endpoint string
		Port     int `mapstructure:"port"`
	}

	Security struct {
		JWTPublicKeyPath  string
		JWTPrivateKeyPath string
		JWTExpirationMin  time.Duration
		CORSAllowOrigins  []string
	}
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	configFile := "config"
	if configPath != "" {
		configFile = configPath
	}

	var cfg Config

	viper.SetConfigName(configFile)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("../config")
	viper.AddConfigPath("../../config")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
		// Продолжаем, если файл не найден, будем использовать только переменные окружения
	}

	setDefaults()
	bindEnvVariables()

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка десериализации конфигурации: %w", err)
	}

	cfg.ENV = viper.GetString("env")
	if cfg.ENV == "" {
		cfg.ENV = "development"
		if envVar := os.Getenv("APP_ENV"); envVar != "" {
			cfg.ENV = envVar
		}
	}

	return &cfg, nil
}

// setDefaults устанавливает значения по умолчанию
func setDefaults() {
	// Основные настройки
	viper.SetDefault("appName", "shopsync-service")
	viper.SetDefault("version", "1.0.0")
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("env", "development")

	// Настройки сервера
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", "10s")
	viper.SetDefault("server.writeTimeout", "30s")
	viper.SetDefault("server.shutdownTimeout", "5s")
	viper.SetDefault("server.bodyLimit", 10) // 10 МБ

	// Настройки Postgres
	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.port", 5432)
	viper.SetDefault("postgres.user", "postgres")
	viper.SetDefault("postgres.password", "postgres")
	viper.SetDefault("postgres.dbname", "shopsync")
	viper.SetDefault("postgres.sslmode", "disable")
	viper.SetDefault("postgres.timeout", "5s")
	viper.SetDefault("postgres.poolSize", 10)

	// Настройки Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Настройки Kafka
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.group_id", "shopsync-service")
	viper.SetDefault("kafka.commands_topic", messaging.TopicPushCommands)
	viper.SetDefault("kafka.results_topic", messaging.TopicPushResults)
	viper.SetDefault("kafka.dead_letter_topic", messaging.TopicDeadLetter)

	// Настройки Shopify
	viper.SetDefault("shopify.apiversion", "2024-10")
	viper.SetDefault("shopify.mediapollmaxattempts", 10)
	viper.SetDefault("shopify.mediapollinterval", "2s")
	viper.SetDefault("shopify.defaultquantity", 0)
	viper.SetDefault("shopify.publishbydefault", false)
	viper.SetDefault("shopify.partialpolicy", "keep")
	viper.SetDefault("shopify.batchconcurrency", 1)
	viper.SetDefault("shopify.pendingpagesize", 50)

	// Настройки метрик
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.endpoint", "/metrics")
	viper.SetDefault("metrics.port", 9090)

	// Настройки безопасности
	viper.SetDefault("security.jwtpublickeypath", "keys/public.pem")
	viper.SetDefault("security.jwtprivatekeypath", "keys/private.pem")
	viper.SetDefault("security.jwtexpirationmin", "60m")
	viper.SetDefault("security.corsalloworigins", []string{"*"})
}

// bindEnvVariables привязывает переменные окружения к конфигурации
func bindEnvVariables() {
	// Основные настройки
	viper.BindEnv("appName", "APP_NAME")
	viper.BindEnv("version", "APP_VERSION")
	viper.BindEnv("logLevel", "LOG_LEVEL")
	viper.BindEnv("env", "APP_ENV")

	// Настройки сервера
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.readTimeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.writeTimeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.shutdownTimeout", "SERVER_SHUTDOWN_TIMEOUT")
	viper.BindEnv("server.bodyLimit", "SERVER_BODY_LIMIT")

	// Настройки Postgres
	viper.BindEnv("postgres.host", "POSTGRES_HOST")
	viper.BindEnv("postgres.port", "POSTGRES_PORT")
	viper.BindEnv("postgres.user", "POSTGRES_USER")
	viper.BindEnv("postgres.password", "POSTGRES_PASSWORD")
	viper.BindEnv("postgres.dbname", "POSTGRES_DBNAME")
	viper.BindEnv("postgres.sslmode", "POSTGRES_SSLMODE")
	viper.BindEnv("postgres.timeout", "POSTGRES_TIMEOUT")
	viper.BindEnv("postgres.poolSize", "POSTGRES_POOL_SIZE")

	// Настройки Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	// Настройки Kafka
	viper.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	viper.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	viper.BindEnv("kafka.commands_topic", "KAFKA_COMMANDS_TOPIC")
	viper.BindEnv("kafka.results_topic", "KAFKA_RESULTS_TOPIC")
	viper.BindEnv("kafka.dead_letter_topic", "KAFKA_DEAD_LETTER_TOPIC")

	// Настройки Shopify
	viper.BindEnv("shopify.apiversion", "SHOPIFY_API_VERSION")
	viper.BindEnv("shopify.mediapollmaxattempts", "SHOPIFY_MEDIA_POLL_MAX_ATTEMPTS")
	viper.BindEnv("shopify.mediapollinterval", "SHOPIFY_MEDIA_POLL_INTERVAL")
	viper.BindEnv("shopify.defaultquantity", "SHOPIFY_DEFAULT_QUANTITY")
	viper.BindEnv("shopify.publishbydefault", "SHOPIFY_PUBLISH_BY_DEFAULT")
	viper.BindEnv("shopify.partialpolicy", "SHOPIFY_PARTIAL_POLICY")
	viper.BindEnv("shopify.batchconcurrency", "SHOPIFY_BATCH_CONCURRENCY")
	viper.BindEnv("shopify.pendingpagesize", "SHOPIFY_PENDING_PAGE_SIZE")

	// Настройки метрик
	viper.BindEnv("metrics.enabled", "METRICS_ENABLED")
	viper.BindEnv("metrics.endpoint", "METRICS_ENDPOINT")
	viper.BindEnv("metrics.port", "METRICS_PORT")

	// Настройки безопасности
	viper.BindEnv("security.jwtpublickeypath", "SECURITY_JWT_PUBLIC_KEY_PATH")
	viper.BindEnv("security.jwtprivatekeypath", "SECURITY_JWT_PRIVATE_KEY_PATH")
	viper.BindEnv("security.jwtexpirationmin", "SECURITY_JWT_EXPIRATION_MIN")
	viper.BindEnv("security.corsalloworigins", "SECURITY_CORS_ALLOW_ORIGINS")
}
