package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"story-graph-server/internal/models"

	"github.com/kelseyhightower/envconfig"
)

// AI client types supported by the generation package.
const (
	AIClientOpenAI = "openai"
	AIClientOllama = "ollama"
)

// Config содержит конфигурацию сервиса истории
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`
	SecretsDir  string `envconfig:"SECRETS_DIR" default:"/run/secrets"`

	// CORS Settings
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string `ignored:"true"`

	// Redis (кэш узлов истории)
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	NodeCacheTTL  time.Duration `envconfig:"NODE_CACHE_TTL" default:"24h"`
	RedisPassword string        `ignored:"true"`

	// RabbitMQ is optional: without a URL turn events are not published.
	RabbitMQURL        string `envconfig:"RABBITMQ_URL"`
	TurnEventsExchange string `envconfig:"TURN_EVENTS_EXCHANGE" default:"story_turn_events"`

	// Generation collaborator
	AIClientType  string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL     string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AIModel       string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AITimeout     time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	AITemperature float64       `envconfig:"AI_TEMPERATURE" default:"0.7"`
	AIAPIKey      string        `ignored:"true"`

	// TurnTimeout bounds one turn request end to end.
	TurnTimeout time.Duration `envconfig:"TURN_TIMEOUT" default:"90s"`

	// JWT (проверка токенов пользователей)
	JWTSecret string `ignored:"true"`

	// Tracing
	OtelEnabled     bool    `envconfig:"OTEL_ENABLED" default:"false"`
	OtelEndpoint    string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelInsecure    bool    `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"false"`
	OtelSampleRatio float64 `envconfig:"OTEL_SAMPLER_RATIO" default:"0.1"`
	ServiceName     string  `envconfig:"SERVICE_NAME" default:"story-graph-server"`
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// Load reads the environment and the secret files. Every failure is wrapped
// in models.ErrConfiguration.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}

	cfg.AIClientType = strings.ToLower(strings.TrimSpace(cfg.AIClientType))
	if cfg.AIClientType != AIClientOpenAI && cfg.AIClientType != AIClientOllama {
		return nil, fmt.Errorf("%w: unknown AI_CLIENT_TYPE %q", models.ErrConfiguration, cfg.AIClientType)
	}

	secrets := NewSecretReader(cfg.SecretsDir)

	// Загружаем ОБЯЗАТЕЛЬНЫЕ секреты
	var err error
	if cfg.DBPassword, err = secrets.Read("db_password"); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}
	if cfg.JWTSecret, err = secrets.Read("jwt_secret"); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}
	if cfg.AIClientType == AIClientOpenAI {
		if cfg.AIAPIKey, err = secrets.Read("ai_api_key"); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
		}
	}

	// Загружаем НЕОБЯЗАТЕЛЬНЫЕ секреты
	if cfg.RedisPassword, err = secrets.Read("redis_password"); err != nil {
		if !errors.Is(err, ErrSecretMissing) {
			return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
		}
		cfg.RedisPassword = ""
	}

	log.Printf("Story service configuration loaded (secrets from %s):", cfg.SecretsDir)
	log.Printf("  Env: %s, Port: %s, LogLevel: %s", cfg.Env, cfg.ServerPort, cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  Redis: %s (db %d), node cache TTL: %v", cfg.RedisAddr, cfg.RedisDB, cfg.NodeCacheTTL)
	log.Printf("  RabbitMQ configured: %t", cfg.RabbitMQURL != "")
	log.Printf("  AI: %s %s @ %s", cfg.AIClientType, cfg.AIModel, cfg.AIBaseURL)

	return &cfg, nil
}
