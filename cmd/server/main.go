package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"story-graph-server/internal/config"
	"story-graph-server/internal/database"
	"story-graph-server/internal/generation"
	"story-graph-server/internal/handler"
	"story-graph-server/internal/interfaces"
	"story-graph-server/internal/logger"
	"story-graph-server/internal/messaging"
	"story-graph-server/internal/middleware"
	"story-graph-server/internal/observability"
	"story-graph-server/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	log.Println("Запуск Story Graph Server...")

	// Конфиг грузим до логгера, ошибки пишем стандартным логгером
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)
	zapLogger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OtelEndpoint,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// --- PostgreSQL ---
	dbPool, err := setupDatabase(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer dbPool.Close()
	zapLogger.Info("Успешное подключение к PostgreSQL")

	if err := database.ApplyMigrations(dbPool, zapLogger); err != nil {
		zapLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = redisClient.Close() }()
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// кэш необязателен: промахи уходят в Postgres
		zapLogger.Warn("Redis is unreachable, node cache will fall through to Postgres", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	} else {
		zapLogger.Info("Успешное подключение к Redis", zap.String("addr", cfg.RedisAddr))
	}
	pingCancel()

	// --- RabbitMQ (опционально) ---
	var publisher interfaces.TurnEventPublisher = messaging.NoopPublisher{}
	var rabbitConn *amqp.Connection
	if cfg.RabbitMQURL != "" {
		rabbitConn, err = messaging.Connect(ctx, cfg.RabbitMQURL, 5, 5*time.Second, zapLogger)
		if err != nil {
			zapLogger.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
		}
		turnPublisher, err := messaging.NewRabbitMQTurnPublisher(rabbitConn, cfg.TurnEventsExchange, zapLogger)
		if err != nil {
			zapLogger.Fatal("Не удалось создать TurnPublisher", zap.Error(err))
		}
		defer func() { _ = turnPublisher.Close() }()
		publisher = turnPublisher
		zapLogger.Info("Успешное подключение к RabbitMQ")
	} else {
		zapLogger.Info("RABBITMQ_URL not set, turn events are not published")
	}

	// --- Collaborators ---
	generator, err := generation.NewTextGenerator(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create text generator", zap.Error(err))
	}

	nodeRepo := database.NewRedisStoryNodeCache(
		database.NewPgStoryNodeRepository(dbPool, zapLogger),
		redisClient, cfg.NodeCacheTTL, zapLogger,
	)
	progressRepo := database.NewPgUserProgressRepository(dbPool, zapLogger)
	storyService := service.NewStoryService(nodeRepo, progressRepo, generator, publisher, cfg.TurnTimeout, zapLogger)

	verifier, err := middleware.NewJWTVerifier(cfg.JWTSecret, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create JWT verifier", zap.Error(err))
	}
	storyHandler := handler.NewStoryHandler(storyService, verifier, zapLogger)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.GinZapLogger(zapLogger))
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.GetAllowedOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	storyHandler.RegisterRoutes(router)

	// Prometheus middleware применяем после регистрации роутов
	p.Use(router)

	// WriteTimeout больше таймаута хода, иначе медленная генерация обрывается
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.TurnTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	if rabbitConn != nil {
		if err := rabbitConn.Close(); err != nil {
			zapLogger.Error("Error closing RabbitMQ connection", zap.Error(err))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLogger.Error("Error shutting down tracer provider", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}

// setupDatabase создает пул соединений, повторяя попытки пока БД поднимается.
func setupDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	const maxRetries = 5
	retryDelay := 3 * time.Second
	for i := 0; i < maxRetries; i++ {
		pool, err := connectOnce(ctx, poolConfig)
		if err == nil {
			return pool, nil
		}
		logger.Warn("Не удалось подключиться к PostgreSQL",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("postgres unreachable after %d attempts", maxRetries)
}

func connectOnce(ctx context.Context, poolConfig *pgxpool.Config) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать пул соединений: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return pool, nil
}
