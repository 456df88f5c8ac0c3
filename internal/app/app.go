package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/promo"
	"github.com/utafrali/storefront/internal/repository/postgres"
	redisrepo "github.com/utafrali/storefront/internal/repository/redis"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

const (
	// eventDedupTTL is how long a consumed event id is remembered.
	eventDedupTTL      = 24 * time.Hour
	slowQueryThreshold = 200 * time.Millisecond
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	consumer       *pkgkafka.Consumer
	deadLetter     *pkgkafka.DeadLetterPublisher
	httpServer     *http.Server
	shutdownTracer tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownTracer, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    "storefront",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Redis holds sessions, request generations and consumed event ids.
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPass,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// PostgreSQL holds vouchers.
	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSLMode,
		MaxConns: cfg.PostgresMaxConns,
	}, logger)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), logger); err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, "storefront"); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Kafka producer.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Cart backend client: retries inside, circuit breaker outside.
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.BackendTimeout
	httpCfg.MaxRetries = cfg.BackendMaxRetries
	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpCfg),
		httpclient.DefaultCircuitBreakerConfig("cart-backend"),
		logger,
	)
	cartBackend := backend.NewClient(breaker, cfg.BackendBaseURL, cfg.BackendDetailWorkers, logger)

	catalog, err := promo.Parse(cfg.PromoCodes)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("parse promo codes: %w", err)
	}

	// Build the dependency graph.
	sessionRepo := redisrepo.NewSessionRepository(rdb, cfg.SessionTTL())
	voucherRepo := postgres.NewVoucherRepository(database.NewTracedDB(pool, slowQueryThreshold, logger))
	eventProducer := event.NewProducer(producer, logger)

	voucherService := service.NewVoucherService(voucherRepo, eventProducer, logger)
	var seeder service.VoucherSeeder
	if cfg.SeedSampleVouchers {
		seeder = voucherService
	}
	resolver := service.NewDiscountResolver(catalog, voucherRepo)
	storefrontService := service.NewStorefrontService(sessionRepo, cartBackend, resolver, eventProducer, seeder, logger)

	// Kafka consumer: backend cart changes and explicit refresh requests.
	var (
		consumer   *pkgkafka.Consumer
		deadLetter *pkgkafka.DeadLetterPublisher
	)
	if cfg.KafkaConsumerEnabled {
		deadLetter = pkgkafka.NewDeadLetterPublisher(cfg.KafkaBrokers, cfg.KafkaDLQPrefix, cfg.KafkaGroupID, logger)
		dedup := pkgkafka.NewRedisIdempotencyStore(rdb, "storefront:event:", eventDedupTTL)
		eventHandler := event.NewHandler(storefrontService, logger)
		consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
			Topics:  event.ConsumedTopics(),
		}, pkgkafka.IdempotentHandler(dedup, eventHandler.Handle, logger), logger).WithDeadLetter(deadLetter)
	}

	// Health checks.
	healthHandler := health.NewHandler(5 * time.Second)
	healthHandler.Register("redis", sessionRepo.Ping)
	healthHandler.Register("postgres", pool.Ping)
	healthHandler.Register("kafka", producer.Ping)

	// HTTP router.
	router := handler.NewRouter(storefrontService, voucherService, healthHandler, handler.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		PromoRateRPS:   cfg.PromoRateLimitRPS,
		PromoRateBurst: cfg.PromoRateBurst,
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			ExposedHeaders:   []string{"X-Correlation-ID"},
			AllowCredentials: true,
		},
		PprofCIDRs: cfg.PprofCIDRs(),
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		pool:           pool,
		producer:       producer,
		consumer:       consumer,
		deadLetter:     deadLetter,
		httpServer:     httpServer,
		shutdownTracer: shutdownTracer,
	}, nil
}

// Run starts the HTTP server and the event consumer and blocks until the
// context is canceled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.consumer != nil {
		g.Go(func() error {
			a.logger.Info("starting kafka consumer", slog.Any("topics", event.ConsumedTopics()))
			if err := a.consumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("kafka consumer: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.logger.Info("shutdown signal received")
		}
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}
	if a.deadLetter != nil {
		if err := a.deadLetter.Close(); err != nil {
			a.logger.Error("dead-letter writer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
