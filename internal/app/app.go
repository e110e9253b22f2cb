package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/karolberezicki/ActualFoundation/internal/calculator"
	"github.com/karolberezicki/ActualFoundation/internal/catalog"
	"github.com/karolberezicki/ActualFoundation/internal/config"
	"github.com/karolberezicki/ActualFoundation/internal/domain"
	"github.com/karolberezicki/ActualFoundation/internal/event"
	handler "github.com/karolberezicki/ActualFoundation/internal/handler/http"
	"github.com/karolberezicki/ActualFoundation/internal/payment/googlepay"
	"github.com/karolberezicki/ActualFoundation/internal/pricing"
	"github.com/karolberezicki/ActualFoundation/internal/promotion"
	"github.com/karolberezicki/ActualFoundation/internal/repository/postgres"
	redisrepo "github.com/karolberezicki/ActualFoundation/internal/repository/redis"
	"github.com/karolberezicki/ActualFoundation/internal/service"
	"github.com/karolberezicki/ActualFoundation/internal/shipping"
	"github.com/karolberezicki/ActualFoundation/migrations"
	"github.com/karolberezicki/ActualFoundation/pkg/database"
	"github.com/karolberezicki/ActualFoundation/pkg/health"
	pkgkafka "github.com/karolberezicki/ActualFoundation/pkg/kafka"
	"github.com/karolberezicki/ActualFoundation/pkg/tracing"
)

// App wires together all dependencies and runs the checkout session service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "checkout",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool for purchase orders.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis client for ephemeral session carts.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.Redis().Addr()),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer for session lifecycle events.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	cartStore := redisrepo.NewCartStore(redisClient, time.Duration(cfg.CartTTLHours)*time.Hour)
	orderRepo := postgres.NewOrderRepository(pool)
	eventProducer := event.NewProducer(producer, logger)

	contentLookup := catalog.NewStaticCatalog(demoCatalog())
	priceService := pricing.NewStaticPriceService(demoPrices(cfg.DefaultMarketID, cfg.DefaultCurrency))
	promotions := promotion.NewThresholdEngine(cfg.PromotionThreshold, cfg.PromotionPercent)
	shippingService := shipping.NewStaticService(demoShippingMethods(cfg.DefaultMarketID))
	resolver := shipping.NewResolver(shippingService, logger)
	calc := calculator.New(cfg.TaxRate)
	gateway := googlepay.NewGateway(logger)

	assembler := service.NewAssembler(calc, resolver, cfg.MerchantHostname, paymentHandlerConfig(cfg))

	checkoutService := service.NewCheckoutService(
		cartStore,
		orderRepo,
		contentLookup,
		priceService,
		promotions,
		resolver,
		gateway,
		assembler,
		eventProducer,
		logger,
		cfg.DefaultMarketID,
		cfg.DefaultCurrency,
		cfg.UCPCustomerID,
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(checkoutService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// paymentHandlerConfig builds the static Google Pay descriptor returned on
// session responses.
func paymentHandlerConfig(cfg *config.Config) domain.PaymentHandlerConfig {
	return domain.PaymentHandlerConfig{
		GooglePay: domain.GooglePayConfig{
			MerchantInfo: domain.MerchantInfo{
				MerchantID:   cfg.GPayMerchantID,
				MerchantName: cfg.GPayMerchantName,
			},
			AllowedCardNetworks: cfg.GPayAllowedCardNetworks,
			AllowedAuthMethods:  cfg.GPayAllowedAuthMethods,
			TokenizationSpec: domain.TokenizationSpec{
				Type: "PAYMENT_GATEWAY",
				Parameters: map[string]string{
					"gateway":           cfg.GPayGateway,
					"gatewayMerchantId": cfg.GPayGatewayMerchantID,
				},
			},
		},
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 4. Close Redis client.
	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis client close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 5. Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
