package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	orderapp "github.com/printmarket/backend/internal/application/order"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/auth"
	"github.com/printmarket/backend/internal/infrastructure/cache"
	"github.com/printmarket/backend/internal/infrastructure/config"
	"github.com/printmarket/backend/internal/infrastructure/event"
	"github.com/printmarket/backend/internal/infrastructure/lock"
	"github.com/printmarket/backend/internal/infrastructure/logger"
	"github.com/printmarket/backend/internal/infrastructure/migration"
	"github.com/printmarket/backend/internal/infrastructure/persistence"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
	"github.com/printmarket/backend/internal/interfaces/http/handler"
	"github.com/printmarket/backend/internal/interfaces/http/middleware"
	"github.com/printmarket/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromAppConfig(cfg.App, cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting print marketplace order service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry; every provider is a no-op when disabled
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.NewConfig(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() { _ = tracerProvider.Shutdown(context.Background()) }()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.NewMetricsConfig(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.NewLogsConfig(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() { _ = loggerProvider.Shutdown(context.Background()) }()
	log = loggerProvider.Bridge(log, log.Level())

	profiler, err := telemetry.NewProfiler(telemetry.NewProfilerConfig(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() { _ = profiler.Stop() }()
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithContentionClassifier(persistence.IsLockContention),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if err := prepareSchema(cfg.Database, db, log); err != nil {
		log.Fatal("Failed to prepare database schema", zap.Error(err))
	}

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: telemetry.DefaultDBTracingConfig().SlowQueryThresh,
		DBSystem:        dbSystem(cfg.Database.Driver),
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Database tracing unavailable", zap.Error(err))
	}

	// Redis is optional unless locks are configured to live there
	redisClient := connectRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	locker, err := lock.New(cfg.Order, redisClient, log)
	if err != nil {
		log.Fatal("Failed to create order locker", zap.Error(err))
	}

	// Repositories and outbox
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)
	outboxPublisher := event.NewOutboxPublisher(eventSerializer, event.WithMaxRetries(cfg.Event.MaxRetries))
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	orderRepo := persistence.NewGormOrderRepository(db.DB, persistence.WithRowLockTimeout(cfg.Order.DBLockTimeout))
	orderRepo.SetOutboxEventSaver(outboxPublisher)
	historyRepo := persistence.NewGormHistoryRepository(db.DB)
	catalogReader := persistence.NewGormCatalogReader(db.DB)

	orderService := orderapp.NewOrderService(orderapp.Dependencies{
		Orders:    orderRepo,
		History:   historyRepo,
		Producers: catalogReader,
		Catalog:   catalogReader,
		Printers:  catalogReader,
		Locker:    locker,
	},
		orderapp.WithLockWait(cfg.Order.LockWait),
		orderapp.WithLogger(log.Named("order")),
	)

	// Event handlers run after commit, behind the idempotency guard
	idempotencyStore := cache.NewIdempotencyStore(redisClient, log)
	defer func() { _ = idempotencyStore.Close() }()
	idempotency := event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Event.IdempotencyTTL, Enabled: true})

	eventBus := event.NewInMemoryEventBus(log)
	historyHandler := event.NewIdempotentHandler(orderapp.NewStatusHistoryHandler(historyRepo, log), idempotencyStore, log, idempotency)
	eventBus.Subscribe(historyHandler, historyHandler.EventTypes()...)

	if meterProvider.IsEnabled() {
		orderMetrics, err := telemetry.NewOrderMetrics(telemetry.OrderMetricsConfig{
			Meter:  meterProvider.Meter("printmarket.orders"),
			Logger: log,
		})
		if err != nil {
			log.Warn("Order metrics unavailable", zap.Error(err))
		} else {
			metricsHandler := event.NewIdempotentHandler(orderapp.NewMetricsHandler(orderMetrics, log), idempotencyStore, log, idempotency)
			eventBus.Subscribe(metricsHandler, metricsHandler.EventTypes()...)
		}
	}

	if cfg.Event.ProcessorEnabled {
		processor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			CleanupEnabled:   cfg.Event.CleanupEnabled,
			CleanupRetention: cfg.Event.CleanupRetention,
			CleanupInterval:  event.DefaultOutboxProcessorConfig().CleanupInterval,
		}, log.Named("outbox"))
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := processor.Stop(stopCtx); err != nil {
				log.Warn("Outbox processor did not stop cleanly", zap.Error(err))
			}
		}()
	} else {
		log.Warn("Outbox processor disabled; status history and metrics will not be updated")
	}

	// HTTP
	engine := newEngine(cfg, log, tracerProvider, meterProvider)
	engine.GET("/health", handler.NewHealthHandler(db, cfg.App.Name).Check)

	var blacklist auth.TokenBlacklist
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}
	r := router.NewRouter(engine).Use(
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService:     auth.NewJWTService(cfg.JWT),
			TokenBlacklist: blacklist,
			Logger:         log,
		}),
		middleware.TracingAttributeInjector(),
	)
	orderHandler := handler.NewOrderHandler(orderService)
	for _, group := range orderHandler.RouteGroups(middleware.RequirePermission(auth.PermissionAdvanceOrders, log)) {
		r.Register(group)
	}
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newEngine builds the gin engine with the global middleware chain. Auth runs
// on the API group only so /health stays public. Spans go to the global
// provider installed by telemetry.NewTracerProvider.
func newEngine(cfg *config.Config, log *zap.Logger, tp *telemetry.TracerProvider, mp *telemetry.MeterProvider) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tp.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	if mp.IsEnabled() {
		engine.Use(middleware.HTTPMetrics(mp.Meter("http.server"), log))
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	return engine
}

// prepareSchema creates tables on sqlite and, when asked to, applies the
// embedded migrations on postgres.
func prepareSchema(cfg config.DatabaseConfig, db *persistence.Database, log *zap.Logger) error {
	if cfg.Driver == config.DriverSQLite {
		log.Info("Auto-migrating sqlite schema")
		return db.AutoMigrate()
	}
	if !cfg.MigrateOnStart {
		return nil
	}

	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	m, err := migration.NewEmbedded(sqlDB, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	// closes sqlDB too
	defer func() { _ = m.Close() }()

	return m.Up()
}

// connectRedis returns nil when Redis is unreachable and nothing requires it
func connectRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) *redis.Client {
	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err == nil {
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
		return client
	}
	if cfg.Order.LockBackend == config.LockBackendRedis {
		log.Fatal("Redis is required by order.lock_backend=redis", zap.Error(err))
	}
	log.Warn("Redis unavailable, using in-process stores", zap.Error(err))
	return nil
}

func dbSystem(driver string) string {
	if driver == config.DriverSQLite {
		return "sqlite"
	}
	return "postgresql"
}

// the service must satisfy the handler port
var _ handler.OrderService = (*orderapp.OrderService)(nil)
