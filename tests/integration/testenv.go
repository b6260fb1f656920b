// Package integration runs the order service against real PostgreSQL and
// Redis containers started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	orderapp "github.com/printmarket/backend/internal/application/order"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/cache"
	"github.com/printmarket/backend/internal/infrastructure/event"
	"github.com/printmarket/backend/internal/infrastructure/lock"
	"github.com/printmarket/backend/internal/infrastructure/migration"
	"github.com/printmarket/backend/internal/infrastructure/persistence"
	"github.com/printmarket/backend/internal/infrastructure/persistence/models"
	"github.com/printmarket/backend/tests/testutil"
)

// Env is a fully wired order stack: PostgreSQL repositories, a Redis lock,
// the outbox processor and the event bus.
type Env struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Service  *orderapp.OrderService
	Recorder *testutil.MockEventHandler
	Catalog  Catalog
}

// Catalog is the seed data every Env starts with
type Catalog struct {
	Producer         uuid.UUID
	InactiveProducer uuid.UUID
	Product          uuid.UUID
	Customization    uuid.UUID
	Printer          uuid.UUID
}

// NewEnv starts fresh containers, applies the embedded migrations and wires
// the service. Everything is torn down with the test.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	if testing.Short() {
		t.Skip("integration tests need docker")
	}

	ctx := context.Background()
	log := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))

	dsn := startPostgres(t, ctx)
	applyMigrations(t, dsn, log)
	db := connect(t, dsn)

	client := startRedis(t, ctx)

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)

	orders := persistence.NewGormOrderRepository(db, persistence.WithRowLockTimeout(2*time.Second))
	orders.SetOutboxEventSaver(event.NewOutboxPublisher(serializer))
	history := persistence.NewGormHistoryRepository(db)
	catalog := persistence.NewGormCatalogReader(db)

	service := orderapp.NewOrderService(orderapp.Dependencies{
		Orders:    orders,
		History:   history,
		Producers: catalog,
		Catalog:   catalog,
		Printers:  catalog,
		Locker:    lock.NewRedisLocker(client, 10*time.Second, lock.WithKeyPrefix("printmarket:test:lock:")),
	}, orderapp.WithLockWait(10*time.Second), orderapp.WithLogger(log))

	store := cache.NewRedisIdempotencyStore(client, "printmarket:test:idem:")
	bus := event.NewInMemoryEventBus(log)
	historyHandler := event.NewIdempotentHandler(orderapp.NewStatusHistoryHandler(history, log), store, log)
	bus.Subscribe(historyHandler, historyHandler.EventTypes()...)

	recorder := testutil.NewMockEventHandler(
		"OrderCreated", "OrderItemsChanged", "OrderStatusChanged",
	)
	bus.Subscribe(recorder, recorder.EventTypes()...)

	cfg := event.DefaultOutboxProcessorConfig()
	cfg.PollInterval = 50 * time.Millisecond
	cfg.CleanupEnabled = false
	processor := event.NewOutboxProcessor(event.NewGormOutboxRepository(db), bus, serializer, cfg, log)
	require.NoError(t, processor.Start(ctx))
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = processor.Stop(stopCtx)
	})

	env := &Env{
		DB:       db,
		Redis:    client,
		Service:  service,
		Recorder: recorder,
	}
	env.Catalog = seedCatalog(t, db)
	return env
}

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("printmarket_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")
	return dsn
}

func startRedis(t *testing.T, ctx context.Context) *redis.Client {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// applyMigrations runs the embedded migration set through lib/pq, the same
// path cmd/migrate takes.
func applyMigrations(t *testing.T, dsn string, log *zap.Logger) {
	t.Helper()

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.NewEmbedded(sqlDB, log)
	require.NoError(t, err, "Failed to create migrator")
	defer func() { _ = m.Close() }()

	require.NoError(t, m.Up(), "Failed to run migrations")
}

func connect(t *testing.T, dsn string) *gorm.DB {
	t.Helper()

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(level)})
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) Catalog {
	t.Helper()

	c := Catalog{
		Producer:         uuid.New(),
		InactiveProducer: uuid.New(),
		Product:          uuid.New(),
		Customization:    uuid.New(),
		Printer:          uuid.New(),
	}
	now := time.Now()
	rows := []any{
		&models.ProducerModel{ID: c.Producer, DisplayName: "Ink & Paper", Active: true, ApprovalStatus: models.ApprovalApproved, CreatedAt: now},
		&models.ProducerModel{ID: c.InactiveProducer, DisplayName: "Dormant Studio", Active: false, ApprovalStatus: models.ApprovalApproved, CreatedAt: now},
		&models.ProductModel{ID: c.Product, ProducerID: c.Producer, Name: "Poster A2", CreatedAt: now},
		&models.CustomizationModel{ID: c.Customization, ProductID: c.Product, Name: "Matte finish", CreatedAt: now},
		&models.PrinterModel{ID: c.Printer, Name: "Press 1", CreatedAt: now},
	}
	for _, row := range rows {
		require.NoError(t, db.Create(row).Error)
	}
	return c
}

// errCode returns the domain code carried by err, or "" for other errors
func errCode(err error) string {
	return shared.ErrorCode(err)
}
