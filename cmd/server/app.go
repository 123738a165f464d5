package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/naskhq/nask/internal/broker"
	"github.com/naskhq/nask/internal/broker/membroker"
	"github.com/naskhq/nask/internal/broker/redisbroker"
	"github.com/naskhq/nask/internal/config"
	"github.com/naskhq/nask/internal/dispatcher"
	"github.com/naskhq/nask/internal/events"
	"github.com/naskhq/nask/internal/executor"
	"github.com/naskhq/nask/internal/identity"
	"github.com/naskhq/nask/internal/notify"
	"github.com/naskhq/nask/internal/platform/postgres"
	"github.com/naskhq/nask/internal/reconcile"
	"github.com/naskhq/nask/internal/store"
	"github.com/naskhq/nask/internal/store/memstore"
)

// application bundles the wired components and owns their lifecycles.
type application struct {
	config *config.Config
	logger *slog.Logger

	taskStore  store.TaskStore
	queue      broker.Broker
	backend    broker.Backend
	registry   *executor.Registry
	emitter    *events.InMemoryEmitter
	pool       *executor.Pool
	dispatcher *dispatcher.Dispatcher
	reconciler *reconcile.Reconciler
	ingest     *notify.IngestService

	db          *sql.DB
	redisClient *goredis.Client
	brokerStop  context.CancelFunc
}

// newApplication wires every component from configuration. The returned
// application is ready to run; nothing is listening yet.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	if err := app.setupStore(); err != nil {
		return nil, err
	}
	if err := app.setupBroker(); err != nil {
		return nil, err
	}

	app.registry = executor.BuiltinRegistry()
	app.emitter = events.NewInMemoryEmitter(logger)

	notifier := notify.New(notify.Config{
		ConnectTimeout: cfg.Notifier.ConnectTimeout,
		ReadTimeout:    cfg.Notifier.ReadTimeout,
		MaxAttempts:    cfg.Notifier.MaxAttempts,
	}, logger)
	app.emitter.RegisterHandler(notifier)

	app.pool = executor.NewPool(
		app.taskStore,
		app.backend,
		app.registry,
		app.queue.Jobs(),
		app.emitter,
		executor.PoolConfig{WorkerCount: cfg.Worker.Count},
		logger,
	)

	app.dispatcher = dispatcher.New(
		app.taskStore,
		app.queue,
		app.registry,
		identity.UUID{},
		dispatcher.DefaultConfig(),
		logger,
	)
	app.reconciler = reconcile.New(app.taskStore, app.backend, logger)
	app.ingest = notify.NewIngestService(app.taskStore, logger)

	return app, nil
}

func (app *application) setupStore() error {
	switch app.config.Store.Driver {
	case "postgres":
		db, err := setupAppDatabase(app.config, app.logger)
		if err != nil {
			return err
		}
		app.db = db
		app.taskStore = postgres.NewPostgresTaskStore(db)
	case "memory":
		app.taskStore = memstore.New()
	default:
		return fmt.Errorf("unknown store driver %q", app.config.Store.Driver)
	}
	return nil
}

func (app *application) setupBroker() error {
	switch app.config.Broker.Driver {
	case "redis":
		app.redisClient = goredis.NewClient(&goredis.Options{
			Addr: app.config.Broker.RedisAddr,
		})
		b := redisbroker.NewBroker(app.redisClient, app.config.Broker.Queue, app.logger)

		ctx, cancel := context.WithCancel(context.Background())
		app.brokerStop = cancel
		go b.Run(ctx)

		app.queue = b
		app.backend = redisbroker.NewBackend(app.redisClient)
	case "memory":
		b := membroker.NewBroker(app.config.Broker.QueueSize, app.logger)
		app.queue = b
		app.backend = membroker.NewBackend()
	default:
		return fmt.Errorf("unknown broker driver %q", app.config.Broker.Driver)
	}
	return nil
}

// run starts the worker pool and the HTTP server, then blocks until
// shutdown completes.
func (app *application) run() error {
	app.pool.Start()
	return app.startHTTPServer(app.setupRouter())
}

// cleanup releases everything run acquired, in reverse dependency order:
// stop feeding the pool, drain it, flush in-flight notifications, then
// close external connections.
func (app *application) cleanup() {
	if app.brokerStop != nil {
		app.brokerStop()
	}
	if err := app.queue.Close(); err != nil {
		app.logger.Error("failed to close broker", "error", err)
	}

	app.pool.Stop()
	app.emitter.Wait()

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("failed to close redis client", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
