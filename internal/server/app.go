// Package server provides the core application server and dependency wiring.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/school-portal-api/internal/api"
	"github.com/JakeFAU/school-portal-api/internal/clock/system"
	"github.com/JakeFAU/school-portal-api/internal/config"
	collyfetcher "github.com/JakeFAU/school-portal-api/internal/fetcher/colly"
	"github.com/JakeFAU/school-portal-api/internal/id/uuid"
	"github.com/JakeFAU/school-portal-api/internal/logging"
	"github.com/JakeFAU/school-portal-api/internal/notices"
	memorypublisher "github.com/JakeFAU/school-portal-api/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/school-portal-api/internal/publisher/pubsub"
	"github.com/JakeFAU/school-portal-api/internal/publisher/rabbitmq"
	"github.com/JakeFAU/school-portal-api/internal/school"
	firestorestore "github.com/JakeFAU/school-portal-api/internal/storage/firestore"
	memorystore "github.com/JakeFAU/school-portal-api/internal/storage/memory"
	mongostore "github.com/JakeFAU/school-portal-api/internal/storage/mongo"
	pgstore "github.com/JakeFAU/school-portal-api/internal/storage/postgres"
)

const shutdownGrace = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg            *config.Config
	logger         *zap.Logger
	apiServer      *api.Server
	store          school.StatusStore
	publisher      school.Publisher
	closePublisher func() error
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// Only non-sensitive fields; DSNs and broker URLs carry credentials.
	logger.Info("creating application",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("api_prefix", cfg.API.Prefix),
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("events_backend", cfg.Events.Backend),
		zap.Strings("cors_origins", cfg.CORS.Origins),
	)
	return &App{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return BuildWithLogger(ctx, cfg, logger)
}

// BuildWithLogger is Build with a caller-supplied logger.
func BuildWithLogger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app, err := NewApp(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app init failed: %w", err)
	}

	app.logger.Info("building application dependencies")
	if app.store, err = setupStore(ctx, app); err != nil {
		return nil, err
	}
	if err = setupPublisher(ctx, app); err != nil {
		if closeErr := app.store.Close(ctx); closeErr != nil {
			app.logger.Warn("store close failed", zap.Error(closeErr))
		}
		return nil, err
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})
	source := notices.NewSource(fetcher, notices.SourceConfig{
		URL:   cfg.NoticesURL(),
		Limit: cfg.Notices.Limit,
	}, app.logger.Named("notices"))
	app.logger.Info("notice source configured",
		zap.String("url", cfg.NoticesURL()),
		zap.Int("limit", cfg.Notices.Limit),
		zap.Duration("timeout", cfg.FetchTimeout()),
	)

	app.apiServer = api.NewServer(
		app.store,
		source,
		app.publisher,
		uuid.New(),
		system.New(),
		*cfg,
		app.logger,
	)
	return app, nil
}

func setupStore(ctx context.Context, app *App) (school.StatusStore, error) {
	cfg := app.cfg
	switch cfg.Store.Backend {
	case config.StoreMongo:
		store, err := mongostore.NewStatusStore(ctx, mongostore.Config{
			URL:            cfg.Mongo.URL,
			Database:       cfg.Mongo.Database,
			Collection:     cfg.Mongo.Collection,
			ConnectTimeout: time.Duration(cfg.Mongo.ConnectTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("mongo store init failed: %w", err)
		}
		app.logger.Info("using mongo status store",
			zap.String("database", cfg.Mongo.Database),
			zap.String("collection", cfg.Mongo.Collection),
		)
		return store, nil
	case config.StoreFirestore:
		store, err := firestorestore.NewStatusStore(ctx, firestorestore.Config{
			ProjectID:  cfg.Firestore.ProjectID,
			DatabaseID: cfg.Firestore.DatabaseID,
			Collection: cfg.Firestore.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("firestore store init failed: %w", err)
		}
		app.logger.Info("using firestore status store",
			zap.String("project", cfg.Firestore.ProjectID),
			zap.String("collection", cfg.Firestore.Collection),
		)
		return store, nil
	case config.StorePostgres:
		store, err := pgstore.NewStatusStore(ctx, pgstore.Config{
			DSN:             cfg.Database.DSN,
			Table:           cfg.Database.Table,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres store init failed: %w", err)
		}
		app.logger.Info("using postgres status store", zap.String("table", cfg.Database.Table))
		return store, nil
	case config.StoreMemory:
		app.logger.Warn("using in-memory status store, records are lost on restart")
		return memorystore.NewStatusStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

func setupPublisher(ctx context.Context, app *App) error {
	cfg := app.cfg
	switch cfg.Events.Backend {
	case config.EventsNone, "":
		app.logger.Info("status check events disabled")
	case config.EventsMemory:
		app.publisher = memorypublisher.New()
		app.logger.Info("using in-memory event publisher")
	case config.EventsPubSub:
		pub, err := gcppublisher.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			return fmt.Errorf("pubsub publisher init failed: %w", err)
		}
		app.publisher, app.closePublisher = pub, pub.Close
		app.logger.Info("Pub/Sub publisher initialized",
			zap.String("project", cfg.PubSub.ProjectID),
			zap.String("topic", cfg.PubSub.TopicName),
		)
	case config.EventsRabbitMQ:
		pub, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return fmt.Errorf("rabbitmq publisher init failed: %w", err)
		}
		app.publisher, app.closePublisher = pub, pub.Close
		app.logger.Info("RabbitMQ publisher initialized", zap.String("queue", cfg.RabbitMQ.Queue))
	default:
		return fmt.Errorf("unsupported events backend %q", cfg.Events.Backend)
	}
	return nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run listens on the configured port and blocks until SIGINT, SIGTERM or
// ctx cancellation, then shuts down. The app is closed on every return path.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.Port))
	if err != nil {
		err = fmt.Errorf("listen on port %d: %w", a.cfg.Server.Port, err)
		return errors.Join(err, a.Close(ctx))
	}
	return a.Serve(ctx, ln)
}

// Serve serves HTTP on ln until the context is canceled.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.logger.Info("application started")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	closeErr := a.Close(shutdownCtx)

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
		return closeErr
	}
}

// Close gracefully shuts down the application.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.closePublisher != nil {
		if err := a.closePublisher(); err != nil {
			a.logger.Warn("publisher close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.logger.Warn("store close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	a.logger.Info("shutdown complete")
	// Sync fails on non-file stdout; nothing useful to do with that.
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
