// Package factory wires storage, notifiers and services into an App.
package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/dinkup/internal/api"
	"github.com/mcoot/dinkup/internal/api/sse"
	"github.com/mcoot/dinkup/internal/config"
	"github.com/mcoot/dinkup/internal/dependencies/clock"
	"github.com/mcoot/dinkup/internal/dependencies/idgen"
	"github.com/mcoot/dinkup/internal/services/auth"
	"github.com/mcoot/dinkup/internal/services/billing"
	"github.com/mcoot/dinkup/internal/services/notify"
	"github.com/mcoot/dinkup/internal/services/paylink"
	"github.com/mcoot/dinkup/internal/services/payment"
	"github.com/mcoot/dinkup/internal/services/player"
	"github.com/mcoot/dinkup/internal/services/pool"
	"github.com/mcoot/dinkup/internal/services/roster"
	"github.com/mcoot/dinkup/internal/services/session"
	"github.com/mcoot/dinkup/internal/storage"
	"github.com/mcoot/dinkup/internal/storage/memory"
	redisstorage "github.com/mcoot/dinkup/internal/storage/redis"
	"github.com/mcoot/dinkup/internal/storage/sqlstore"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	IDs   idgen.Generator

	// Notification fan-out
	Notifier   notify.Notifier
	HubManager *sse.HubManager

	// Services
	AuthService       *auth.Service
	PlayerService     *player.Service
	PoolController    *pool.Controller
	SessionController *session.Controller
	RosterController  *roster.Controller
	BillingController *billing.Controller
	PaymentTracker    *payment.Tracker

	logger         *slog.Logger
	reminderWindow time.Duration
	closers        []func() error
}

// Config holds configuration for the application factory
type Config struct {
	// StorageType selects the storage backend: memory, redis, postgres or sqlite.
	// If empty, defaults to memory.
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is redis)
	RedisConfig *redisstorage.Config
	// DatabaseDSN is the SQL connection string (required for postgres and sqlite)
	DatabaseDSN string
	// EventsChannel is the Redis pub/sub channel for events. Publishing only
	// happens when Redis storage is in use.
	EventsChannel string

	// AuthConfig holds configuration for the auth service.
	// If its TokenTTL is zero, auth.DefaultConfig() supplies the defaults.
	AuthConfig    auth.Config
	BillingConfig billing.Config
	// PayLinkBaseURL overrides the payment link endpoint (optional)
	PayLinkBaseURL string
	// ReminderWindow is the default look-ahead for payment deadline reminders
	ReminderWindow time.Duration

	// Logger is the application logger (optional).
	// If nil, a no-op logger is used.
	Logger *slog.Logger
}

// ConfigFromEnv maps the server configuration onto a factory Config
func ConfigFromEnv(cfg config.Config, logger *slog.Logger) Config {
	authCfg := auth.DefaultConfig()
	authCfg.Secret = cfg.JWTSecret
	authCfg.TokenTTL = cfg.TokenTTL

	var redisCfg *redisstorage.Config
	if cfg.RedisURL != "" {
		rc := redisstorage.DefaultConfig()
		rc.URL = cfg.RedisURL
		redisCfg = &rc
	}

	return Config{
		StorageType:    cfg.StorageType,
		RedisConfig:    redisCfg,
		DatabaseDSN:    cfg.DatabaseDSN,
		EventsChannel:  cfg.EventsChannel,
		AuthConfig:     authCfg,
		BillingConfig:  billing.Config{AdminsExempt: cfg.AdminsExempt, Location: cfg.Location()},
		PayLinkBaseURL: cfg.PayLinkBaseURL,
		ReminderWindow: cfg.ReminderWindow,
		Logger:         logger,
	}
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	var (
		store       storage.Storage
		redisClient *redis.Client
		closers     []func() error
	)

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store = redisStore
		redisClient = redisStore.Client()
		closers = append(closers, redisStore.Close)
	case StorageTypePostgres, StorageTypeSQLite:
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DatabaseDSN required when StorageType is %s", storageType)
		}
		dsn := cfg.DatabaseDSN
		if storageType == StorageTypeSQLite && !strings.Contains(dsn, "?") {
			dsn = sqlstore.SQLiteDSN(dsn)
		}
		sqlStore, err := sqlstore.Open(ctx, sqlstore.Config{Driver: storageType, DSN: dsn})
		if err != nil {
			return nil, err
		}
		store = sqlStore
		closers = append(closers, sqlStore.Close)
	default:
		return nil, errors.New("invalid StorageType: must be memory, redis, postgres or sqlite")
	}

	hub := sse.NewHubManager(logger)
	notifiers := notify.Multi{notify.NewLogNotifier(logger), hub}
	if redisClient != nil && cfg.EventsChannel != "" {
		notifiers = append(notifiers, notify.NewRedisNotifier(redisClient, cfg.EventsChannel))
	}

	authCfg := cfg.AuthConfig
	if authCfg.TokenTTL == 0 {
		defaults := auth.DefaultConfig()
		defaults.Secret = authCfg.Secret
		authCfg = defaults
	}

	app := newWithDependencies(store, clock.New(), idgen.New(), notifiers, hub, authCfg, cfg, logger)
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	ids idgen.Generator,
	notifier notify.Notifier,
	hub *sse.HubManager,
	authCfg auth.Config,
	cfg Config,
	logger *slog.Logger,
) *App {
	dispatcher := notify.NewDispatcher(notifier, logger)
	links := paylink.NewVenmo(cfg.PayLinkBaseURL)

	reminderWindow := cfg.ReminderWindow
	if reminderWindow <= 0 {
		reminderWindow = 24 * time.Hour
	}

	return &App{
		Storage:           store,
		Clock:             clk,
		IDs:               ids,
		Notifier:          notifier,
		HubManager:        hub,
		AuthService:       auth.New(store, clk, ids, authCfg, logger),
		PlayerService:     player.New(store, logger),
		PoolController:    pool.NewController(store, clk, ids, logger),
		SessionController: session.NewController(store, clk, ids, dispatcher, logger),
		RosterController:  roster.NewController(store, clk, ids, dispatcher, logger),
		BillingController: billing.NewController(store, links, clk, ids, dispatcher, cfg.BillingConfig, logger),
		PaymentTracker:    payment.NewTracker(store, clk, dispatcher, logger),
		logger:            logger,
		reminderWindow:    reminderWindow,
	}
}

// Handler builds the HTTP API router over the app's services
func (a *App) Handler() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:            a.logger,
		AuthService:       a.AuthService,
		PlayerService:     a.PlayerService,
		PoolController:    a.PoolController,
		SessionController: a.SessionController,
		RosterController:  a.RosterController,
		BillingController: a.BillingController,
		PaymentTracker:    a.PaymentTracker,
		HubManager:        a.HubManager,
		ReminderWindow:    a.reminderWindow,
	})
}

// Close disconnects SSE clients and releases storage connections
func (a *App) Close() error {
	a.HubManager.Close()
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
