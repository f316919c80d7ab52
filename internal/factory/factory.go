package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/scopa-go/internal/cards"
	"github.com/mcoot/scopa-go/internal/client"
	"github.com/mcoot/scopa-go/internal/dependencies/clock"
	"github.com/mcoot/scopa-go/internal/dependencies/random"
	"github.com/mcoot/scopa-go/internal/metrics"
	"github.com/mcoot/scopa-go/internal/middleware"
	"github.com/mcoot/scopa-go/internal/model"
	"github.com/mcoot/scopa-go/internal/session"
	"github.com/mcoot/scopa-go/internal/storage"
	filestorage "github.com/mcoot/scopa-go/internal/storage/file"
	"github.com/mcoot/scopa-go/internal/storage/memory"
	redisstorage "github.com/mcoot/scopa-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeFile   = "file"
	StorageTypeRedis  = "redis"
)

// Transport constants
const (
	TransportPoll = "poll"
	TransportPush = "push"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Server access
	Client  *client.Client
	Catalog *cards.Catalog

	// Observability
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	SessionConfig session.Config
	Transport     string

	closer io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// ServerURL is the base URL of the game server
	ServerURL string
	// RequestTimeout bounds each request to the server (optional)
	RequestTimeout time.Duration
	// StorageType selects the storage backend ("file", "memory" or "redis").
	// If empty, defaults to "file"
	StorageType string
	// StoragePath is the state file of the file backend (optional)
	StoragePath string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// CatalogPath is a cards.json file replacing the default catalog (optional)
	CatalogPath string
	// AssetBase prefixes the default catalog's image paths (optional)
	AssetBase string
	// Session holds the session timing policy.
	// If zero value, defaults to session.DefaultConfig()
	Session session.Config
	// Transport is "poll" or "push". If empty, defaults to "poll"
	Transport string
	// Registry receives the metrics (optional)
	Registry *prometheus.Registry
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var (
		store  storage.Storage
		closer io.Closer
	)
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeFile
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeFile:
		path := cfg.StoragePath
		if path == "" {
			path = filestorage.DefaultPath()
		}
		store = filestorage.New(path)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closer = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'file', 'memory' or 'redis'")
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	app := newWithDependencies(store, clk, rnd, catalog, cfg, logger)
	app.closer = closer
	return app, nil
}

func loadCatalog(cfg Config) (*cards.Catalog, error) {
	if cfg.CatalogPath == "" {
		return cards.DefaultCatalog(cfg.AssetBase), nil
	}

	f, err := os.Open(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open card catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	return cards.LoadCatalog(f, cards.DefaultCatalog(cfg.AssetBase).BackImage())
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	catalog *cards.Catalog,
	cfg Config,
	logger *slog.Logger,
) *App {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	sessionCfg := cfg.Session
	if sessionCfg.PollInterval == 0 {
		sessionCfg = session.DefaultConfig()
	}

	transport := cfg.Transport
	if transport == "" {
		transport = TransportPoll
	}

	rt := middleware.Chain(http.DefaultTransport,
		middleware.Recovery(logger),
		middleware.Counting(m),
		middleware.Logging(logger),
	)

	opts := []client.Option{client.WithTransport(rt)}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.RequestTimeout))
	}

	return &App{
		Storage:       store,
		Clock:         clk,
		Random:        rnd,
		Client:        client.New(cfg.ServerURL, opts...),
		Catalog:       catalog,
		Metrics:       m,
		Logger:        logger,
		SessionConfig: sessionCfg,
		Transport:     transport,
	}
}

// Identity returns this client's player identity, creating it on first use
func (a *App) Identity(ctx context.Context) (model.PlayerIdentity, error) {
	return storage.EnsureIdentity(ctx, a.Storage, a.Random)
}

// NewController creates a session controller for player drawing on view
func (a *App) NewController(player model.PlayerIdentity, view session.View) *session.Controller {
	return session.NewController(a.SessionConfig, player, session.Deps{
		API:     a.Client,
		Storage: a.Storage,
		View:    view,
		Catalog: a.Catalog,
		Clock:   a.Clock,
		Metrics: a.Metrics,
		Logger:  a.Logger,
	})
}

// NewTrigger creates the refresh trigger for the configured transport
func (a *App) NewTrigger() session.Trigger {
	if a.Transport == TransportPush {
		return session.NewPushTrigger(a.Client.BaseURL(), a.SessionConfig, a.Clock, a.Logger)
	}
	return session.NewPollTrigger(a.Clock, a.SessionConfig.PollInterval)
}

// Close releases the storage backend
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
