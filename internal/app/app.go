// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/law-makers/nepafeed/internal/cache"
	"github.com/law-makers/nepafeed/internal/config"
	"github.com/law-makers/nepafeed/internal/engine"
	"github.com/law-makers/nepafeed/internal/engine/api"
	"github.com/law-makers/nepafeed/internal/engine/dynamic"
	"github.com/law-makers/nepafeed/internal/engine/static"
	"github.com/law-makers/nepafeed/internal/normalize"
	"github.com/law-makers/nepafeed/internal/proxy"
	"github.com/law-makers/nepafeed/internal/ratelimit"
	"github.com/law-makers/nepafeed/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config          *config.Config
	Logger          *zerolog.Logger
	Cache           cache.Cache
	BrowserPool     *dynamic.BrowserPool
	poolMu          sync.Mutex
	RateLimiter     ratelimit.RateLimiter
	Proxies         *proxy.Pool
	HTTPClient      *http.Client
	APIStrategy     *api.Strategy
	StaticStrategy  *static.Strategy
	DynamicStrategy *dynamic.Strategy
	Retriever       *engine.Ladder
	startTime       time.Time
	now             func() time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the per-run term cache
//   - Creates the rate limiter for host-based request throttling
//   - Initializes the HTTP client with timeout and proxy rotation
//   - Builds the retrieval ladder for the configured mode
//
// The browser pool is not started here; see EnsureBrowserPool.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var logWriter io.Writer
	if cfg.JSONLog {
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stderr })
	}
	logger := NewLogger(cfg, logWriter)

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	memCache := cache.NewMemoryCache(cfg.CacheMaxEntries)
	logger.Debug().Int("max_entries", cfg.CacheMaxEntries).Msg("Term cache initialized")

	rateLimiter := ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	proxies, err := proxy.NewPool(cfg.Proxy)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: proxy.NewTransport(&http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		}, proxies),
	}
	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Int("proxies", proxies.Len()).
		Msg("HTTP client initialized")

	apiStrategy := api.New(httpClient, rateLimiter, normalize.New(cfg.BaseURL), api.Options{
		Endpoint:  cfg.BaseURL + cfg.APIPath,
		UserAgent: cfg.UserAgent,
		Headers:   cfg.Headers,
	})
	staticStrategy := static.New(httpClient, rateLimiter, static.Options{
		SearchURL: cfg.BaseURL + cfg.SearchPath,
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Headers:   cfg.Headers,
	})
	// No pool yet; EnsureBrowserPool attaches one when the browser rung is used.
	dynamicStrategy := dynamic.New(rateLimiter, dynamic.Options{
		SearchURL:      cfg.BaseURL + cfg.SearchPath,
		BaseURL:        cfg.BaseURL,
		DOMWait:        cfg.DOMWait,
		AcquireTimeout: cfg.PoolAcquireTimeout,
	})

	app := &Application{
		Config:          cfg,
		Logger:          &logger,
		Cache:           memCache,
		RateLimiter:     rateLimiter,
		Proxies:         proxies,
		HTTPClient:      httpClient,
		APIStrategy:     apiStrategy,
		StaticStrategy:  staticStrategy,
		DynamicStrategy: dynamicStrategy,
		startTime:       time.Now(),
		now:             time.Now,
	}

	strategies, err := app.strategiesFor(cfg.Mode)
	if err != nil {
		return nil, err
	}
	app.Retriever = engine.NewLadder(memCache, cfg.CacheTTL, strategies...)
	logger.Debug().Str("ladder", app.Retriever.Name()).Msg("Retrieval ladder initialized")

	logger.Info().Msg("Application initialized successfully")
	return app, nil
}

// NewLogger builds the application logger and installs it as the global
// logger used by the retrieval engine.
func NewLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level := zerolog.ErrorLevel
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	}
	if cfg.Quiet {
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(w).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

func (a *Application) strategiesFor(mode models.RetrievalMode) ([]engine.Strategy, error) {
	switch mode {
	case models.ModeAuto, "":
		strategies := []engine.Strategy{a.APIStrategy, a.StaticStrategy}
		if a.Config.Browser {
			strategies = append(strategies, a.DynamicStrategy)
		}
		return strategies, nil
	case models.ModeAPI:
		return []engine.Strategy{a.APIStrategy}, nil
	case models.ModeStatic:
		return []engine.Strategy{a.StaticStrategy}, nil
	case models.ModeBrowser:
		return []engine.Strategy{a.DynamicStrategy}, nil
	default:
		return nil, fmt.Errorf("unknown retrieval mode %q", mode)
	}
}

// UsesBrowser reports whether the ladder includes the rendered-DOM rung.
func (a *Application) UsesBrowser() bool {
	for _, s := range a.Retriever.Strategies() {
		if s == engine.Strategy(a.DynamicStrategy) {
			return true
		}
	}
	return false
}

// EnsureBrowserPool lazily creates the browser pool if it has not already been
// initialized.
func (a *Application) EnsureBrowserPool(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("application is nil")
	}

	a.poolMu.Lock()
	defer a.poolMu.Unlock()

	if a.BrowserPool != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := a.Logger
	logger.Debug().Msg("Initializing browser pool on demand")
	pool, err := dynamic.NewBrowserPool(dynamic.BrowserPoolOptions{
		Size:       1,
		Headless:   a.Config.BrowserHeadless,
		UserAgent:  a.Config.UserAgent,
		Proxy:      a.Proxies.First(),
		ChromePath: a.Config.ChromePath,
	})
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}

	a.BrowserPool = pool
	a.DynamicStrategy.SetBrowserPool(pool)

	logger.Info().Int("pool_size", pool.Size()).Msg("Browser pool initialized on demand")
	return nil
}

// Search runs the retrieval ladder for a single term.
func (a *Application) Search(ctx context.Context, term models.SearchTerm) ([]models.Record, error) {
	if a.UsesBrowser() {
		if err := a.EnsureBrowserPool(ctx); err != nil {
			return nil, err
		}
	}
	return a.Retriever.Retrieve(ctx, term)
}

// Close releases the browser pool, cache and idle connections.
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Info().Msg("Shutting down application")

	if a.BrowserPool != nil {
		if err := a.BrowserPool.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing browser pool")
		}
	}

	if a.Cache != nil {
		a.Cache.Close()
	}

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Info().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
