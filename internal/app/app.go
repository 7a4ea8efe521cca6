package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/officechat-backend/internal/http"
	"github.com/yungbote/officechat-backend/internal/observability"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics
	Server   *http.Server

	shutdownTracing func(context.Context) error
	cancel          context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logMode == "production" || logMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Endpoint:    cfg.Tracing.Endpoint,
		Headers:     observability.ParseHeaders(cfg.Tracing.Headers),
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = shutdownTracing(context.Background())
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(log, cfg, clients)
	serviceset := wireServices(log, cfg, clients, reposet, metrics)
	handlerset := wireHandlers(log, cfg, clients, serviceset, metrics)
	middleware := wireMiddleware(log, cfg, serviceset)
	server := wireServer(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:             log,
		Cfg:             cfg,
		Clients:         clients,
		Repos:           reposet,
		Services:        serviceset,
		Metrics:         metrics,
		Server:          server,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Start launches background collectors. They stop when Close is called.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartPostgresCollector(ctx, a.Log, a.Clients.DB.DB(), observability.DefaultScrapeInterval)
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis, observability.DefaultScrapeInterval)
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if err := a.Clients.Close(); err != nil {
		a.Log.Warn("closing clients failed", "error", err)
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(context.Background()); err != nil {
			a.Log.Warn("tracing shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
