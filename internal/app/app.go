package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/fitcoach-backend/internal/data/db"
	"github.com/yungbote/fitcoach-backend/internal/data/kv"
	"github.com/yungbote/fitcoach-backend/internal/http"
	"github.com/yungbote/fitcoach-backend/internal/modules/coach"
	"github.com/yungbote/fitcoach-backend/internal/modules/origin"
	"github.com/yungbote/fitcoach-backend/internal/observability"
	"github.com/yungbote/fitcoach-backend/internal/platform/envutil"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

const serviceName = "fitcoach-backend"

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Store    kv.Store
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics
	Server   *http.Server

	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	otelCfg := observability.OtelConfigFromEnv(serviceName, cfg.Env, envutil.String("APP_VERSION", "dev"))
	otelShutdown := observability.InitOTel(ctx, log, otelCfg)
	metrics := observability.Init()

	dbs, err := openDatabase(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		closeDB(dbs)
		log.Sync()
		return nil, err
	}

	theDB := dbOrNil(dbs)
	store, err := wireStore(log, cfg, theDB, clients)
	if err != nil {
		clients.Close()
		closeDB(dbs)
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)

	origins, err := origin.NewService(log, cfg.Origin.Secret, cfg.OriginTTL())
	if err != nil {
		_ = store.Close()
		clients.Close()
		closeDB(dbs)
		log.Sync()
		return nil, fmt.Errorf("init origin service: %w", err)
	}
	services := Services{
		Origins: origins,
		Coach: coach.New(coach.UsecasesDeps{
			Log:       log,
			AI:        clients.OpenAI,
			Store:     store,
			Runs:      reposet.GenerationRuns,
			Events:    clients.Events,
			Metrics:   metrics,
			Config:    cfg.CoachConfig(),
			ChartFont: cfg.Coach.ChartFont,
			ChatModel: cfg.Coach.ChatModel,
		}),
	}

	tracing := ""
	if otelCfg.Enabled {
		tracing = serviceName
	}
	handlerset := wireHandlers(log, services, readinessChecks(dbs, clients))
	middleware := wireMiddleware(log, origins)
	server := wireServer(log, cfg, metrics, tracing, handlerset, middleware)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           dbs,
		Store:        store,
		Clients:      clients,
		Services:     services,
		Metrics:      metrics,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "addr", addr, "kv_backend", a.Cfg.KV.Backend, "db_driver", a.Cfg.DB.Driver)
	return a.Server.Run(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
	a.Clients.Close()
	closeDB(a.DB)
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

func closeDB(s *db.Service) {
	if s != nil {
		_ = s.Close()
	}
}
