package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/tvbatch/internal/batch"
	"github.com/wonny/tvbatch/internal/export"
	"github.com/wonny/tvbatch/internal/history"
	"github.com/wonny/tvbatch/internal/runconfig"
	"github.com/wonny/tvbatch/internal/surface"
	"github.com/wonny/tvbatch/internal/surface/cdp"
	"github.com/wonny/tvbatch/internal/telemetry"
	"github.com/wonny/tvbatch/pkg/config"
	"github.com/wonny/tvbatch/pkg/database"
	"github.com/wonny/tvbatch/pkg/httputil"
	"github.com/wonny/tvbatch/pkg/logger"
	"github.com/wonny/tvbatch/pkg/redis"
)

// app holds what every command needs: process config, logger and the run
// configuration store
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	provider  runconfig.Provider
	selectors surface.Selectors
	client    *httputil.Client

	closers []func()
}

// bootstrap loads config, builds the logger and opens the run config store
// 순서: config.Load → logger.New → provider
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if runConfigPath != "" {
		cfg.RunConfigFile = runConfigPath
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)
	a := &app{
		cfg:    cfg,
		log:    log,
		client: httputil.New(cfg, log),
	}

	// 셀렉터는 항상 YAML 파일의 selectors 섹션에서 읽음
	file := runconfig.NewFileProvider(cfg.RunConfigFile)
	a.selectors, err = file.Selectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load selectors: %w", err)
	}

	switch cfg.RunConfigStore {
	case "redis":
		rc, err := redis.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rc.Close() })
		a.provider = runconfig.NewRedisProvider(rc, cfg.RunConfigKey)
	default:
		a.provider = file
	}

	log.WithFields(map[string]interface{}{
		"store": cfg.RunConfigStore,
		"env":   cfg.Env,
	}).Debug("Bootstrapped")

	return a, nil
}

// Close releases everything opened by bootstrap and connect, newest first
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// connect attaches to the browser page
func (a *app) connect(ctx context.Context) (*cdp.Surface, error) {
	s, conn, err := cdp.Open(ctx, a.cfg.Surface, a.client, a.selectors, a.log)
	if err != nil {
		return nil, fmt.Errorf("attach to browser: %w", err)
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })
	return s, nil
}

// exporter routes remote destinations through a rate limited, breaker guarded client
func (a *app) exporter() export.Exporter {
	remoteClient := httputil.New(a.cfg, a.log).
		WithRetry(2, time.Second).
		WithRateLimit(a.cfg.ExportRateLimit).
		WithCircuitBreaker("export", 3, 30*time.Second)

	return export.NewRouter(export.NewRemote(remoteClient), export.NewFile(""), a.log)
}

// controller wires a batch controller on top of s
func (a *app) controller(s surface.Surface, rec history.Recorder, metrics *telemetry.Metrics) *batch.Controller {
	return batch.New(batch.Deps{
		Surface:   s,
		Selectors: a.selectors,
		Exporter:  a.exporter(),
		History:   rec,
		Metrics:   metrics,
		Logger:    a.log,
	})
}

// history returns the run recorder: in-memory, plus Postgres when DATABASE_URL is set
func (a *app) history(ctx context.Context) (history.Recorder, error) {
	mem := history.NewMemory(0)
	if !a.cfg.HistoryEnabled() {
		return mem, nil
	}

	db, err := database.New(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	pg := history.NewPostgres(db.Pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}
	a.log.Info("Run history persisted to Postgres")

	// Latest는 첫 번째 recorder(Postgres)에서 조회
	return history.Multi{pg, mem}, nil
}
