// Package app wires the arbgate server runtime: config, logging, metrics,
// storage, and the HTTP surface.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbgate/internal/arb"
	"arbgate/internal/auth/api"
	"arbgate/internal/auth/session"
	"arbgate/internal/gate"
	"arbgate/internal/identity"
	"arbgate/internal/kv"
)

// App is the arbgate server runtime.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	metrics *Metrics

	auth *api.Handler
	arb  *arb.Handler
	gate *gate.Gate
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	store, dbPool, dbEnabled, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	metrics := NewMetrics()

	users := identity.NewStore(kv.NewNamespace(store, "user"))
	sessions := session.NewService(sessCfg, log, users, session.NewStores(store))

	return &App{
		cfg:       cfg,
		log:       log,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		metrics:   metrics,
		auth:      api.NewHandler(log, api.DefaultConfig(), sessions, api.WithLoginMetrics(metrics.LoginOutcomes)),
		arb:       arb.NewHandler(log),
		gate:      gate.New(log, sessions, gate.WithDecisionMetrics(metrics.GateDecisions)),
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	a.registerHTTP(mux)

	handler := WithSecurityHeaders(mux)
	handler = WithRequestLogging(handler, a.log, a.metrics)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

// newStore decides between Postgres-backed persistence and the in-memory dev
// store. The Postgres path creates the kv table on startup.
func newStore(ctx context.Context, cfg Config, log Logger) (kv.Store, *pgxpool.Pool, bool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("kv.store.memory")
		return kv.NewMemoryStore(), nil, false, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, err
	}

	if err := kv.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, false, err
	}

	log.Info("kv.store.postgres")
	return kv.NewPostgresStore(pool, cfg.KVTimeout), pool, true, nil
}
