package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"scoria/internal/config"
	"scoria/internal/events"
	"scoria/internal/host"
	"scoria/internal/metrics"
	"scoria/internal/registry"
	"scoria/internal/state"
	"scoria/internal/state/leveldb"
	"scoria/internal/state/postgres"
	"scoria/internal/state/sqlite"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

const startupTimeout = 10 * time.Second

type App struct {
	cfg      *config.Config
	log      *zap.Logger
	store    state.Store
	registry *registry.Registry
	hub      *events.Hub
	prom     *metrics.Prometheus
	host     *host.Server
	server   *http.Server
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	store, err := openStore(cfg.State)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.State.Backend, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	info, ok, err := state.AssertContract(ctx, store, registry.ContractName)
	if err != nil {
		return nil, closeOnError(store, err)
	}
	if ok && info.Version != registry.ContractVersion {
		return nil, closeOnError(store, fmt.Errorf("store holds %s version %s, this build serves version %s", info.Contract, info.Version, registry.ContractVersion))
	}
	if ok {
		log.Info("contract state found", zap.String("contract", info.Contract), zap.String("version", info.Version))
	} else {
		log.Info("store not instantiated yet")
	}

	m := metrics.NewNoop()
	var prom *metrics.Prometheus
	if cfg.Metrics.EnabledValue() {
		prom = metrics.NewPrometheus()
		m = prom.Metrics
	}
	var hub *events.Hub
	if cfg.Events.EnabledValue() {
		hub = events.NewHub(cfg.Events.BufferSize, log, m.EventsDropped)
	}
	reg := registry.New(store, log, m)
	hostServer := host.NewServer(reg, store, host.Options{
		ChainID:      cfg.Server.ChainID,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Hub:          hub,
		Metrics:      m,
		Log:          log,
	})

	a := &App{
		cfg:      cfg,
		log:      log,
		store:    store,
		registry: reg,
		hub:      hub,
		prom:     prom,
		host:     hostServer,
	}
	a.server = &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      a.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return a, nil
}

func openStore(cfg config.StateConfig) (state.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return sqlite.New(cfg.SQLitePath)
	case config.BackendPostgres:
		return postgres.New(cfg.Postgres)
	case config.BackendLevelDB:
		return leveldb.New(cfg.LevelDBPath)
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

func closeOnError(store state.Store, err error) error {
	if closeErr := store.Close(); closeErr != nil {
		return multierror.Append(err, fmt.Errorf("close store: %w", closeErr))
	}
	return err
}

// Handler returns the node's full HTTP surface.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	a.host.Register(mux)
	if a.prom != nil {
		mux.Handle("GET "+a.cfg.Metrics.Path, a.prom.Handler())
	}
	if a.hub != nil {
		mux.Handle("GET "+a.cfg.Events.Path, a.hub)
	}
	return mux
}

// Run serves on the configured address until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		_ = a.Close()
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully and
// closes the store.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.log.Info("serving",
		zap.String("addr", ln.Addr().String()),
		zap.String("backend", a.cfg.State.Backend),
		zap.Int64("chain_id", a.cfg.Server.ChainID),
	)
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Serve(ln)
	}()

	var result error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			result = multierror.Append(result, err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			result = multierror.Append(result, fmt.Errorf("shutdown: %w", err))
		}
		result = appendErr(result, ctx.Err())
	}
	if err := a.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

func appendErr(result, err error) error {
	if err == nil {
		return result
	}
	if result == nil {
		return err
	}
	return multierror.Append(result, err)
}

func (a *App) Close() error {
	var result *multierror.Error
	if a.hub != nil {
		a.hub.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close store: %w", err))
		}
		a.store = nil
	}
	return result.ErrorOrNil()
}
