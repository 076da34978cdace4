package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/railmap/internal/compute"
	"github.com/specialistvlad/railmap/internal/config"
	"github.com/specialistvlad/railmap/internal/ctxlog"
	"github.com/specialistvlad/railmap/internal/diagnostics"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/notify"
	"github.com/specialistvlad/railmap/internal/scope"
	"github.com/specialistvlad/railmap/internal/sqlstore"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger       *slog.Logger
	model        *config.Model
	store        *sqlstore.Store
	publisher    notify.Publisher
	orchestrator *scope.Orchestrator
	diagnostics  *diagnostics.Service
	httpServer   *http.Server
}

// NewApp loads the configuration file, applies the overrides, opens the
// database and wires the services. Logs go to logW.
func NewApp(ctx context.Context, logW io.Writer, cfg *Config) (*App, error) {
	m := &config.Model{}
	if cfg.ConfigPath != "" {
		loader, err := loaderFor(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		if m, err = loader.Load(ctx, cfg.ConfigPath); err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}
	cfg.Overrides.apply(m)
	m, err := config.Finalize(m)
	if err != nil {
		return nil, err
	}

	logger := newLogger(m.Log, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	st, err := sqlstore.Open(m.Database.Dialect, m.Database.DSN)
	if err != nil {
		return nil, err
	}
	logger.Debug("Database opened.", "dialect", m.Database.Dialect)

	a := &App{logger: logger, model: m, store: st, publisher: notify.Nop{}}
	if m.Notify != nil {
		pub, err := notify.DialSocketIO(ctx, notify.SocketIOConfig{
			URL:                m.Notify.URL,
			Namespace:          m.Notify.Namespace,
			Event:              m.Notify.Event,
			ConnectTimeout:     m.Notify.ConnectTimeout,
			InsecureSkipVerify: m.Notify.InsecureSkipVerify,
		})
		if err != nil {
			logger.Warn("Scope events disabled: publisher unavailable.", "error", err)
		} else {
			a.publisher = pub
		}
	}

	pipeline := compute.New(compute.Options{
		Workers:       m.Compute.Workers,
		VisitCap:      m.Compute.VisitCap,
		MaxSnapRing:   m.Compute.MaxSnapRing,
		SplitDistance: m.Compute.SplitDistance,
	}, nil)
	a.orchestrator = scope.New(scope.Config{
		Source:    st,
		Snapshots: st,
		Pipeline:  pipeline,
		Publisher: a.publisher,
	})
	a.diagnostics = diagnostics.NewService(diagnostics.Config{
		Source:      st,
		Pipeline:    pipeline,
		MaxSnapRing: m.Compute.MaxSnapRing,
		TTL:         m.Diagnostics.TTL,
	})
	return a, nil
}

// Store returns the application's store. This is primarily for testing.
func (a *App) Store() *sqlstore.Store {
	return a.store
}

// Sweep computes every scope of a server's network variant.
func (a *App) Sweep(ctx context.Context, serverID, variant string, opts scope.Options) ([]scope.Result, error) {
	return a.orchestrator.Sweep(a.withLogger(ctx), serverID, variant, opts)
}

// ComputeScope computes one scope.
func (a *App) ComputeScope(ctx context.Context, key model.ScopeKey, opts scope.Options) (scope.Result, error) {
	return a.orchestrator.ComputeScope(a.withLogger(ctx), key, opts)
}

// ComputeRoute recomputes one route and the station maps it touches.
func (a *App) ComputeRoute(ctx context.Context, key model.ScopeKey, routeID string) (model.RouteGeometrySnapshot, error) {
	return a.orchestrator.ComputeRoute(a.withLogger(ctx), key, routeID)
}

// RailDiagnostics starts a rail diagnostics job for one route.
func (a *App) RailDiagnostics(ctx context.Context, key model.ScopeKey, routeID string) (diagnostics.JobSummary, error) {
	return a.diagnostics.StartRailJob(a.withLogger(ctx), key, routeID)
}

// RailDiagnosticsPage reads one page of a cached diagnostics job.
func (a *App) RailDiagnosticsPage(jobID string, q diagnostics.Query) (diagnostics.Page, error) {
	return a.diagnostics.Page(jobID, q)
}

// Close stops the health server and releases the publisher and database.
func (a *App) Close() error {
	ctx := ctxlog.WithLogger(context.Background(), a.logger)
	return errors.Join(
		a.closeHealthCheckServer(ctx),
		a.publisher.Close(),
		a.store.Close(),
	)
}

func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
