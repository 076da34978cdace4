package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/scope"
)

// Run executes the configured command and writes its result to outW as JSON.
// A sweep with failed scopes still writes every result before returning an
// error.
func (a *App) Run(ctx context.Context, cfg *Config, outW io.Writer) error {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.Run method started.", "command", cfg.Command)

	if err := a.startHealthCheckServer(ctx); err != nil {
		return err
	}
	defer a.closeHealthCheckServer(ctx)

	enc := json.NewEncoder(outW)
	enc.SetIndent("", "  ")

	switch cfg.Command {
	case CommandSweep:
		if cfg.Scope.DimensionContext != "" {
			res, err := a.ComputeScope(ctx, cfg.Scope, cfg.Options)
			if encErr := enc.Encode([]resultView{view(res)}); encErr != nil {
				return encErr
			}
			return err
		}
		results, err := a.Sweep(ctx, cfg.Scope.ServerID, cfg.Scope.NetworkVariant, cfg.Options)
		if err != nil {
			return err
		}
		views := make([]resultView, 0, len(results))
		failed := 0
		for _, r := range results {
			views = append(views, view(r))
			if r.Outcome == model.OutcomeFailed {
				failed++
			}
		}
		if err := enc.Encode(views); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scopes failed", failed, len(results))
		}
		return nil

	case CommandRoute:
		snap, err := a.ComputeRoute(ctx, cfg.Scope, cfg.RouteID)
		if err != nil {
			return err
		}
		return enc.Encode(snap)

	case CommandDiag:
		sum, err := a.RailDiagnostics(ctx, cfg.Scope, cfg.RouteID)
		if err != nil {
			return err
		}
		page, err := a.RailDiagnosticsPage(sum.JobID, cfg.Query)
		if err != nil {
			return err
		}
		return enc.Encode(page)
	}
	return fmt.Errorf("unknown command %q", cfg.Command)
}

type resultView struct {
	Scope        string        `json:"scope"`
	Outcome      model.Outcome `json:"outcome"`
	Fingerprint  string        `json:"fingerprint,omitempty"`
	Routes       int           `json:"routes"`
	Stations     int           `json:"stations"`
	FailedRoutes int           `json:"failedRoutes"`
	Error        string        `json:"error,omitempty"`
}

func view(r scope.Result) resultView {
	v := resultView{
		Scope:        r.Key.String(),
		Outcome:      r.Outcome,
		Fingerprint:  r.Fingerprint,
		Routes:       r.Commit.Routes,
		Stations:     r.Commit.Stations,
		FailedRoutes: r.Commit.FailedRoutes,
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	return v
}
