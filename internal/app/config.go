package app

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/railmap/internal/config"
	"github.com/specialistvlad/railmap/internal/diagnostics"
	"github.com/specialistvlad/railmap/internal/hcl_adapter"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/scope"
)

// Commands understood by Run.
const (
	CommandSweep = "sweep"
	CommandRoute = "route"
	CommandDiag  = "diag"
)

// Config holds everything one invocation needs: what to run and the
// settings that override the configuration file.
type Config struct {
	ConfigPath string // .hcl, .yaml or .yml; optional

	Command string
	Scope   model.ScopeKey
	RouteID string
	Options scope.Options
	Query   diagnostics.Query

	Overrides Overrides
}

// Overrides are explicitly set flags. Zero values leave the file settings alone.
type Overrides struct {
	LogFormat       string
	LogLevel        string
	DatabaseDialect string
	DatabaseDSN     string
	Workers         int
	HealthcheckPort int
}

// NewConfig validates an invocation.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandSweep:
	case CommandRoute, CommandDiag:
		if cfg.Scope.DimensionContext == "" {
			return nil, fmt.Errorf("command %q requires a dimension", cfg.Command)
		}
		if cfg.RouteID == "" {
			return nil, fmt.Errorf("command %q requires a route id", cfg.Command)
		}
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	if cfg.Scope.ServerID == "" {
		return nil, errors.New("server is a required configuration field and cannot be empty")
	}
	if cfg.Scope.NetworkVariant == "" {
		return nil, errors.New("network variant is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}

// loaderFor picks the configuration loader by file extension.
func loaderFor(path string) (config.Loader, error) {
	switch filepath.Ext(path) {
	case ".hcl":
		return hcl_adapter.NewLoader(), nil
	case ".yaml", ".yml":
		return config.YAMLLoader{}, nil
	}
	return nil, fmt.Errorf("unsupported config file %s: expected .hcl, .yaml or .yml", path)
}

func (o Overrides) apply(m *config.Model) {
	if o.LogFormat != "" {
		m.Log.Format = o.LogFormat
	}
	if o.LogLevel != "" {
		m.Log.Level = o.LogLevel
	}
	if o.DatabaseDialect != "" {
		m.Database.Dialect = o.DatabaseDialect
	}
	if o.DatabaseDSN != "" {
		m.Database.DSN = o.DatabaseDSN
	}
	if o.Workers > 0 {
		m.Compute.Workers = o.Workers
	}
	if o.HealthcheckPort > 0 {
		m.Health.Port = o.HealthcheckPort
	}
}
