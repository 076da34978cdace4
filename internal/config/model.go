package config

import "time"

// Model is the unified, format-agnostic representation of the application
// configuration.
type Model struct {
	Log         Log         `yaml:"log"`
	Database    Database    `yaml:"database"`
	Compute     Compute     `yaml:"compute"`
	Diagnostics Diagnostics `yaml:"diagnostics"`
	Health      Health      `yaml:"health"`
	Notify      *Notify     `yaml:"notify"`
}

// Log selects the slog level and handler.
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Database locates the source and snapshot tables.
type Database struct {
	Dialect string `yaml:"dialect" validate:"oneof=sqlite postgres"`
	DSN     string `yaml:"dsn" validate:"required"`
}

// Compute tunes the per-scope pipeline. Zero values select the package defaults.
type Compute struct {
	Workers       int     `yaml:"workers" validate:"gte=0,lte=64"`
	VisitCap      int     `yaml:"visit_cap" validate:"gte=0"`
	MaxSnapRing   int     `yaml:"max_snap_ring" validate:"gte=0,lte=64"`
	SplitDistance float64 `yaml:"split_distance" validate:"gte=0"`
}

// Diagnostics configures the rail diagnostics job cache.
type Diagnostics struct {
	TTL time.Duration `yaml:"ttl" validate:"gte=0"`
}

// Health configures the health check server. Port 0 disables it.
type Health struct {
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
}

// Notify configures scope event publishing. A nil Notify disables it.
type Notify struct {
	URL                string        `yaml:"url" validate:"required,url"`
	Namespace          string        `yaml:"namespace"`
	Event              string        `yaml:"event"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout" validate:"gte=0"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
}

func (m *Model) applyDefaults() {
	if m.Log.Level == "" {
		m.Log.Level = "info"
	}
	if m.Log.Format == "" {
		m.Log.Format = "json"
	}
	if m.Database.Dialect == "" {
		m.Database.Dialect = "sqlite"
	}
}
