package hcl_adapter

// fileRoot decodes every top-level block of a configuration file.
type fileRoot struct {
	Log         *logBlock         `hcl:"log,block"`
	Database    *databaseBlock    `hcl:"database,block"`
	Compute     *computeBlock     `hcl:"compute,block"`
	Diagnostics *diagnosticsBlock `hcl:"diagnostics,block"`
	Health      *healthBlock      `hcl:"health,block"`
	Notify      *notifyBlock      `hcl:"notify,block"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type databaseBlock struct {
	Dialect *string `hcl:"dialect,optional"`
	DSN     string  `hcl:"dsn"`
}

type computeBlock struct {
	Workers       *int     `hcl:"workers,optional"`
	VisitCap      *int     `hcl:"visit_cap,optional"`
	MaxSnapRing   *int     `hcl:"max_snap_ring,optional"`
	SplitDistance *float64 `hcl:"split_distance,optional"`
}

type diagnosticsBlock struct {
	TTL *string `hcl:"ttl,optional"`
}

type healthBlock struct {
	Port *int `hcl:"port,optional"`
}

type notifyBlock struct {
	URL                string  `hcl:"url"`
	Namespace          *string `hcl:"namespace,optional"`
	Event              *string `hcl:"event,optional"`
	ConnectTimeout     *string `hcl:"connect_timeout,optional"`
	InsecureSkipVerify *bool   `hcl:"insecure_skip_verify,optional"`
}
