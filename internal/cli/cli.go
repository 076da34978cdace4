package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/railmap/internal/app"
	"github.com/specialistvlad/railmap/internal/diagnostics"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/scope"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("railmap", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
railmap - derives route geometry and station maps from a synchronised rail network.

Usage:
  railmap [options] sweep
  railmap [options] route ROUTE_ID
  railmap [options] diag ROUTE_ID

Commands:
  sweep   Compute every dimension of -server/-variant, or only -dimension.
  route   Recompute one route and the station maps it serves.
  diag    Print rail diagnostics for one route.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to a .hcl, .yaml or .yml configuration file.")
	serverFlag := flagSet.String("server", "", "Server id of the scope.")
	variantFlag := flagSet.String("variant", "main", "Network variant of the scope.")
	dimensionFlag := flagSet.String("dimension", "", "Dimension context of the scope.")
	forceFlag := flagSet.Bool("force", false, "Recompute even when the source fingerprint is unchanged.")
	reclaimFlag := flagSet.Bool("reclaim", false, "Take over scopes left RUNNING by a crashed process.")
	dialectFlag := flagSet.String("db-dialect", "", "Database dialect: 'sqlite' or 'postgres'.")
	dsnFlag := flagSet.String("db-dsn", "", "Database connection string or SQLite file path.")
	workersFlag := flagSet.Int("workers", 0, "Concurrent route workers per scope. 0 uses the configured value.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pageFlag := flagSet.Int("page", 1, "Diagnostics page number.")
	pageSizeFlag := flagSet.Int("page-size", diagnostics.DefaultPageSize, "Diagnostics page size.")
	keywordFlag := flagSet.String("keyword", "", "Only show diagnostics entries containing this text.")
	errorsOnlyFlag := flagSet.Bool("errors-only", false, "Only show unresolved diagnostics entries or entries with issues.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	command := strings.ToLower(flagSet.Arg(0))
	routeID := flagSet.Arg(1)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "" && logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg, err := app.NewConfig(app.Config{
		ConfigPath: *configFlag,
		Command:    command,
		Scope: model.ScopeKey{
			ServerID:         *serverFlag,
			NetworkVariant:   *variantFlag,
			DimensionContext: *dimensionFlag,
		},
		RouteID: routeID,
		Options: scope.Options{Force: *forceFlag, Reclaim: *reclaimFlag},
		Query: diagnostics.Query{
			Page:       *pageFlag,
			PageSize:   *pageSizeFlag,
			Keyword:    *keywordFlag,
			ErrorsOnly: *errorsOnlyFlag,
		},
		Overrides: app.Overrides{
			LogFormat:       logFormat,
			LogLevel:        logLevel,
			DatabaseDialect: *dialectFlag,
			DatabaseDSN:     *dsnFlag,
			Workers:         *workersFlag,
			HealthcheckPort: *healthPortFlag,
		},
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "command", cfg.Command, "scope", cfg.Scope.String())
	return cfg, false, nil
}
