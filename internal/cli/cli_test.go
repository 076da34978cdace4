package cli

import (
	"bytes"
	"testing"

	"github.com/specialistvlad/railmap/internal/app"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		args     []string
		want     func(t *testing.T, cfg *app.Config)
		wantExit bool
		wantErr  string
	}{
		{
			name: "sweep with overrides",
			args: []string{"-server", "srv", "-db-dsn", "rail.db", "-workers", "4", "-force", "sweep"},
			want: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, app.CommandSweep, cfg.Command)
				assert.Equal(t, model.ScopeKey{ServerID: "srv", NetworkVariant: "main"}, cfg.Scope)
				assert.True(t, cfg.Options.Force)
				assert.Equal(t, app.Overrides{DatabaseDSN: "rail.db", Workers: 4}, cfg.Overrides)
			},
		},
		{
			name: "diag with query",
			args: []string{"-server", "srv", "-dimension", "overworld", "-page", "2", "-keyword", "gap", "-errors-only", "diag", "r1"},
			want: func(t *testing.T, cfg *app.Config) {
				assert.Equal(t, "r1", cfg.RouteID)
				assert.Equal(t, 2, cfg.Query.Page)
				assert.Equal(t, "gap", cfg.Query.Keyword)
				assert.True(t, cfg.Query.ErrorsOnly)
			},
		},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "no command", args: []string{"-server", "srv"}, wantExit: true},
		{name: "unknown flag", args: []string{"-nope"}, wantErr: "flag provided but not defined: -nope"},
		{name: "bad log format", args: []string{"-server", "srv", "-log-format", "xml", "sweep"}, wantErr: "invalid log-format"},
		{name: "bad log level", args: []string{"-server", "srv", "-log-level", "loud", "sweep"}, wantErr: "invalid log-level"},
		{name: "route without id", args: []string{"-server", "srv", "-dimension", "overworld", "route"}, wantErr: "requires a route id"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := &bytes.Buffer{}

			cfg, shouldExit, err := Parse(tc.args, out)

			if tc.wantErr != "" {
				require.Error(t, err)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, 2, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, shouldExit)
			if tc.wantExit {
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			tc.want(t, cfg)
		})
	}
}
