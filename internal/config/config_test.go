package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestYAMLLoader(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
		want    *Model
		wantErr string
	}{
		{
			name: "full",
			content: `
log:
  level: debug
  format: text
database:
  dialect: postgres
  dsn: postgres://rail@localhost/rail
compute:
  workers: 4
  visit_cap: 1000
diagnostics:
  ttl: 2m
notify:
  url: http://localhost:3000
  connect_timeout: 5s
`,
			want: &Model{
				Log:         Log{Level: "debug", Format: "text"},
				Database:    Database{Dialect: "postgres", DSN: "postgres://rail@localhost/rail"},
				Compute:     Compute{Workers: 4, VisitCap: 1000},
				Diagnostics: Diagnostics{TTL: 2 * time.Minute},
				Notify:      &Notify{URL: "http://localhost:3000", ConnectTimeout: 5 * time.Second},
			},
		},
		{
			name:    "defaults",
			content: "database:\n  dsn: rail.db\n",
			want: &Model{
				Log:      Log{Level: "info", Format: "json"},
				Database: Database{Dialect: "sqlite", DSN: "rail.db"},
			},
		},
		{name: "unknown key", content: "database:\n  dsn: x\n  pool: 3\n", wantErr: "field pool not found"},
		{name: "missing dsn", content: "log:\n  level: info\n", wantErr: "Database.DSN"},
		{name: "bad level", content: "log:\n  level: loud\ndatabase:\n  dsn: x\n", wantErr: "Log.Level"},
		{name: "bad notify url", content: "database:\n  dsn: x\nnotify:\n  url: not a url\n", wantErr: "Notify.URL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, "railmap.yaml", tc.content)

			got, err := YAMLLoader{}.Load(context.Background(), path)

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestYAMLLoader_MissingFile(t *testing.T) {
	_, err := YAMLLoader{}.Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
