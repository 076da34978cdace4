package config

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/railmap/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// YAMLLoader loads the model from a YAML file. Unknown keys are rejected.
type YAMLLoader struct{}

// Load implements Loader.
func (YAMLLoader) Load(ctx context.Context, path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var m Model
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("YAML configuration decoded.", "path", path)
	return Finalize(&m)
}
