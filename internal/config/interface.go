package config

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the file at path and translates it into the model, with
	// defaults applied and validation passed.
	Load(ctx context.Context, path string) (*Model, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Finalize applies defaults to m and validates it. Loaders call it after
// decoding.
func Finalize(m *Model) (*Model, error) {
	m.applyDefaults()
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return m, nil
}
