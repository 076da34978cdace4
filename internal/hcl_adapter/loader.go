package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/railmap/internal/config"
	"github.com/specialistvlad/railmap/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
// Expressions may read environment variables as env.NAME.
type Loader struct {
	environ func() []string
}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a loader that reads the process environment.
func NewLoader() *Loader {
	return &Loader{environ: os.Environ}
}

// NewLoaderWithEnv creates a loader that sees only the given variables.
func NewLoaderWithEnv(env map[string]string) *Loader {
	return &Loader{environ: func() []string {
		out := make([]string, 0, len(env))
		for k, v := range env {
			out = append(out, k+"="+v)
		}
		return out
	}}
}

// Load parses and decodes one HCL file into the model.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, l.evalContext(), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	m, err := translate(&root)
	if err != nil {
		return nil, fmt.Errorf("in %s: %w", path, err)
	}
	logger.Debug("HCL loading complete.", "path", path)
	return config.Finalize(m)
}

func (l *Loader) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}
