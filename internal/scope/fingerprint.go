package scope

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/store"
)

// Fingerprint summarises the scope's source data as
// "<kind>:<count>:<max updated unix ms>" joined by "|" over the four record
// kinds in a fixed order. It changes whenever a row is added, removed or
// updated with a later timestamp.
func Fingerprint(ctx context.Context, src store.SourceStore, key model.ScopeKey) (string, error) {
	parts := make([]string, 0, len(model.RecordKinds))
	for _, kind := range model.RecordKinds {
		agg, err := src.Aggregate(ctx, key, kind)
		if err != nil {
			return "", fmt.Errorf("aggregate %s for scope %s: %w", kind, key, err)
		}
		var maxMs int64
		if !agg.MaxUpdated.IsZero() {
			maxMs = agg.MaxUpdated.UnixMilli()
		}
		parts = append(parts, fmt.Sprintf("%s:%d:%d", kind, agg.Count, maxMs))
	}
	return strings.Join(parts, "|"), nil
}
