// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"fmt"
	"time"

	"github.com/specialistvlad/railmap/internal/config"
)

func translate(root *fileRoot) (*config.Model, error) {
	m := &config.Model{}
	if b := root.Log; b != nil {
		m.Log.Level = deref(b.Level)
		m.Log.Format = deref(b.Format)
	}
	if b := root.Database; b != nil {
		m.Database.Dialect = deref(b.Dialect)
		m.Database.DSN = b.DSN
	}
	if b := root.Compute; b != nil {
		m.Compute = config.Compute{
			Workers:       deref(b.Workers),
			VisitCap:      deref(b.VisitCap),
			MaxSnapRing:   deref(b.MaxSnapRing),
			SplitDistance: deref(b.SplitDistance),
		}
	}
	if b := root.Diagnostics; b != nil {
		ttl, err := duration(b.TTL, "diagnostics.ttl")
		if err != nil {
			return nil, err
		}
		m.Diagnostics.TTL = ttl
	}
	if b := root.Health; b != nil {
		m.Health.Port = deref(b.Port)
	}
	if b := root.Notify; b != nil {
		timeout, err := duration(b.ConnectTimeout, "notify.connect_timeout")
		if err != nil {
			return nil, err
		}
		m.Notify = &config.Notify{
			URL:                b.URL,
			Namespace:          deref(b.Namespace),
			Event:              deref(b.Event),
			ConnectTimeout:     timeout,
			InsecureSkipVerify: deref(b.InsecureSkipVerify),
		}
	}
	return m, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func duration(s *string, attr string) (time.Duration, error) {
	if s == nil || *s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for '%s': %w", attr, err)
	}
	return d, nil
}
