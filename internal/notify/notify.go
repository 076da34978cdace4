// Package notify announces finished scope computations to interested
// listeners. Only a summary is published; snapshot contents stay in the store.
package notify

import (
	"context"
	"time"

	"github.com/specialistvlad/railmap/internal/ctxlog"
	"github.com/specialistvlad/railmap/internal/model"
)

// Event summarises one scope computation attempt.
type Event struct {
	Scope        model.ScopeKey `json:"scope"`
	Outcome      model.Outcome  `json:"outcome"`
	Fingerprint  string         `json:"fingerprint,omitempty"`
	Routes       int            `json:"routes"`
	Stations     int            `json:"stations"`
	FailedRoutes int            `json:"failedRoutes"`
	Error        string         `json:"error,omitempty"`
	At           time.Time      `json:"at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop is a Publisher that only logs.
type Nop struct{}

// Publish logs the event at debug level.
func (Nop) Publish(ctx context.Context, ev Event) error {
	ctxlog.FromContext(ctx).Debug("Scope event.", "scope", ev.Scope.String(), "outcome", ev.Outcome)
	return nil
}

// Close does nothing.
func (Nop) Close() error { return nil }
