package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/railmap/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ErrNotConnected is returned by Publish while the socket is disconnected.
var ErrNotConnected = errors.New("notify: socket.io client not connected")

// SocketIOConfig configures a SocketIO publisher.
type SocketIOConfig struct {
	URL                string
	Namespace          string
	Event              string
	ConnectTimeout     time.Duration
	InsecureSkipVerify bool
}

// SocketIO publishes events to a socket.io namespace.
type SocketIO struct {
	io        *socket.Socket
	event     string
	connected atomic.Bool
}

// DialSocketIO connects to the server and waits for the namespace handshake.
func DialSocketIO(ctx context.Context, cfg SocketIOConfig) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("publisher", "socketio", "url", cfg.URL, "namespace", cfg.Namespace)

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("failed to parse URL: %q has no scheme or host", cfg.URL)
	}
	if cfg.Event == "" {
		cfg.Event = "scope_computed"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "/"
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	p := &SocketIO{io: manager.Socket(cfg.Namespace, opts), event: cfg.Event}

	ready := make(chan error, 1)
	p.io.On(types.EventName("connect"), func(...any) {
		p.connected.Store(true)
		logger.Info("Successfully connected", "sid", p.io.Id())
		select {
		case ready <- nil:
		default:
		}
	})
	p.io.On(types.EventName("disconnect"), func(reason ...any) {
		p.connected.Store(false)
		logger.Warn("Disconnected", "reason", reason)
	})
	p.io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case ready <- err:
		default:
		}
	})

	p.io.Connect()

	timer := time.NewTimer(cfg.ConnectTimeout)
	defer timer.Stop()
	select {
	case err := <-ready:
		if err != nil {
			p.io.Disconnect()
			return nil, fmt.Errorf("connect to %s: %w", cfg.URL, err)
		}
		return p, nil
	case <-timer.C:
		p.io.Disconnect()
		return nil, fmt.Errorf("connect to %s: timed out after %s", cfg.URL, cfg.ConnectTimeout)
	case <-ctx.Done():
		p.io.Disconnect()
		return nil, ctx.Err()
	}
}

// Publish emits the event. Delivery is fire-and-forget.
func (p *SocketIO) Publish(ctx context.Context, ev Event) error {
	if !p.connected.Load() {
		return ErrNotConnected
	}
	ctxlog.FromContext(ctx).Debug("Emitting event", "event", p.event, "scope", ev.Scope.String(), "outcome", ev.Outcome)
	p.io.Emit(p.event, ev)
	return nil
}

// Close disconnects the client.
func (p *SocketIO) Close() error {
	p.connected.Store(false)
	p.io.Disconnect()
	return nil
}
