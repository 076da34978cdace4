package notify

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	t.Parallel()
	ctx, buf := testutil.Context(t)
	var p Publisher = Nop{}

	err := p.Publish(ctx, Event{Scope: model.ScopeKey{ServerID: "s", NetworkVariant: "v", DimensionContext: "d"}, Outcome: model.OutcomeComputed})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "scope=s/v/d")
	assert.NoError(t, p.Close())
}

func TestDialSocketIO_InvalidURL(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)

	_, err := DialSocketIO(ctx, SocketIOConfig{URL: "not a url"})

	assert.ErrorContains(t, err, "failed to parse URL")
}

func TestDialSocketIO_Unreachable(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)

	start := time.Now()
	_, err := DialSocketIO(ctx, SocketIOConfig{URL: "http://127.0.0.1:1", ConnectTimeout: 500 * time.Millisecond})

	require.Error(t, err)
	assert.ErrorContains(t, err, "connect to http://127.0.0.1:1")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSocketIO_PublishRequiresConnection(t *testing.T) {
	t.Parallel()
	p := &SocketIO{event: "scope_computed"}
	assert.ErrorIs(t, p.Publish(context.Background(), Event{}), ErrNotConnected)
}
