package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/railmap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsEveryItemOnce(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	var (
		mu   sync.Mutex
		seen = make(map[int]int)
	)

	err := Pool{Workers: 3}.Run(ctx, 50, func(_ context.Context, i int) error {
		mu.Lock()
		seen[i]++
		mu.Unlock()
		return nil
	})

	require.NoError(t, err)
	require.Len(t, seen, 50)
	for i := 0; i < 50; i++ {
		assert.Equal(t, 1, seen[i], "item %d", i)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	var inFlight, peak atomic.Int32

	err := Pool{}.Run(ctx, 20, func(context.Context, int) error {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(DefaultWorkers))
}

func TestPool_CollectsItemErrors(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	boom := errors.New("boom")
	var ran atomic.Int32

	err := Pool{Workers: 2}.Run(ctx, 6, func(_ context.Context, i int) error {
		ran.Add(1)
		switch i {
		case 1:
			return boom
		case 4:
			panic("bad item")
		}
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, int32(6), ran.Load(), "failures do not stop the batch")
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "item 1: boom")
	assert.ErrorContains(t, err, "item 4: panic: bad item")

	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
}

func TestPool_StopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	ctx, cancel := context.WithCancel(ctx)
	var ran atomic.Int32

	err := Pool{Workers: 1}.Run(ctx, 100, func(context.Context, int) error {
		if ran.Add(1) == 3 {
			cancel()
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(3), ran.Load())
}

func TestPool_EmptyBatch(t *testing.T) {
	t.Parallel()
	err := Pool{Workers: 4}.Run(context.Background(), 0, func(context.Context, int) error {
		t.Fatal("must not be called")
		return nil
	})
	assert.NoError(t, err)
}
