package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nodesKind Kind = "nodes"

// gatedFetcher counts invocations and blocks until released.
type gatedFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	value   any
	err     error
}

func newGatedFetcher(value any, err error) *gatedFetcher {
	return &gatedFetcher{release: make(chan struct{}), value: value, err: err}
}

func (f *gatedFetcher) fetch(ctx context.Context) (any, error) {
	f.calls.Add(1)
	<-f.release
	return f.value, f.err
}

func wait(t *testing.T, call *Call) (any, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return call.Wait(ctx)
}

func TestEnsureFetched_DeduplicatesInFlight(t *testing.T) {
	s := New(nil)
	key := Key{Kind: nodesKind, ID: "per_page=10"}
	f := newGatedFetcher([]string{"a"}, nil)

	first := s.EnsureFetched(context.Background(), key, f.fetch)
	second := s.EnsureFetched(context.Background(), key, f.fetch)

	assert.Same(t, first, second)
	assert.Equal(t, StatusLoading, s.Peek(key).Status)

	close(f.release)
	v1, err := wait(t, first)
	require.NoError(t, err)
	v2, err := wait(t, second)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, v1)
	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestEnsureFetched_ConcurrentCallersShareOneFetch(t *testing.T) {
	s := New(nil)
	key := Key{Kind: nodesKind, ID: "per_page=10"}
	f := newGatedFetcher("value", nil)

	var wg sync.WaitGroup
	calls := make([]*Call, 32)
	for i := range calls {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			calls[i] = s.EnsureFetched(context.Background(), key, f.fetch)
		}(i)
	}
	wg.Wait()
	close(f.release)

	for _, c := range calls {
		v, err := wait(t, c)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestEnsureFetched_PresentDoesNotFetch(t *testing.T) {
	s := New(nil)
	key := Key{Kind: "node", ID: "abc"}
	f := newGatedFetcher("node", nil)
	close(f.release)

	_, err := wait(t, s.EnsureFetched(context.Background(), key, f.fetch))
	require.NoError(t, err)

	call := s.EnsureFetched(context.Background(), key, f.fetch)
	select {
	case <-call.Done():
	default:
		t.Fatal("expected a completed call for a present entry")
	}

	v, err := wait(t, call)
	require.NoError(t, err)
	assert.Equal(t, "node", v)
	assert.Equal(t, int32(1), f.calls.Load())

	entry := s.Peek(key)
	assert.Equal(t, StatusPresent, entry.Status)
	assert.Equal(t, "node", entry.Value)
	assert.NoError(t, entry.Err)
	assert.False(t, entry.UpdatedAt.IsZero())
}

func TestEnsureFetched_IsolatesKeys(t *testing.T) {
	s := New(nil)
	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		return calls.Add(1), nil
	}

	ten := Key{Kind: nodesKind, ID: "per_page=10"}
	twenty := Key{Kind: nodesKind, ID: "per_page=20"}

	v10, err := wait(t, s.EnsureFetched(context.Background(), ten, fetch))
	require.NoError(t, err)
	v20, err := wait(t, s.EnsureFetched(context.Background(), twenty, fetch))
	require.NoError(t, err)

	assert.NotEqual(t, v10, v20)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, StatusPresent, s.Peek(ten).Status)
	assert.Equal(t, StatusPresent, s.Peek(twenty).Status)
	assert.Equal(t, 2, s.Len())
}

func TestEnsureFetched_ErroredIsObservableAndRetriedOnReentry(t *testing.T) {
	s := New(nil)
	key := Key{Kind: "node", ID: "abc"}
	boom := errors.New("boom")

	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return "ok", nil
	}

	_, err := wait(t, s.EnsureFetched(context.Background(), key, fetch))
	assert.ErrorIs(t, err, boom)

	entry := s.Peek(key)
	assert.Equal(t, StatusErrored, entry.Status)
	assert.ErrorIs(t, entry.Err, boom)
	assert.Nil(t, entry.Value)

	// no automatic retry
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	v, err := wait(t, s.EnsureFetched(context.Background(), key, fetch))
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, StatusPresent, s.Peek(key).Status)
}

func TestEnsureFetched_PanicBecomesError(t *testing.T) {
	s := New(nil)
	key := Key{Kind: "node", ID: "abc"}

	_, err := wait(t, s.EnsureFetched(context.Background(), key, func(ctx context.Context) (any, error) {
		panic("kaboom")
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, StatusErrored, s.Peek(key).Status)
}

func TestEnsureFetched_CallerCancellationDoesNotAbortFetch(t *testing.T) {
	s := New(nil)
	key := Key{Kind: "node", ID: "abc"}
	f := newGatedFetcher("node", nil)

	ctx, cancel := context.WithCancel(context.Background())
	call := s.EnsureFetched(ctx, key, func(fctx context.Context) (any, error) {
		v, err := f.fetch(fctx)
		if fctx.Err() != nil {
			return nil, fctx.Err()
		}
		return v, err
	})

	cancel()
	_, err := call.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(f.release)
	v, err := wait(t, call)
	require.NoError(t, err)
	assert.Equal(t, "node", v)
	assert.Equal(t, StatusPresent, s.Peek(key).Status)
}

func TestInvalidate(t *testing.T) {
	s := New(nil)
	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		return calls.Add(1), nil
	}

	ten := Key{Kind: nodesKind, ID: "per_page=10"}
	twenty := Key{Kind: nodesKind, ID: "per_page=20"}
	node := Key{Kind: "node", ID: "abc"}
	for _, k := range []Key{ten, twenty, node} {
		_, err := wait(t, s.EnsureFetched(context.Background(), k, fetch))
		require.NoError(t, err)
	}

	t.Run("single identifier", func(t *testing.T) {
		s.Invalidate(nodesKind, "per_page=10")
		assert.Equal(t, StatusAbsent, s.Peek(ten).Status)
		assert.Equal(t, StatusPresent, s.Peek(twenty).Status)
	})

	t.Run("whole kind", func(t *testing.T) {
		s.Invalidate(nodesKind)
		assert.Equal(t, StatusAbsent, s.Peek(twenty).Status)
		assert.Equal(t, StatusPresent, s.Peek(node).Status)
	})

	t.Run("next ensure refetches", func(t *testing.T) {
		before := calls.Load()
		v, err := wait(t, s.EnsureFetched(context.Background(), ten, fetch))
		require.NoError(t, err)
		assert.Equal(t, before+1, calls.Load())
		assert.Equal(t, before+1, v)
	})
}

func TestInvalidate_DetachesInFlightFetch(t *testing.T) {
	s := New(nil)
	key := Key{Kind: nodesKind, ID: "per_page=10"}
	stale := newGatedFetcher("stale", nil)

	call := s.EnsureFetched(context.Background(), key, stale.fetch)
	s.Invalidate(nodesKind)
	assert.Equal(t, StatusAbsent, s.Peek(key).Status)

	close(stale.release)
	v, err := wait(t, call)
	require.NoError(t, err)
	assert.Equal(t, "stale", v)
	assert.Equal(t, StatusAbsent, s.Peek(key).Status)
}

func TestReset(t *testing.T) {
	s := New(nil)
	fetch := func(ctx context.Context) (any, error) { return "v", nil }

	keys := []Key{{Kind: nodesKind, ID: "per_page=10"}, {Kind: "node", ID: "abc"}, {Kind: "revisions", ID: "abc"}}
	for _, k := range keys {
		_, err := wait(t, s.EnsureFetched(context.Background(), k, fetch))
		require.NoError(t, err)
	}

	inflight := newGatedFetcher("previous session", nil)
	pending := Key{Kind: "node", ID: "def"}
	call := s.EnsureFetched(context.Background(), pending, inflight.fetch)

	s.Reset()
	close(inflight.release)
	_, _ = wait(t, call)

	for _, k := range append(keys, pending) {
		assert.Equal(t, StatusAbsent, s.Peek(k).Status, k.String())
	}
	assert.Zero(t, s.Len())
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "nodes:per_page=10", Key{Kind: nodesKind, ID: "per_page=10"}.String())
	assert.Equal(t, "nodes", Key{Kind: nodesKind}.String())
}

func TestTypedHelpers(t *testing.T) {
	s := New(nil)
	key := Key{Kind: "node", ID: "abc"}

	call := Ensure(context.Background(), s, key, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	v, err := Wait[int](ctx, call)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	got, ok := Value[int](s.Peek(key))
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	_, err = Wait[string](ctx, call)
	assert.Error(t, err)

	_, ok = Value[int](s.Peek(Key{Kind: "node", ID: "missing"}))
	assert.False(t, ok)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "absent", StatusAbsent.String())
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "present", StatusPresent.String())
	assert.Equal(t, "errored", StatusErrored.String())

	s, err := StatusString("Errored")
	require.NoError(t, err)
	assert.Equal(t, StatusErrored, s)
}
