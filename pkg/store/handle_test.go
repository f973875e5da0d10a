package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// scriptedOpener fails the first `failures` opens with err, then returns a
// fresh memory store.
type scriptedOpener struct {
	mu       sync.Mutex
	failures int
	err      error
	delay    time.Duration
	opens    int32
}

func (o *scriptedOpener) open(ctx context.Context) (domain.Store, error) {
	atomic.AddInt32(&o.opens, 1)
	if o.delay > 0 {
		select {
		case <-time.After(o.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failures > 0 {
		o.failures--
		return nil, o.err
	}
	return NewMemoryStore(), nil
}

func TestHandle_ConnectLifecycle(t *testing.T) {
	opener := &scriptedOpener{}
	h := NewHandle(opener.open, nil)

	assert.Equal(t, Disconnected, h.State())
	assert.Equal(t, uint64(0), h.Generation())

	require.NoError(t, h.Connect(context.Background()))
	assert.Equal(t, Connected, h.State())
	assert.Equal(t, uint64(1), h.Generation())

	require.NoError(t, h.Connect(context.Background()))
	assert.Equal(t, uint64(2), h.Generation(), "reconnect bumps the generation")

	require.NoError(t, h.Close())
	assert.Equal(t, Disconnected, h.State())
	assert.Error(t, h.EnsureConnected(context.Background()))
}

func TestHandle_ConnectFailureIsClassifiedAndNotFatal(t *testing.T) {
	opener := &scriptedOpener{failures: 1, err: &netOpError{syscall.ECONNREFUSED}}
	h := NewHandle(opener.open, nil)

	err := h.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindConnectRefused, domain.KindOf(err))
	assert.Equal(t, Disconnected, h.State())
	assert.Equal(t, uint64(0), h.Generation())
	assert.Equal(t, domain.KindConnectRefused, h.Status().LastError)

	// The next attempt succeeds.
	require.NoError(t, h.EnsureConnected(context.Background()))
	assert.Equal(t, Connected, h.State())
}

func TestHandle_ConnectTimeout(t *testing.T) {
	opener := &scriptedOpener{delay: time.Second}
	h := NewHandle(opener.open, nil, WithConnectTimeout(20*time.Millisecond))

	start := time.Now()
	err := h.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindConnectTimeout, domain.KindOf(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestHandle_EnsureConnectedWaitsForInFlightConnect(t *testing.T) {
	opener := &scriptedOpener{delay: 50 * time.Millisecond}
	h := NewHandle(opener.open, nil, WithWaitBudget(time.Second))

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = h.EnsureConnected(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, uint64(1), h.Generation())
	assert.Equal(t, int32(1), atomic.LoadInt32(&opener.opens), "only one connect for concurrent callers")
}

func TestHandle_EnsureConnectedWaitIsBounded(t *testing.T) {
	opener := &scriptedOpener{delay: 300 * time.Millisecond}
	h := NewHandle(opener.open, nil, WithWaitBudget(20*time.Millisecond))

	go h.Connect(context.Background())
	require.Eventually(t, func() bool { return h.State() == Connecting }, time.Second, time.Millisecond)

	start := time.Now()
	err := h.EnsureConnected(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindConnectTimeout, domain.KindOf(err))
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestHandle_MarkDegradedIgnoresOldGenerations(t *testing.T) {
	h := NewHandle((&scriptedOpener{}).open, nil)
	require.NoError(t, h.Connect(context.Background()))
	require.NoError(t, h.Connect(context.Background()))

	h.MarkDegraded(1, errors.New("old"))
	assert.Equal(t, Connected, h.State())

	h.MarkDegraded(2, domain.Errorf(domain.KindConnectTimeout, "find", "slow"))
	assert.Equal(t, Degraded, h.State())

	// A healthy ping restores the connection without a reconnect.
	require.NoError(t, h.EnsureConnected(context.Background()))
	assert.Equal(t, Connected, h.State())
	assert.Equal(t, uint64(2), h.Generation())
}

func TestHandle_OpenDirectReleases(t *testing.T) {
	released := 0
	dialer := func(ctx context.Context) (domain.Store, func(), error) {
		return NewMemoryStore(), func() { released++ }, nil
	}
	h := NewHandle((&scriptedOpener{}).open, dialer)

	s, release, err := h.OpenDirect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	release()
	assert.Equal(t, 1, released)

	noDialer := NewHandle((&scriptedOpener{}).open, nil)
	_, _, err = noDialer.OpenDirect(context.Background())
	assert.Equal(t, domain.KindStoreUnavailable, domain.KindOf(err))
}

// netOpError wraps a syscall error the way the net package does.
type netOpError struct{ errno syscall.Errno }

func (e *netOpError) Error() string { return "dial tcp 127.0.0.1:5432: " + e.errno.Error() }
func (e *netOpError) Unwrap() error { return e.errno }
