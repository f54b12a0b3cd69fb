package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance the store's notion of time without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(cfg Config) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := &MemoryStore{
		cfg:     cfg,
		entries: make(map[string]*entry),
		now:     clock.now,
	}
	return s, clock
}

func TestCheck_AllowsQuotaWithinWindow(t *testing.T) {
	s, _ := newTestStore(DefaultConfig())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := s.Check(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 9-i, res.Remaining, "remaining should decrease monotonically")
		assert.False(t, res.Blocked)
	}
}

func TestCheck_BlockEngagesOneRequestLate(t *testing.T) {
	s, clock := newTestStore(DefaultConfig())
	ctx := context.Background()
	first := clock.t

	for i := 0; i < 10; i++ {
		res, err := s.Check(ctx, "203.0.113.7")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	// 11th crosses the quota: denied, but the penalty is not yet active.
	res, err := s.Check(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.False(t, res.Blocked)
	assert.Equal(t, 0, res.Remaining)

	// 12th lands on an entry already over quota: penalty state.
	res, err = s.Check(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.True(t, res.Blocked)
	assert.Equal(t, first.Add(5*time.Minute), res.ResetTime)
}

func TestCheck_BlockOutlivesWindowRollover(t *testing.T) {
	s, clock := newTestStore(DefaultConfig())
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := s.Check(ctx, "203.0.113.7")
		require.NoError(t, err)
	}

	// Past the window but still inside the penalty period.
	clock.advance(2 * time.Minute)
	res, err := s.Check(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.True(t, res.Blocked)
}

func TestCheck_BlockExpiryResetsWindow(t *testing.T) {
	s, clock := newTestStore(DefaultConfig())
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := s.Check(ctx, "203.0.113.7")
		require.NoError(t, err)
	}

	clock.advance(5*time.Minute + time.Second)
	res, err := s.Check(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.False(t, res.Blocked)
	assert.Equal(t, 9, res.Remaining)
}

func TestCheck_WindowRolloverResetsCount(t *testing.T) {
	s, clock := newTestStore(DefaultConfig())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Check(ctx, "198.51.100.2")
		require.NoError(t, err)
	}

	clock.advance(61 * time.Second)
	res, err := s.Check(ctx, "198.51.100.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 9, res.Remaining)
}

func TestCheck_IPsAreIndependent(t *testing.T) {
	s, _ := newTestStore(Config{Window: time.Minute, MaxRequests: 1, BlockDuration: time.Minute})
	ctx := context.Background()

	res, err := s.Check(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = s.Check(ctx, "203.0.113.8")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "second IP has its own window")
}

func TestBlockedAndReset(t *testing.T) {
	s, _ := newTestStore(Config{Window: time.Minute, MaxRequests: 2, BlockDuration: 5 * time.Minute})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := s.Check(ctx, "203.0.113.7")
		require.NoError(t, err)
	}

	blocked, err := s.Blocked(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"203.0.113.7"}, blocked)

	require.NoError(t, s.Reset(ctx, "203.0.113.7"))

	res, err := s.Check(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestSweep_EvictsStaleEntries(t *testing.T) {
	s, clock := newTestStore(DefaultConfig())
	ctx := context.Background()

	_, err := s.Check(ctx, "203.0.113.7")
	require.NoError(t, err)
	_, err = s.Check(ctx, "203.0.113.8")
	require.NoError(t, err)

	clock.advance(10 * time.Minute)
	assert.Equal(t, 2, s.sweep())
	assert.Empty(t, s.entries)
}

func TestRateLimiter_FailClosedOnStoreError(t *testing.T) {
	rl := New(failingStore{})
	res := rl.Check(context.Background(), "203.0.113.7")
	assert.False(t, res.Allowed)
	assert.False(t, res.Blocked)
}

type failingStore struct{}

func (failingStore) Check(context.Context, string) (Result, error) {
	return Result{}, assert.AnError
}
func (failingStore) Blocked(context.Context) ([]string, error) { return nil, assert.AnError }
func (failingStore) Reset(context.Context, string) error       { return assert.AnError }
