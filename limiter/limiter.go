// Package limiter implements a fixed-window per-IP request limiter with a
// secondary penalty state: once a client exceeds its window quota, the next
// request trips a block that outlives the window itself.
package limiter

import (
	"context"
	"time"

	"edgegate/logger"
)

// Config carries the window quota and penalty settings.
type Config struct {
	Window        time.Duration
	MaxRequests   int
	BlockDuration time.Duration
}

// DefaultConfig returns the production settings: 10 requests per minute,
// 5 minute block once exceeded.
func DefaultConfig() Config {
	return Config{
		Window:        time.Minute,
		MaxRequests:   10,
		BlockDuration: 5 * time.Minute,
	}
}

// Result is the outcome of a single admission check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
	Blocked   bool
}

// Store holds per-IP window state and applies the check atomically.
type Store interface {
	// Check records one request from ip and reports whether it is admitted.
	Check(ctx context.Context, ip string) (Result, error)
	// Blocked lists IPs currently in their penalty period.
	Blocked(ctx context.Context) ([]string, error)
	// Reset discards all state for ip, lifting any active block.
	Reset(ctx context.Context, ip string) error
}

// RateLimiter fronts a Store with logging and fail-closed error handling.
type RateLimiter struct {
	store Store
}

func New(store Store) *RateLimiter {
	return &RateLimiter{store: store}
}

// Check admits or rejects one request from ip. A store failure denies the
// request rather than letting traffic through unmetered.
func (rl *RateLimiter) Check(ctx context.Context, ip string) Result {
	res, err := rl.store.Check(ctx, ip)
	if err != nil {
		logger.Error("rate limit store failure, denying request", "ip", ip, "err", err)
		return Result{Allowed: false, Remaining: 0, ResetTime: time.Now(), Blocked: false}
	}
	if !res.Allowed {
		logger.Warn("rate limit exceeded", "ip", ip, "blocked", res.Blocked, "reset", res.ResetTime)
	}
	return res
}

// Blocked exposes the store's active penalty list for the management API.
func (rl *RateLimiter) Blocked(ctx context.Context) ([]string, error) {
	return rl.store.Blocked(ctx)
}

// Reset lifts any block and window state for ip.
func (rl *RateLimiter) Reset(ctx context.Context, ip string) error {
	return rl.store.Reset(ctx, ip)
}
