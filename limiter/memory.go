package limiter

import (
	"context"
	"sync"
	"time"

	"edgegate/logger"
)

// entry is the per-IP window state. count survives a window rollover only
// while a block is active; otherwise the entry is rebuilt in place.
type entry struct {
	count        int
	resetTime    time.Time
	firstRequest time.Time
}

// MemoryStore keeps limiter state in a mutex-guarded map. A background sweep
// evicts entries that have been idle past their window and penalty period so
// the map does not grow without bound.
type MemoryStore struct {
	cfg     Config
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewMemoryStore(cfg Config) *MemoryStore {
	s := &MemoryStore{
		cfg:     cfg,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	go s.sweepLoop()
	return s
}

func (s *MemoryStore) Check(_ context.Context, ip string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[ip]
	if !ok {
		s.entries[ip] = &entry{count: 1, resetTime: now.Add(s.cfg.Window), firstRequest: now}
		return Result{Allowed: true, Remaining: s.cfg.MaxRequests - 1, ResetTime: now.Add(s.cfg.Window)}, nil
	}

	// Penalty check comes before the window-reset check: a blocked IP stays
	// blocked even after its original window would have rolled over.
	if e.count > s.cfg.MaxRequests && now.Sub(e.firstRequest) < s.cfg.BlockDuration {
		return Result{Allowed: false, Remaining: 0, ResetTime: e.firstRequest.Add(s.cfg.BlockDuration), Blocked: true}, nil
	}

	if now.After(e.resetTime) {
		e.count = 1
		e.resetTime = now.Add(s.cfg.Window)
		e.firstRequest = now
		return Result{Allowed: true, Remaining: s.cfg.MaxRequests - 1, ResetTime: e.resetTime}, nil
	}

	e.count++
	remaining := s.cfg.MaxRequests - e.count
	if remaining < 0 {
		remaining = 0
	}
	// The block engages only on the next request after the quota is crossed:
	// the request that pushes count past MaxRequests is denied unblocked.
	return Result{Allowed: e.count <= s.cfg.MaxRequests, Remaining: remaining, ResetTime: e.resetTime}, nil
}

func (s *MemoryStore) Blocked(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var ips []string
	for ip, e := range s.entries {
		if e.count > s.cfg.MaxRequests && now.Sub(e.firstRequest) < s.cfg.BlockDuration {
			ips = append(ips, ip)
		}
	}
	return ips, nil
}

func (s *MemoryStore) Reset(_ context.Context, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, ip)
	return nil
}

// sweepLoop removes entries idle past window+block every 5 minutes.
func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		if n := s.sweep(); n > 0 {
			logger.Info("limiter: stale IP entries purged", "count", n)
		}
	}
}

func (s *MemoryStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for ip, e := range s.entries {
		if now.Sub(e.firstRequest) > s.cfg.Window+s.cfg.BlockDuration {
			delete(s.entries, ip)
			purged++
		}
	}
	return purged
}
