package limiter

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed limiter.lua
var checkScriptSrc string

var checkScript = redis.NewScript(checkScriptSrc)

const keyPrefix = "ratelimit:"

// RedisStore keeps limiter state in a Redis hash per IP so several instances
// share one view of the window and penalty state. The whole check runs as a
// Lua script, so concurrent requests from the same IP never under-count.
type RedisStore struct {
	cfg    Config
	client redis.Cmdable
}

// NewRedisStore wraps a pre-configured client (redis.Client, ClusterClient).
func NewRedisStore(client redis.Cmdable, cfg Config) *RedisStore {
	return &RedisStore{cfg: cfg, client: client}
}

func (s *RedisStore) Check(ctx context.Context, ip string) (Result, error) {
	args := []any{
		time.Now().UnixMilli(),
		s.cfg.Window.Milliseconds(),
		s.cfg.MaxRequests,
		s.cfg.BlockDuration.Milliseconds(),
	}

	raw, err := checkScript.Run(ctx, s.client, []string{keyPrefix + ip}, args...).Result()
	if err != nil {
		return Result{}, fmt.Errorf("limiter script failed for %s: %w", ip, err)
	}

	vals, ok := raw.([]any)
	if !ok || len(vals) != 4 {
		return Result{}, fmt.Errorf("limiter script returned unexpected shape for %s: %T", ip, raw)
	}

	nums := make([]int64, 4)
	for i, v := range vals {
		n, ok := v.(int64)
		if !ok {
			return Result{}, fmt.Errorf("limiter script returned non-integer field %d for %s", i, ip)
		}
		nums[i] = n
	}

	return Result{
		Allowed:   nums[0] == 1,
		Remaining: int(nums[1]),
		ResetTime: time.UnixMilli(nums[2]),
		Blocked:   nums[3] == 1,
	}, nil
}

func (s *RedisStore) Blocked(ctx context.Context) ([]string, error) {
	keys, err := s.client.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("listing limiter keys: %w", err)
	}

	now := time.Now().UnixMilli()
	var ips []string
	for _, key := range keys {
		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			continue
		}
		var count, first int64
		fmt.Sscanf(fields["count"], "%d", &count)
		fmt.Sscanf(fields["first"], "%d", &first)
		if count > int64(s.cfg.MaxRequests) && now-first < s.cfg.BlockDuration.Milliseconds() {
			ips = append(ips, strings.TrimPrefix(key, keyPrefix))
		}
	}
	return ips, nil
}

func (s *RedisStore) Reset(ctx context.Context, ip string) error {
	return s.client.Del(ctx, keyPrefix+ip).Err()
}
