// In file: internal/stats/stats.go

// Package stats counts how chat requests were answered. Counters live in a
// Redis hash when REDIS_ADDR is set; otherwise they are discarded.
package stats

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Outcome names the path that produced a chat response.
type Outcome string

const (
	// OutcomeDirect: no agent configured, the extractor answered.
	OutcomeDirect Outcome = "direct"
	// OutcomeAgent: the agent answered.
	OutcomeAgent Outcome = "agent"
	// OutcomeAgentFallback: the agent failed with a retryable error and the extractor answered.
	OutcomeAgentFallback Outcome = "agent_fallback"
	// OutcomeAgentError: the agent failed and its error text was returned.
	OutcomeAgentError Outcome = "agent_error"
)

const (
	DefaultKey     = "stats:chat"
	lastUpdatedKey = "last_updated"
)

// Recorder is implemented by every counter backend.
type Recorder interface {
	Record(ctx context.Context, outcome Outcome)
	Snapshot(ctx context.Context) (map[string]int64, error)
}

// Nop discards every outcome.
type Nop struct{}

func (Nop) Record(context.Context, Outcome) {}

func (Nop) Snapshot(context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}

// RedisRecorder keeps counters in one Redis hash.
type RedisRecorder struct {
	rdb *redis.Client
	key string
}

var _ Recorder = (*RedisRecorder)(nil)

// NewRedisRecorder connects to addr and verifies the connection.
func NewRedisRecorder(ctx context.Context, addr string) (*RedisRecorder, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	return &RedisRecorder{rdb: rdb, key: DefaultKey}, nil
}

// Record increments the outcome's counter. Failures are logged, never returned:
// counting must not affect the response.
func (r *RedisRecorder) Record(ctx context.Context, outcome Outcome) {
	pipe := r.rdb.Pipeline()
	pipe.HIncrBy(ctx, r.key, string(outcome), 1)
	pipe.HSet(ctx, r.key, lastUpdatedKey, time.Now().Unix())
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("WARNING: Failed to record outcome %s in Redis: %v", outcome, err)
	}
}

// Snapshot returns the current counters keyed by outcome name.
func (r *RedisRecorder) Snapshot(ctx context.Context) (map[string]int64, error) {
	data, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stats from Redis: %w", err)
	}
	out := make(map[string]int64, len(data))
	for field, raw := range data {
		if field == lastUpdatedKey {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Printf("WARNING: Ignoring malformed stats field %s=%q", field, raw)
			continue
		}
		out[field] = n
	}
	return out, nil
}

// Close releases the Redis connection pool.
func (r *RedisRecorder) Close() error {
	return r.rdb.Close()
}
