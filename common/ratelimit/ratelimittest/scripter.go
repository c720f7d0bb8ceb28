// Package ratelimittest provides an in-process stand-in for the Redis script
// runner used by ratelimit.RateLimiter.
package ratelimittest

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Scripter evaluates the fixed-window script against in-memory counters.
// Windows never expire; tests reset by building a new Scripter.
type Scripter struct {
	mu     sync.Mutex
	counts map[string]int64
	calls  int

	// Err, when set, is returned from every evaluation
	Err error
}

// NewScripter creates an empty Scripter
func NewScripter() *Scripter {
	return &Scripter{counts: make(map[string]int64)}
}

// Calls returns how many script evaluations were made
func (s *Scripter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Count returns the current counter value of key
func (s *Scripter) Count(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key]
}

func (s *Scripter) eval(keys []string, args ...interface{}) *redis.Cmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if s.Err != nil {
		return redis.NewCmdResult(nil, s.Err)
	}

	limit := toInt64(args[0])
	window := toInt64(args[1])

	s.counts[keys[0]]++
	current := s.counts[keys[0]]
	if current > limit {
		return redis.NewCmdResult([]interface{}{int64(0), current, limit, window}, nil)
	}
	return redis.NewCmdResult([]interface{}{int64(1), current, limit, int64(0)}, nil)
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

func (s *Scripter) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return s.eval(keys, args...)
}

func (s *Scripter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return s.eval(keys, args...)
}

func (s *Scripter) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return s.eval(keys, args...)
}

func (s *Scripter) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return s.eval(keys, args...)
}

func (s *Scripter) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	exists := make([]bool, len(hashes))
	for i := range exists {
		exists[i] = true
	}
	return redis.NewBoolSliceResult(exists, nil)
}

func (s *Scripter) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}
