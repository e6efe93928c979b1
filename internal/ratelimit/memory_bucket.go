package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const memoryBucketMaxKeys = 10000

// MemoryBucket keeps per-key limiters in process. It serves single-replica
// deployments and covers redis outages.
type MemoryBucket struct {
	mu       sync.Mutex
	limiters map[string]*memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{
		limiters: make(map[string]*memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryBucket) Allow(_ context.Context, key string, r float64, burst int) (*Decision, error) {
	_, window, err := gcraWindow(key, r, burst)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.limiters[key]
	if !ok {
		if len(m.limiters) >= memoryBucketMaxKeys {
			m.evict(now, 2*window)
		}
		entry = &memoryEntry{limiter: rate.NewLimiter(rate.Limit(r), burst)}
		m.limiters[key] = entry
	}
	entry.lastSeen = now

	allowed := entry.limiter.AllowN(now, 1)
	remaining := entry.limiter.TokensAt(now)

	retryAfter := time.Duration(0)
	if !allowed {
		retryAfter = refillDelay(remaining, r)
	}
	if remaining < 0 {
		remaining = 0
	}

	return &Decision{
		Allowed:    allowed,
		Limit:      burst,
		Remaining:  int(remaining),
		RetryAfter: retryAfter,
	}, nil
}

// evict drops idle keys; when every key is recent the oldest half goes.
func (m *MemoryBucket) evict(now time.Time, idle time.Duration) {
	for key, entry := range m.limiters {
		if now.Sub(entry.lastSeen) > idle {
			delete(m.limiters, key)
		}
	}
	if len(m.limiters) < memoryBucketMaxKeys {
		return
	}
	dropped := 0
	for key := range m.limiters {
		delete(m.limiters, key)
		dropped++
		if dropped >= memoryBucketMaxKeys/2 {
			return
		}
	}
}

// refillDelay is the time until one whole token is available again.
func refillDelay(tokens, perSecond float64) time.Duration {
	needed := 1.0 - tokens
	if needed <= 0 || perSecond <= 0 {
		return 0
	}
	return time.Duration(needed / perSecond * float64(time.Second))
}
