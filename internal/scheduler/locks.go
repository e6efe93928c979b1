package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "agua:scheduler:lock:"

// unlockScript deletes the lease only while this runner still owns it.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
  return 0
end
return redis.call("DEL", KEYS[1])
`)

// jobLocks keeps a job from running twice at once. With redis the lease is
// shared by every scheduler replica; otherwise it only guards this process.
type jobLocks struct {
	redis redis.Cmdable
	ttl   time.Duration
	owner string

	mu      sync.Mutex
	running map[string]bool
}

func newJobLocks(client redis.Cmdable, ttl time.Duration) *jobLocks {
	host, _ := os.Hostname()
	return &jobLocks{
		redis:   client,
		ttl:     ttl,
		owner:   host,
		running: make(map[string]bool),
	}
}

// acquire returns a release func, or ok=false when another runner holds job.
func (l *jobLocks) acquire(ctx context.Context, job string) (func(), bool, error) {
	l.mu.Lock()
	if l.running[job] {
		l.mu.Unlock()
		return nil, false, nil
	}
	l.running[job] = true
	l.mu.Unlock()

	local := func() {
		l.mu.Lock()
		delete(l.running, job)
		l.mu.Unlock()
	}
	if l.redis == nil {
		return local, true, nil
	}

	key := lockKeyPrefix + job
	lease := fmt.Sprintf("%s/%s", l.owner, uuid.NewString())
	ok, err := l.redis.SetNX(ctx, key, lease, l.ttl).Result()
	if err != nil || !ok {
		local()
		return nil, false, err
	}
	return func() {
		// The job context may already be cancelled.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = unlockScript.Run(unlockCtx, l.redis, []string{key}, lease).Err()
		local()
	}, true, nil
}
