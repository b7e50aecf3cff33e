package core

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v9"
)

// Lock guards work that must run on a single node at a time, e.g. the repair pass.
type Lock interface {
	TryAcquire(ctx context.Context) bool
	Release(ctx context.Context)
}

// DistributedLock 分布式锁，基于 Redis 实现
type DistributedLock struct {
	redis   redis.UniversalClient
	key     string
	token   string
	timeout time.Duration
}

func NewDistributedLock(redis redis.UniversalClient, key, token string, timeout time.Duration) *DistributedLock {
	return &DistributedLock{
		redis:   redis,
		key:     key,
		token:   token,
		timeout: timeout,
	}
}

func (l *DistributedLock) TryAcquire(ctx context.Context) bool {
	ok, err := l.redis.SetNX(ctx, l.key, l.token, l.timeout).Result()
	if err != nil {
		return false
	}
	return ok
}

// Release 仅删除自己持有的锁
func (l *DistributedLock) Release(ctx context.Context) {
	script := `
		if redis.call('GET', KEYS[1]) == ARGV[1] then
			return redis.call('DEL', KEYS[1])
		end
		return 0
	`
	l.redis.Eval(ctx, script, []string{l.key}, l.token)
}

// LocalLock is used when redis is not configured.
type LocalLock struct {
	mu sync.Mutex
}

func (l *LocalLock) TryAcquire(context.Context) bool {
	return l.mu.TryLock()
}

func (l *LocalLock) Release(context.Context) {
	l.mu.Unlock()
}

// LockManager hands out the named locks of this process.
type LockManager struct {
	core       *Core
	repair     Lock
	repairOnce sync.Once
}

func NewLockManager(core *Core) *LockManager {
	return &LockManager{core: core}
}

// Repair returns the lock held by the periodic table repair pass.
func (m *LockManager) Repair() Lock {
	m.repairOnce.Do(func() {
		if m.core.Redis() == nil {
			m.repair = &LocalLock{}
			return
		}
		m.repair = NewDistributedLock(
			m.core.Redis(),
			m.core.cfg.Redis.KeyPrefix+"lock:table_repair",
			m.core.nodeToken,
			time.Minute*5,
		)
	})
	return m.repair
}
