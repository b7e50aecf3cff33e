package core

import (
	"context"
	"time"

	"github.com/go-redis/redis/v9"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/tablehub/tablehub/pkg/types"
)

func setupRedis(cfg RedisConfig) redis.UniversalClient {
	if !cfg.Enabled() {
		return nil
	}
	opts := &redis.UniversalOptions{
		Addrs:        []string{cfg.Addr},
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
	if cfg.Cluster {
		opts.Addrs = cfg.ClusterAddrs
		opts.DB = 0
	}
	return redis.NewUniversalClient(opts)
}

var _ types.Cache = (*RedisCache)(nil)

type RedisCache struct {
	redis  redis.UniversalClient
	prefix string
}

func (c *RedisCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return c.redis.Expire(ctx, c.prefix+key, expiration).Err()
}

func (c *RedisCache) SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error {
	return c.redis.SetEx(ctx, c.prefix+key, value, expiresAt).Err()
}

// Get returns "" with redis.Nil when the key does not exist.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.redis.Get(ctx, c.prefix+key).Result()
}

type memoryItem struct {
	value    string
	expireAt time.Time
}

var _ types.Cache = (*MemoryCache)(nil)

// MemoryCache is the single process fallback used when redis is not configured.
type MemoryCache struct {
	items cmap.ConcurrentMap[string, memoryItem]
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: cmap.New[memoryItem]()}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	item, ok := c.items.Get(key)
	if !ok {
		return "", nil
	}
	if time.Now().After(item.expireAt) {
		c.items.RemoveCb(key, func(_ string, v memoryItem, exists bool) bool {
			return exists && time.Now().After(v.expireAt)
		})
		return "", nil
	}
	return item.value, nil
}

func (c *MemoryCache) SetEx(_ context.Context, key, value string, expiresAt time.Duration) error {
	c.items.Set(key, memoryItem{value: value, expireAt: time.Now().Add(expiresAt)})
	return nil
}

func (c *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) error {
	c.items.Upsert(key, memoryItem{}, func(exist bool, old, _ memoryItem) memoryItem {
		if !exist {
			return memoryItem{expireAt: time.Now()}
		}
		old.expireAt = time.Now().Add(expiration)
		return old
	})
	return nil
}

// Sweep drops expired entries, run from the cron scheduler.
func (c *MemoryCache) Sweep() int {
	now := time.Now()
	var expired []string
	for item := range c.items.IterBuffered() {
		if now.After(item.Val.expireAt) {
			expired = append(expired, item.Key)
		}
	}
	for _, key := range expired {
		c.items.RemoveCb(key, func(_ string, v memoryItem, exists bool) bool {
			return exists && now.After(v.expireAt)
		})
	}
	return len(expired)
}
