package core

import (
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow() bool
}

type LimitConfig struct {
	Limit int
	Every time.Duration
}

type LimitOption func(l *LimitConfig)

func WithLimit(limit int) LimitOption {
	return func(l *LimitConfig) {
		l.Limit = limit
	}
}

func WithRange(r time.Duration) LimitOption {
	return func(l *LimitConfig) {
		l.Every = r
	}
}

// Limiters keeps one token bucket per key, e.g. per client ip and route.
type Limiters struct {
	buckets cmap.ConcurrentMap[string, *rate.Limiter]
}

func NewLimiters() *Limiters {
	return &Limiters{buckets: cmap.New[*rate.Limiter]()}
}

// Use returns the limiter of key, Limit events per Every with a burst of Limit.
func (l *Limiters) Use(key string, opts ...LimitOption) Limiter {
	cfg := &LimitConfig{
		Limit: 60,
		Every: time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 1
	}

	return l.buckets.Upsert(key, nil, func(exist bool, old, _ *rate.Limiter) *rate.Limiter {
		if exist {
			return old
		}
		return rate.NewLimiter(rate.Every(cfg.Every/time.Duration(cfg.Limit)), cfg.Limit)
	})
}
