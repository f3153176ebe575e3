package ratelimit

import (
    "context"
    "sync"
    "time"

    "golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key.
type Limiter struct {
    mu    sync.Mutex
    m     map[string]*entry
    limit rate.Limit
    burst int
    idle  time.Duration
}

type entry struct {
    lim  *rate.Limiter
    seen time.Time
}

// New returns a limiter allowing rps events per second with the given burst
// for every key. Keys unused for ten minutes are forgotten.
func New(rps float64, burst int) *Limiter {
    if burst < 1 {
        burst = 1
    }
    limit := rate.Limit(rps)
    if rps <= 0 {
        limit = rate.Inf
    }
    return &Limiter{m: make(map[string]*entry), limit: limit, burst: burst, idle: 10 * time.Minute}
}

// PerMinute is New expressed as events per minute.
func PerMinute(n, burst int) *Limiter {
    return New(float64(n)/60, burst)
}

func (l *Limiter) get(key string) *rate.Limiter {
    now := time.Now()
    l.mu.Lock()
    defer l.mu.Unlock()
    e, ok := l.m[key]
    if !ok {
        if len(l.m) > 1024 {
            l.sweep(now)
        }
        e = &entry{lim: rate.NewLimiter(l.limit, l.burst)}
        l.m[key] = e
    }
    e.seen = now
    return e.lim
}

func (l *Limiter) sweep(now time.Time) {
    for k, e := range l.m {
        if now.Sub(e.seen) > l.idle {
            delete(l.m, k)
        }
    }
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
    return l.get(key).Allow()
}

// Wait blocks until key has a token or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
    return l.get(key).Wait(ctx)
}
