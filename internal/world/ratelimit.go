package world

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdle is how long a key may sit unused before its bucket is swept.
const limiterIdle = 5 * time.Minute

// limiterPool keys token buckets by string (remote address or session key).
// Buckets are created on first sight and swept once idle, so the pool stays
// proportional to the live client set.
type limiterPool struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*poolBucket
}

type poolBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLimiterPool(perSecond float64) *limiterPool {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &limiterPool{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		buckets: make(map[string]*poolBucket),
	}
}

// Allow reports whether one event for key fits its bucket.
func (p *limiterPool) Allow(key string) bool {
	p.mu.Lock()
	b, ok := p.buckets[key]
	if !ok {
		b = &poolBucket{lim: rate.NewLimiter(p.limit, p.burst)}
		p.buckets[key] = b
	}
	b.seen = time.Now()
	p.mu.Unlock()

	return b.lim.Allow()
}

// Forget drops a key's bucket immediately, for session teardown.
func (p *limiterPool) Forget(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.buckets, key)
}

// Sweep removes buckets idle past the cutoff and returns how many went.
func (p *limiterPool) Sweep() int {
	cutoff := time.Now().Add(-limiterIdle)

	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for key, b := range p.buckets {
		if b.seen.Before(cutoff) {
			delete(p.buckets, key)
			n++
		}
	}
	return n
}

func (p *limiterPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets)
}
