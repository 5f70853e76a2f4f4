package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"glp/internal/application/orchestrators"
)

// idleBucketTTL is how long a client's bucket survives without requests.
const idleBucketTTL = 5 * time.Minute

type bucket struct {
	tokens float64
	at     time.Time
}

// RateLimiter keeps one continuously refilling token bucket per client address.
// A client may burst up to rate requests and then gets rate per interval.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]bucket
	burst   float64
	perNano float64 // tokens regained per nanosecond
	now     func() time.Time

	stop chan struct{}
	done chan struct{}
}

// NewRateLimiter allows rate requests per interval for each address. Close
// stops the goroutine that forgets idle addresses.
// PRE: rate > 0, interval > 0
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]bucket),
		burst:   float64(rate),
		perNano: float64(rate) / float64(interval),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go rl.sweep(time.Minute)
	return rl
}

func (rl *RateLimiter) sweep(every time.Duration) {
	defer close(rl.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-t.C:
			cutoff := rl.now().Add(-idleBucketTTL)
			rl.mu.Lock()
			for addr, b := range rl.buckets {
				if b.at.Before(cutoff) {
					delete(rl.buckets, addr)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Close stops the sweeper and waits for it.
// PRE: called at most once
func (rl *RateLimiter) Close() {
	close(rl.stop)
	<-rl.done
}

// Allow spends one token from addr's bucket.
// POST: false means the bucket was empty and nothing was spent
func (rl *RateLimiter) Allow(addr string) bool {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[addr]
	if !ok {
		b = bucket{tokens: rl.burst}
	} else {
		b.tokens = min(rl.burst, b.tokens+float64(now.Sub(b.at))*rl.perNano)
	}
	b.at = now
	allowed := b.tokens >= 1
	if allowed {
		b.tokens--
	}
	rl.buckets[addr] = b
	return allowed
}

// RateLimit answers 429 once a client address runs out of tokens.
// PRE: ClientIP runs outside this middleware
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := orchestrators.ClientIP(r.Context())
			if !limiter.Allow(addr) {
				slog.Warn("rate_limited", "event", "rate_limited", "ip", addr, "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too many requests, please slow down.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
