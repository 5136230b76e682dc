package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/skulipro/authcore"
)

type addrLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// BurstShield is a per-address token bucket. It protects the shared counters
// from floods; the fixed-window scopes still decide the business limits.
type BurstShield struct {
	mu       sync.Mutex
	limiters map[string]*addrLimiter
	r        rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

// NewBurstShield allows r requests per second per address with bursts up to
// burst. Addresses idle for 10 minutes are forgotten.
func NewBurstShield(r rate.Limit, burst int) *BurstShield {
	bs := &BurstShield{
		limiters: make(map[string]*addrLimiter),
		r:        r,
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go bs.cleanupLoop(5 * time.Minute)
	return bs
}

// Stop ends the cleanup goroutine.
func (bs *BurstShield) Stop() {
	bs.once.Do(func() { close(bs.stop) })
}

func (bs *BurstShield) get(addr string) *rate.Limiter {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if v, ok := bs.limiters[addr]; ok {
		v.lastSeen = bs.now()
		return v.limiter
	}
	l := rate.NewLimiter(bs.r, bs.burst)
	bs.limiters[addr] = &addrLimiter{limiter: l, lastSeen: bs.now()}
	return l
}

func (bs *BurstShield) cleanupLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-bs.stop:
			return
		case <-t.C:
			bs.sweep()
		}
	}
}

func (bs *BurstShield) sweep() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	now := bs.now()
	for addr, v := range bs.limiters {
		if now.Sub(v.lastSeen) > bs.idle {
			delete(bs.limiters, addr)
		}
	}
}

func (bs *BurstShield) tracked() int {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return len(bs.limiters)
}

// Limit rejects requests over the bucket with a rate-limited result.
func (bs *BurstShield) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !bs.get(remoteHost(r)).Allow() {
			WriteResult(w, authcore.ResultOf(nil, &authcore.RetryError{
				Err:        authcore.ErrRateLimited,
				RetryAfter: time.Second,
			}))
			return
		}
		next.ServeHTTP(w, r)
	})
}
