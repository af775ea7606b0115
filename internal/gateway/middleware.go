package gateway

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/eleven-am/realtime-client/internal/shared"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	// CleanupInterval is also the idle age after which a client's bucket is
	// evicted. Zero disables eviction.
	CleanupInterval time.Duration
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 1,
		Burst:             3,
		CleanupInterval:   5 * time.Minute,
	}
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiterStore struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	config  RateLimiterConfig
	now     func() time.Time
}

func newRateLimiterStore(cfg RateLimiterConfig) *rateLimiterStore {
	return &rateLimiterStore{
		clients: make(map[string]*clientBucket),
		config:  cfg,
		now:     time.Now,
	}
}

// reserve takes a token for key. It returns zero when the request may proceed,
// otherwise how long the client should wait.
func (s *rateLimiterStore) reserve(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, ok := s.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(s.config.RequestsPerSecond), s.config.Burst)}
		s.clients[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return time.Duration(math.MaxInt64)
	}
	delay := r.DelayFrom(now)
	if delay > 0 {
		r.CancelAt(now)
	}
	return delay
}

func (s *rateLimiterStore) evictIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.config.CleanupInterval)
	evicted := 0
	for key, b := range s.clients {
		if b.lastSeen.Before(cutoff) {
			delete(s.clients, key)
			evicted++
		}
	}
	return evicted
}

func (s *rateLimiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// RateLimiter limits requests per client IP. Connect attempts each cost a
// credential request upstream, so it sits in front of the connect route.
type RateLimiter struct {
	store    *rateLimiterStore
	done     chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	l := &RateLimiter{
		store:    newRateLimiterStore(cfg),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go l.cleanupLoop(cfg.CleanupInterval)
	} else {
		close(l.loopDone)
	}
	return l
}

func (l *RateLimiter) cleanupLoop(interval time.Duration) {
	defer close(l.loopDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.store.evictIdle()
		case <-l.done:
			return
		}
	}
}

// Stop ends the cleanup goroutine and waits for it. The middleware keeps
// limiting after Stop; only idle eviction ceases.
func (l *RateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
	<-l.loopDone
}

func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if wait := l.store.reserve(c.RealIP()); wait > 0 {
				c.Response().Header().Set("Retry-After", retryAfter(wait))
				return shared.TooManyRequests("rate_limit_exceeded", "too many connect attempts")
			}
			return next(c)
		}
	}
}

func retryAfter(wait time.Duration) string {
	secs := int64(math.Ceil(wait.Seconds()))
	if secs < 1 || wait == time.Duration(math.MaxInt64) {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
