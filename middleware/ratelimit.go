package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"secdash/internal/httputil"
)

// RateLimitConfig sizes the per-client token buckets. MaxRequests is both the
// burst and the number of tokens refilled over Window.
type RateLimitConfig struct {
	MaxRequests        int
	Window             time.Duration
	MaxEntries         int
	TrustProxy         bool
	ExemptPaths        []string
	ExemptPathPrefixes []string
}

// DefaultRateLimitConfig allows 300 requests a minute per client and leaves
// health checks, metrics and static assets alone.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests:        300,
		Window:             time.Minute,
		MaxEntries:         10_000,
		ExemptPaths:        []string{"/api/health", "/api/ready", "/metrics"},
		ExemptPathPrefixes: []string{"/assets/"},
	}
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	config  RateLimitConfig
	buckets map[string]*clientBucket
}

func newRateLimiter(config RateLimitConfig) *rateLimiter {
	return &rateLimiter{config: config, buckets: make(map[string]*clientBucket)}
}

// RateLimit rejects clients that exhaust their bucket with 429 and a
// Retry-After hint.
func RateLimit(config RateLimitConfig) func(http.Handler) http.Handler {
	limiter := newRateLimiter(config)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || shouldSkipRateLimit(r, config) {
				next.ServeHTTP(w, r)
				return
			}
			allowed, retryAfter := limiter.allow(time.Now(), httputil.ClientIP(r, config.TrustProxy))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func shouldSkipRateLimit(r *http.Request, config RateLimitConfig) bool {
	path := r.URL.Path
	for _, exempt := range config.ExemptPaths {
		if path == exempt {
			return true
		}
	}
	for _, prefix := range config.ExemptPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (l *rateLimiter) every() rate.Limit {
	return rate.Every(l.config.Window / time.Duration(l.config.MaxRequests))
}

// allow reports whether key may proceed at now and, if not, how many whole
// seconds until a token is available.
func (l *rateLimiter) allow(now time.Time, key string) (bool, int) {
	if key == "" || l.config.MaxRequests <= 0 || l.config.Window <= 0 {
		return true, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[key]
	if !ok {
		l.prune(now)
		bucket = &clientBucket{limiter: rate.NewLimiter(l.every(), l.config.MaxRequests)}
		l.buckets[key] = bucket
	}
	bucket.lastSeen = now

	reservation := bucket.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, retrySeconds(l.config.Window)
	}
	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return true, 0
	}
	reservation.CancelAt(now)
	return false, retrySeconds(delay)
}

// prune drops buckets idle for a full window, which are back at full burst,
// then evicts the least recently seen until a new bucket fits.
func (l *rateLimiter) prune(now time.Time) {
	for key, bucket := range l.buckets {
		if now.Sub(bucket.lastSeen) >= l.config.Window {
			delete(l.buckets, key)
		}
	}
	if l.config.MaxEntries <= 0 {
		return
	}
	for len(l.buckets) >= l.config.MaxEntries {
		var oldestKey string
		var oldest time.Time
		for key, bucket := range l.buckets {
			if oldestKey == "" || bucket.lastSeen.Before(oldest) {
				oldestKey = key
				oldest = bucket.lastSeen
			}
		}
		delete(l.buckets, oldestKey)
	}
}

func retrySeconds(d time.Duration) int {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
