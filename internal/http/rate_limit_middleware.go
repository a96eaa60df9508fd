package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/allisson/users/internal/httputil"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterMaxIdle       = time.Hour
)

// clientLimiters keeps one token bucket per client IP.
type clientLimiters struct {
	mu      sync.Mutex
	buckets map[string]*clientBucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiters(rps float64, burst int) *clientLimiters {
	return &clientLimiters{
		buckets: make(map[string]*clientBucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// RateLimitMiddleware allows rps requests per second per client IP, with bursts up to burst.
// c.ClientIP() honours X-Forwarded-For and X-Real-IP. Rejected requests get 429 with a
// Retry-After header. Idle buckets are swept until ctx is cancelled.
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	limiters := newClientLimiters(rps, burst)
	go limiters.sweep(ctx, limiterSweepInterval, limiterMaxIdle)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		wait, ok := limiters.take(ip)
		if ok {
			c.Next()
			return
		}

		retryAfter := max(1, int(math.Ceil(wait.Seconds())))
		logger.Debug("rate limit exceeded",
			slog.String("client_ip", ip),
			slog.Int("retry_after", retryAfter),
		)

		c.Header("Retry-After", strconv.Itoa(retryAfter))
		httputil.AbortWithError(c, http.StatusTooManyRequests, httputil.CodeTooManyRequests,
			"Too many requests from this IP. Please retry after the specified delay.")
	}
}

// take spends one token for ip. When none is available it returns how long until one is.
func (l *clientLimiters) take(ip string) (time.Duration, bool) {
	now := l.now()
	limiter := l.bucket(ip, now)

	reservation := limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return time.Second, false
	}

	delay := reservation.DelayFrom(now)
	if delay == 0 {
		return 0, true
	}
	reservation.CancelAt(now)
	return delay, false
}

func (l *clientLimiters) bucket(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter
}

func (l *clientLimiters) sweep(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.removeIdle(l.now().Add(-maxIdle))
		}
	}
}

// removeIdle drops buckets not used since cutoff.
func (l *clientLimiters) removeIdle(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}
