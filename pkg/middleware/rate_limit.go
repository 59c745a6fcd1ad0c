package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/unified-feedback/unified/backend/pkg/metrics"
)

// rateKey picks the limiter bucket: the verified subject when present,
// otherwise the client IP.
func rateKey(c *gin.Context) string {
	if sub := Subject(c); sub != "" {
		return "sub:" + sub
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func rejectRateLimited(c *gin.Context, retryAfter string) {
	c.Header("Retry-After", retryAfter)
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
}

// RateLimitMiddleware returns a Gin middleware enforcing an in-memory
// token bucket per key. name labels the metrics and keeps buckets of
// different limiters apart. rps = allowed events per second, burst = maximum
// tokens in bucket.
func RateLimitMiddleware(name string, rps float64, burst int) gin.HandlerFunc {
	var buckets sync.Map // key -> *rate.Limiter
	label := "memory:" + name
	return func(c *gin.Context) {
		v, _ := buckets.LoadOrStore(rateKey(c), rate.NewLimiter(rate.Limit(rps), burst))
		if !v.(*rate.Limiter).Allow() {
			metrics.RateLimitRejected.WithLabelValues(label).Inc()
			rejectRateLimited(c, "1")
			return
		}
		metrics.RateLimitAllowed.WithLabelValues(label).Inc()
		c.Next()
	}
}
