package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/cache"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/metrics"
)

// RateLimit allows limit requests per client IP and window. A counter failure
// lets the request through. A limit of zero disables the check.
func RateLimit(counter cache.Counter, name string, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		n, err := counter.Incr(c.Request.Context(), name+":"+c.ClientIP(), window)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("limiter", name), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		if remaining := int64(limit) - n; remaining > 0 {
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		} else {
			c.Header("X-RateLimit-Remaining", "0")
		}

		if n > int64(limit) {
			metrics.RateLimited.Inc()
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			httperr.Write(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please slow down.")
			return
		}
		c.Next()
	}
}
