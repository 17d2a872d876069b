package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blacx/annotator/internal/cache"
	"github.com/blacx/annotator/internal/logging"
)

// RateLimit caps requests per client IP using the shared cache as the
// counter store, so the limit holds across API replicas. A nil cache
// disables limiting. Counter errors fail open.
func RateLimit(c *cache.Cache, log *logging.Logger, limit int64, window time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil {
			ctx.Next()
			return
		}

		// CheckRateLimit adds its own "ratelimit:" prefix.
		key := "ip:" + ctx.ClientIP()
		allowed, err := c.CheckRateLimit(ctx.Request.Context(), key, limit, window)
		if err != nil {
			log.WithError(err).Warn("rate limit check failed, allowing request")
			ctx.Next()
			return
		}
		if !allowed {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		ctx.Next()
	}
}
