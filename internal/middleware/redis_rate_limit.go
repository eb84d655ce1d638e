package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lingxijiao/backend/internal/logger"
	"github.com/lingxijiao/backend/internal/metrics"
	"go.uber.org/zap"
)

// WindowCounter counts hits per key in fixed windows. cache.RedisClient
// implements it.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisRateLimitMiddleware creates a distributed fixed-window rate limiter.
// This works across multiple instances sharing one Redis.
func RedisRateLimitMiddleware(counter WindowCounter, config RateLimitConfig, log *zap.Logger) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = clientKey
	}

	return func(c *gin.Context) {
		clientID := config.KeyFunc(c)
		key := fmt.Sprintf("rate_limit:%s", clientID)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := counter.IncrWindow(ctx, key, config.Window)
		if err != nil {
			// Reject while the limiter is broken rather than run unthrottled
			log.Error("Rate limit check failed - rejecting request",
				logger.WithIP(clientID),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
			return
		}

		if count > int64(config.Limit) {
			metrics.RecordRateLimitExceeded("redis")
			log.Warn("Rate limit exceeded",
				logger.WithIP(clientID),
				zap.Int("max_requests", config.Limit),
				zap.Int64("current_requests", count),
			)
			abortRateLimited(c, config.Limit, windowSeconds(config.Window))
			return
		}

		c.Next()
	}
}
