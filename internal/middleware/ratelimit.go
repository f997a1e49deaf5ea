package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/telvia/crm-api/pkg/errors"
	"github.com/telvia/crm-api/pkg/response"
)

// RequestCounter increments a fixed-window counter for a key.
type RequestCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiterMetrics counts rejected requests.
type RateLimiterMetrics interface {
	RecordRateLimited()
}

// RateLimit bounds requests per client IP in a fixed window. When the
// counter backend is unreachable the limiter fails open.
func RateLimit(counter RequestCounter, requests int, window time.Duration, metrics RateLimiterMetrics, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if counter == nil || requests <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())
		count, err := counter.Incr(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn("rate limit counter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if count > int64(requests) {
			if metrics != nil {
				metrics.RecordRateLimited()
			}
			response.Error(c, appErrors.ErrTooManyRequests)
			c.Abort()
			return
		}

		c.Next()
	}
}
