package middleware

import (
	"fmt"
	"net/http"
	"time"

	"clientdesk_backend/internal/logger"
	"clientdesk_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware ограничивает число запросов с одного IP в окне
// (фиксированное окно поверх Redis INCR+EXPIRE). Без Redis лимит
// отключен: недоступность Redis не должна ронять вход в систему.
func RateLimitMiddleware(client *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), c.ClientIP())

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.WithError(err).Warn("rate limiter unavailable, allowing request", "key", key)
			c.Next()
			return
		}

		if count == 1 {
			if err := client.Expire(ctx, key, window).Err(); err != nil {
				logger.WithError(err).Warn("failed to set rate limit window", "key", key)
			}
		}

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": apperrors.ErrTooManyRequests.Message,
			})
			return
		}
		c.Next()
	}
}
