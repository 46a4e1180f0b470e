package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/careline/chatbot-backend/pkg/utils"
)

const rateLimitWindow = time.Minute

// counterStore is the slice of the Redis API the limiter needs.
// *redis.Client satisfies it.
type counterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter counts requests per client IP in Redis, so the limit
// holds across instances sharing the same cache.
type RateLimiter struct {
	store  counterStore
	rate   int // requests per window
	logger *logrus.Logger
}

// NewRateLimiter creates a rate limiter allowing rate requests per
// client IP per minute.
func NewRateLimiter(store counterStore, rate int, logger *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		store:  store,
		rate:   rate,
		logger: logger,
	}
}

// RateLimit middleware function
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP()
		ctx := c.Request.Context()

		count, err := rl.store.Incr(ctx, key).Result()
		if err != nil {
			// A cache outage must not take the chat endpoint with it.
			rl.logger.WithError(err).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		// First hit in the window starts the clock.
		if count == 1 {
			if err := rl.store.Expire(ctx, key, rateLimitWindow).Err(); err != nil {
				rl.logger.WithFields(logrus.Fields{
					"key": key,
				}).WithError(err).Warn("Failed to set rate limit window")
			}
		}

		if count > int64(rl.rate) {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// Security middleware
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = utils.GenerateRandomID(8)
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}
