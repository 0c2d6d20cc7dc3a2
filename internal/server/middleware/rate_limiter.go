package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/pkg/logger"
	"github.com/sadskatr/patent-database/internal/pkg/validator"
)

// Rate limit key strategies
const (
	StrategyIP       = "ip"
	StrategyEndpoint = "endpoint"
)

// RateLimiterConfig configures the sliding window
type RateLimiterConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// MaxRequests allowed inside one window
	MaxRequests int `mapstructure:"max_requests"`
	// WindowSeconds is the window length
	WindowSeconds int `mapstructure:"window_seconds"`
	// Strategy is ip (default) or endpoint
	Strategy string `mapstructure:"strategy"`
}

// ScriptRunner is the part of the Redis client the limiter needs
type ScriptRunner interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// Members are unique per request so bursts inside the same millisecond
// are all counted.
const slidingWindowScript = `
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

	local current = redis.call('ZCARD', key)
	if current < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window)
		return {1, limit - current - 1, now + window}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')[2]
	return {0, 0, tonumber(oldest) + window}
`

// RateLimiter is a Redis-backed sliding window limiter
type RateLimiter struct {
	runner ScriptRunner
	config RateLimiterConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewRateLimiter fills config defaults: 100 requests per 60s keyed by IP
func NewRateLimiter(runner ScriptRunner, cfg RateLimiterConfig, log *logger.Logger) *RateLimiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = 60
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyIP
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RateLimiter{runner: runner, config: cfg, logger: log, now: time.Now}
}

// Handler returns the gin middleware. Redis failures let the request through.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := buildRateLimitKey(c, l.config.Strategy)

		allowed, remaining, resetAt, err := l.check(c.Request.Context(), key)
		if err != nil {
			l.logger.Error("rate limiter error", zap.Error(err), zap.String("key", key),
				zap.String("request_id", logger.GetRequestID(c.Request.Context())))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.config.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(l.config.WindowSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   fmt.Sprintf("Too many requests, please try again in %d seconds", l.config.WindowSeconds),
			})
			return
		}

		c.Next()
	}
}

func buildRateLimitKey(c *gin.Context, strategy string) string {
	const prefix = "patent_database:rate_limit"

	client := validator.ClientKey(c.ClientIP())
	if strategy == StrategyEndpoint {
		return fmt.Sprintf("%s:endpoint:%s:%s", prefix, c.FullPath(), client)
	}
	return fmt.Sprintf("%s:ip:%s", prefix, client)
}

func (l *RateLimiter) check(ctx context.Context, key string) (allowed bool, remaining int, resetAt time.Time, err error) {
	now := l.now().UnixMilli()
	window := int64(l.config.WindowSeconds) * 1000

	result, err := l.runner.Eval(ctx, slidingWindowScript, []string{key},
		now, window, l.config.MaxRequests, uuid.NewString())
	if err != nil {
		return false, 0, time.Time{}, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("invalid rate limit result: %v", result)
	}

	allowedInt, _ := values[0].(int64)
	remainingInt, _ := values[1].(int64)
	resetMillis, _ := values[2].(int64)

	return allowedInt == 1, int(remainingInt), time.UnixMilli(resetMillis), nil
}
