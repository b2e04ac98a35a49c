package middleware

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/OSU-CS493-Sp18/mongodb/internal/config"
)

// takeToken refills the bucket in KEYS[1] at ARGV[3] tokens per ms, up to
// ARGV[2], and spends one token if available.
// Returns {allowed, tokens_left, retry_after_ms}.
var takeToken = redis.NewScript(`
local now, capacity, rate, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4])
local b = redis.call('HMGET', KEYS[1], 't', 'ts')
local tokens, ts = tonumber(b[1]) or capacity, tonumber(b[2]) or now
tokens = math.min(capacity, tokens + math.max(0, now - ts) * rate)
local allowed, wait = 0, 0
if tokens >= 1 then
    allowed, tokens = 1, tokens - 1
else
    wait = math.ceil((1 - tokens) / rate)
end
redis.call('HSET', KEYS[1], 't', tokens, 'ts', now)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, math.floor(tokens), wait}
`)

// NewTokenBucket limits requests per client IP and/or route.  Requests
// pass when Redis is missing or the script fails.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, logger *logrus.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    rate := float64(cfg.RefillTokens) / (float64(cfg.RefillInterval) / float64(time.Millisecond))
    limit := strconv.Itoa(cfg.Capacity)
    ttl := int64(cfg.TTL / time.Second)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            res, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), cfg.Capacity, rate, ttl).Int64Slice()
            if err != nil || len(res) != 3 {
                logger.WithError(err).WithField("key", key).Warn("rate limit check failed; letting request through")
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if res[0] == 1 {
                return next(c)
            }

            retry := (res[2] + 999) / 1000
            h.Set("Retry-After", strconv.FormatInt(retry, 10))
            logger.WithFields(logrus.Fields{"key": key, "retry_s": retry}).Debug("rate limited")
            return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many requests.  Please try again later."})
        }
    }
}

// buildRateKey is prefix:ip:<ip>, prefix:route:<method path> or both.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "route":
        parts = append(parts, "route", route)
    default:
        parts = append(parts, "ip", ip, "route", route)
    }
    return strings.Join(parts, ":")
}
