// Package middleware holds echo middleware shared by the HTTP routes.
package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinecrypto/internal/config"
)

// fixedWindow increments the counter of the current window and returns
// {count, ttl_ms}.  The expiry is only set by the first hit of a window.
var fixedWindow = redis.NewScript(`
    local count = redis.call('INCR', KEYS[1])
    if count == 1 then
        redis.call('PEXPIRE', KEYS[1], ARGV[1])
    end
    local ttl = redis.call('PTTL', KEYS[1])
    return { count, ttl }
`)

// NewRateLimiter limits each client IP to cfg.Max requests per cfg.Window
// on every route it wraps.  It is applied to transaction routes, where a
// burst of retries costs real funds.  Without Redis, or when Redis
// errors, requests pass through.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, logger *logrus.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg.Prefix, c)
            res, err := fixedWindow.Run(c.Request().Context(), rdb, []string{key}, cfg.Window.Milliseconds()).Int64Slice()
            if err != nil || len(res) != 2 {
                logger.WithError(err).WithField("key", key).Warn("ratelimit: redis unavailable, allowing request")
                return next(c)
            }
            count, ttlMs := res[0], res[1]

            remaining := int64(cfg.Max) - count
            if remaining < 0 {
                remaining = 0
            }
            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if count > int64(cfg.Max) {
                secs := int(math.Ceil(float64(ttlMs) / 1000.0))
                if secs < 0 {
                    secs = 0
                }
                h.Set("Retry-After", strconv.Itoa(secs))
                logger.WithFields(logrus.Fields{"key": key, "count": count}).Info("ratelimit: blocked")
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too_many_requests",
                    "message":     "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func rateKey(prefix string, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    return strings.Join([]string{prefix, "ip", ip, "route", c.Request().Method + " " + c.Path()}, ":")
}
