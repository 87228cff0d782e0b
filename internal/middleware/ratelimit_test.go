package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinecrypto/internal/applog"
    "github.com/iliyamo/cinecrypto/internal/config"
)

func TestRateLimiterPassThroughWithoutRedis(t *testing.T) {
    e := echo.New()
    mw := NewRateLimiter(config.RateLimitConfig{Enabled: true, Max: 1, Window: time.Minute, Prefix: "rl"}, nil, applog.Discard())
    h := mw(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

    for i := 0; i < 3; i++ {
        rec := httptest.NewRecorder()
        c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/showtimes/1/purchase", nil), rec)
        if err := h(c); err != nil || rec.Code != http.StatusNoContent {
            t.Fatalf("request %d: code=%d err=%v", i, rec.Code, err)
        }
    }
}

func TestRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/tickets/3/refund", nil)
    req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/tickets/:id/refund")
    if got, want := rateKey("rl", c), "rl:ip:203.0.113.7:route:POST /v1/tickets/:id/refund"; got != want {
        t.Fatalf("rateKey = %q, want %q", got, want)
    }
}
