package middleware

import (
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/OSU-CS493-Sp18/mongodb/internal/config"
)

func newRedis(t *testing.T) *redis.Client {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return rdb
}

func quietLogger() *logrus.Logger {
    l := logrus.New()
    l.SetOutput(io.Discard)
    return l
}

func cacheConfig() config.CacheConfig {
    return config.CacheConfig{
        Enabled:      true,
        Methods:      map[string]bool{"GET": true},
        TTL:          time.Minute,
        KeyStrategy:  "route_query",
        Prefix:       "test",
        MaxBodyBytes: 1 << 16,
    }
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, target, nil)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestCacheHitAfterMiss(t *testing.T) {
    e := echo.New()
    e.Use(NewRedisCache(cacheConfig(), newRedis(t)))
    calls := 0
    e.GET("/lodgings/:id", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
    })

    first := do(e, http.MethodGet, "/lodgings/1")
    if got := first.Header().Get("X-Cache"); got != "MISS" {
        t.Fatalf("first X-Cache = %q, want MISS", got)
    }
    second := do(e, http.MethodGet, "/lodgings/1")
    if got := second.Header().Get("X-Cache"); got != "HIT" {
        t.Fatalf("second X-Cache = %q, want HIT", got)
    }
    if second.Body.String() != first.Body.String() {
        t.Errorf("cached body %q, want %q", second.Body.String(), first.Body.String())
    }
    if calls != 1 {
        t.Errorf("handler ran %d times, want 1", calls)
    }

    // a different id must not share the entry
    other := do(e, http.MethodGet, "/lodgings/2")
    if got := other.Header().Get("X-Cache"); got != "MISS" {
        t.Errorf("other id X-Cache = %q, want MISS", got)
    }
}

func TestCacheInvalidatedByWrite(t *testing.T) {
    e := echo.New()
    e.Use(NewRedisCache(cacheConfig(), newRedis(t)))
    e.GET("/lodgings", func(c echo.Context) error { return c.JSON(http.StatusOK, echo.Map{"ok": true}) })
    e.POST("/lodgings", func(c echo.Context) error { return c.JSON(http.StatusCreated, echo.Map{"id": 1}) })

    do(e, http.MethodGet, "/lodgings")
    if got := do(e, http.MethodGet, "/lodgings").Header().Get("X-Cache"); got != "HIT" {
        t.Fatalf("X-Cache before write = %q, want HIT", got)
    }
    do(e, http.MethodPost, "/lodgings")
    if got := do(e, http.MethodGet, "/lodgings").Header().Get("X-Cache"); got != "MISS" {
        t.Errorf("X-Cache after write = %q, want MISS", got)
    }
}

func TestCacheInvalidatedByFailedWrite(t *testing.T) {
    e := echo.New()
    e.Use(NewRedisCache(cacheConfig(), newRedis(t)))
    rows := 0
    e.GET("/users/:id/lodgings", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"count": rows})
    })
    // the row lands before the request fails
    e.POST("/lodgings", func(c echo.Context) error {
        rows++
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Error inserting lodging into DB.  Please try again later."})
    })

    do(e, http.MethodGet, "/users/u1/lodgings")
    if rec := do(e, http.MethodPost, "/lodgings"); rec.Code != http.StatusInternalServerError {
        t.Fatalf("POST status = %d, want 500", rec.Code)
    }

    rec := do(e, http.MethodGet, "/users/u1/lodgings")
    if got := rec.Header().Get("X-Cache"); got != "MISS" {
        t.Errorf("X-Cache after failed write = %q, want MISS", got)
    }
    if !strings.Contains(rec.Body.String(), `"count":1`) {
        t.Errorf("body = %s, want count 1", rec.Body.String())
    }
}

func TestCacheSkipsErrors(t *testing.T) {
    e := echo.New()
    e.Use(NewRedisCache(cacheConfig(), newRedis(t)))
    e.GET("/lodgings/:id", func(c echo.Context) error {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Specified lodging 9 not found"})
    })

    do(e, http.MethodGet, "/lodgings/9")
    rec := do(e, http.MethodGet, "/lodgings/9")
    if got := rec.Header().Get("X-Cache"); got != "MISS" {
        t.Errorf("X-Cache = %q, want MISS for a 404", got)
    }
    if rec.Code != http.StatusNotFound {
        t.Errorf("status = %d, want 404", rec.Code)
    }
}

func TestCacheDisabledWithoutRedis(t *testing.T) {
    e := echo.New()
    e.Use(NewRedisCache(cacheConfig(), nil))
    e.GET("/", func(c echo.Context) error { return c.JSON(http.StatusOK, echo.Map{}) })

    if got := do(e, http.MethodGet, "/").Header().Get("X-Cache"); got != "" {
        t.Errorf("X-Cache = %q, want none", got)
    }
}

func TestTokenBucketBlocksWhenEmpty(t *testing.T) {
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Hour,
        TTL:            5 * time.Hour,
        KeyStrategy:    "ip_route",
        Prefix:         "rl",
    }
    e := echo.New()
    e.Use(NewTokenBucket(cfg, newRedis(t), quietLogger()))
    e.GET("/lodgings", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

    for i := 0; i < 2; i++ {
        if rec := do(e, http.MethodGet, "/lodgings"); rec.Code != http.StatusOK {
            t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
        }
    }
    rec := do(e, http.MethodGet, "/lodgings")
    if rec.Code != http.StatusTooManyRequests {
        t.Fatalf("third request status = %d, want 429", rec.Code)
    }
    if rec.Header().Get("Retry-After") == "" {
        t.Error("missing Retry-After header")
    }
    if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
        t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
    }
}

func TestTokenBucketRefills(t *testing.T) {
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       1,
        RefillTokens:   1,
        RefillInterval: 300 * time.Millisecond,
        TTL:            time.Minute,
        KeyStrategy:    "ip",
        Prefix:         "rl",
    }
    e := echo.New()
    e.Use(NewTokenBucket(cfg, newRedis(t), quietLogger()))
    e.GET("/lodgings", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

    if rec := do(e, http.MethodGet, "/lodgings"); rec.Code != http.StatusOK {
        t.Fatalf("first status = %d, want 200", rec.Code)
    }
    if rec := do(e, http.MethodGet, "/lodgings"); rec.Code != http.StatusTooManyRequests {
        t.Fatalf("second status = %d, want 429", rec.Code)
    }
    time.Sleep(350 * time.Millisecond)
    if rec := do(e, http.MethodGet, "/lodgings"); rec.Code != http.StatusOK {
        t.Errorf("status after refill = %d, want 200", rec.Code)
    }
}

func TestBuildRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/lodgings/3", nil)
    req.RemoteAddr = "10.0.0.1:5555"
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/lodgings/:id")

    tests := []struct {
        strategy string
        want     string
    }{
        {"ip", "rl:ip:10.0.0.1"},
        {"route", "rl:route:GET /lodgings/:id"},
        {"ip_route", "rl:ip:10.0.0.1:route:GET /lodgings/:id"},
        {"", "rl:ip:10.0.0.1:route:GET /lodgings/:id"},
    }
    for _, tt := range tests {
        got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}, c)
        if got != tt.want {
            t.Errorf("strategy %q: key = %q, want %q", tt.strategy, got, tt.want)
        }
    }
}

func TestRequestLoggerRendersHandlerErrors(t *testing.T) {
    e := echo.New()
    e.Use(RequestLogger(quietLogger()))
    e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "no") })

    if rec := do(e, http.MethodGet, "/boom"); rec.Code != http.StatusTeapot {
        t.Errorf("status = %d, want 418", rec.Code)
    }
}
