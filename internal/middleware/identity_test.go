package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/student-housing/internal/config"
)

func newCtx(t *testing.T) echo.Context {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/browse/properties?location=mill", nil)
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/browse/properties")
    return c
}

func TestRequestUserID(t *testing.T) {
    c := newCtx(t)
    assert.Equal(t, "anon", requestUserID(c))

    c.Set("user_id", "17")
    assert.Equal(t, "17", requestUserID(c))

    c.Set("user_id", uint64(42))
    assert.Equal(t, "42", requestUserID(c))

    // JWTAuth stores numeric claims as float64.
    c.Set("user_id", float64(7))
    assert.Equal(t, "7", requestUserID(c))
}

func TestRateKeyUsesRequestUser(t *testing.T) {
    cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}
    c := newCtx(t)
    c.Set("user_id", uint64(5))
    key := buildRateKey(cfg, c)
    assert.Contains(t, key, "user:5")
    assert.Contains(t, key, "GET /v1/browse/properties")
}

func TestCacheKeyUserStrategyVariesByUser(t *testing.T) {
    cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "user_route_query"}

    a := newCtx(t)
    a.Set("user_id", uint64(1))
    b := newCtx(t)
    b.Set("user_id", uint64(2))

    assert.NotEqual(t, cacheKeyFrom(cfg, a), cacheKeyFrom(cfg, b))
    assert.Equal(t, cacheKeyFrom(cfg, a), cacheKeyFrom(cfg, a))
}
