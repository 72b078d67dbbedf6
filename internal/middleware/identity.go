package middleware

// identity.go defines the user identification helper shared by the
// rate limiter and the response cache. It resolves the caller from the
// "user_id" context value set by JWTAuth, falling back to the claims of
// a parsed JWT stored under "user". Unauthenticated requests resolve to
// "anon".

import (
    "strconv"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// requestUserID extracts a user identifier from the Echo context for
// use in rate-limit and cache keys. It returns "anon" when no user is
// authenticated or the claims are missing.
func requestUserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case string:
        if v != "" {
            return v
        }
    case uint64:
        return strconv.FormatUint(v, 10)
    case int:
        return strconv.Itoa(v)
    case int64:
        return strconv.FormatInt(v, 10)
    case float64:
        return strconv.FormatUint(uint64(v), 10)
    }
    if tok, ok := c.Get("user").(*jwt.Token); ok {
        if cl, ok := tok.Claims.(jwt.MapClaims); ok {
            switch sub := cl["sub"].(type) {
            case string:
                if sub != "" {
                    return sub
                }
            case float64:
                return strconv.FormatUint(uint64(sub), 10)
            }
        }
    }
    return "anon"
}
