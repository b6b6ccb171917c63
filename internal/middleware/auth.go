// Package middleware contains reusable HTTP middleware: operator
// authentication and Redis-backed rate limiting.
package middleware

import (
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"

    "github.com/voyagekit/tour-reservation/internal/problem"
)

// Context keys set by OperatorAuth.
const (
    ActorKey = "actor"
    RoleKey  = "role"
)

// OperatorAuth returns an Echo middleware that validates a Bearer access
// token and injects the token's subject into the request context as the
// acting operator.  The provided secret must match the one used when
// issuing tokens.  Handlers behind this middleware read the identity via
// `c.Get(middleware.ActorKey)`.
func OperatorAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return render(c, problem.Unauthorized("missing bearer token"))
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return render(c, problem.Unauthorized("invalid token"))
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return render(c, problem.Unauthorized("invalid claims"))
            }

            sub, _ := claims["sub"].(string)
            if sub == "" {
                return render(c, problem.Unauthorized("token has no subject"))
            }
            c.Set(ActorKey, sub)
            if role, ok := claims["role"].(string); ok {
                c.Set(RoleKey, role)
            }
            return next(c)
        }
    }
}

// Actor returns the authenticated operator identity, or "" when the request
// is unauthenticated.
func Actor(c echo.Context) string {
    if v, ok := c.Get(ActorKey).(string); ok {
        return v
    }
    return ""
}

// render writes a problem document without going through the Echo error
// handler, so middleware responses match handler responses byte for byte.
func render(c echo.Context, p *problem.Problem) error {
    c.Response().Header().Set(echo.HeaderContentType, problem.ContentType)
    return c.JSON(p.Status, p)
}
