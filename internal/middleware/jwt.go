package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinereviews/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ctxAccountID = "account_id"
	ctxEmail     = "email"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the account id and email claims into the request context.  The
// provided secret must match the one used when issuing tokens.  Handlers read
// the values through AccountID and Email.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(ctxAccountID, claims.Subject)
			c.Set(ctxEmail, claims.Email)
			return next(c)
		}
	}
}
