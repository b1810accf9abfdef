package middleware

import "github.com/labstack/echo/v4"

// AccountID returns the authenticated account id, or "" when the request
// did not pass through JWTAuth.
func AccountID(c echo.Context) string {
	s, _ := c.Get(ctxAccountID).(string)
	return s
}

// Email returns the email claim of the authenticated account, or "".
func Email(c echo.Context) string {
	s, _ := c.Get(ctxEmail).(string)
	return s
}

// currentUserID identifies the caller for rate limiting.
func currentUserID(c echo.Context) string {
	if id := AccountID(c); id != "" {
		return id
	}
	return "anon"
}
