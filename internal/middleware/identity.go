package middleware

// identity.go holds helpers shared across middleware files for pulling the
// authenticated identity back out of the Echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// contextUserID returns the authenticated user id as a string, or "anon"
// when the request carries no principal. JWT numeric claims decode as
// float64, so both representations are handled.
func contextUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	return "anon"
}
