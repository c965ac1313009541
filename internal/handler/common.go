package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// principalID extracts the authenticated user id placed in context by the
// JWT middleware. JWT numeric claims decode as float64; string subjects are
// parsed. nil means the request carries no principal, which is a legal
// state on routes using OptionalJWTAuth.
func principalID(c echo.Context) *uint64 {
	switch v := c.Get("user_id").(type) {
	case float64:
		id := uint64(v)
		return &id
	case uint64:
		return &v
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			return &id
		}
	}
	return nil
}

// mustPrincipalID is principalID for routes behind JWTAuth, where a missing
// principal is a programming error surfaced as (0, false).
func mustPrincipalID(c echo.Context) (uint64, bool) {
	if id := principalID(c); id != nil {
		return *id, true
	}
	return 0, false
}
