package middleware

// identity.go defines the authenticated identity attached to a request by
// Session and the helpers handlers use to read it.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// Identity is the caller established from a valid session token.
type Identity struct {
	UserID string // decimal user id, as carried by the token
	Email  string
}

// NumericID parses UserID for store lookups keyed by uint64.
func (i Identity) NumericID() (uint64, error) {
	return strconv.ParseUint(i.UserID, 10, 64)
}

// CurrentIdentity returns the identity attached by Session, if any.
func CurrentIdentity(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// userID returns the caller's id or "guest".  Used to build rate limit keys.
func userID(c echo.Context) string {
	if id, ok := CurrentIdentity(c); ok {
		return id.UserID
	}
	return "guest"
}
