package middleware

// identity.go resolves the acting principal once per request and exposes
// helpers shared across middleware files.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/identity"
	"github.com/iliyamo/slot-booking/internal/model"
)

const principalKey = "principal"

// PrincipalResolver maps an authenticated user ID to a principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, userID uint64) (model.Principal, error)
}

// ResolvePrincipal looks up the principal for the user_id placed in the
// context by JWTAuth and stores it for handlers.  Users without a
// resource get 403.
func ResolvePrincipal(resolver PrincipalResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, err := UserID(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			p, err := resolver.Resolve(c.Request().Context(), uid)
			if errors.Is(err, identity.ErrUnknownUser) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "user is not a member of any business"})
			}
			if err != nil {
				c.Logger().Errorf("resolve principal for user %d: %v", uid, err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve user"})
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal stored by ResolvePrincipal.
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok
}

// UserID extracts the user_id from echo.Context and converts it to uint64.
// JSON numbers in JWT claims arrive as float64.
func UserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// userKey is the user identifier used in rate-limit and cache keys;
// "anon" when no user is authenticated.
func userKey(c echo.Context) string {
	if uid, err := UserID(c); err == nil && uid != 0 {
		return strconv.FormatUint(uid, 10)
	}
	return "anon"
}

// tenantKey namespaces cached responses by tenant so a cached body is
// only ever served to members of the tenant it was computed for.
func tenantKey(c echo.Context) string {
	if p, ok := PrincipalFrom(c); ok {
		return fmt.Sprintf("t%d", p.TenantID)
	}
	return "public"
}
