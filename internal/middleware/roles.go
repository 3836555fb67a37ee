package middleware

import (
	"net/http"

	"reqgather/internal/common"
	"reqgather/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRole allows only callers whose role is in the allow-list. 401 when
// unauthenticated, 403 when authenticated with an insufficient role.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := common.GetIdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, genericAuthMessage)
			}
			if _, ok := allowed[identity.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}

// RequireAdmin restricts a route to administrators.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(models.RoleAdmin)
}

// RequireManager restricts a route to managers and administrators.
func RequireManager() echo.MiddlewareFunc {
	return RequireRole(models.RoleAdmin, models.RoleManager)
}
