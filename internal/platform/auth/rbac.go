package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Role names used across the booking workflow.
const (
	RoleAdmin             string = "admin"
	RoleOperations        string = "operations"
	RoleOperationsManager string = "operations-manager"
	RoleSales             string = "sales"
	RoleSalesManager      string = "sales-manager"
	RoleDriver            string = "driver"
	RoleIT                string = "it"
)

// RequireRole returns middleware that checks if the user has one of the
// specified roles. Admin passes every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole := RoleFromContext(c.Request().Context())
			if userRole == RoleAdmin {
				return next(c)
			}
			for _, required := range roles {
				if userRole == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// ScopedCountry returns the country rows should be filtered by for this user.
// Admin and IT see all countries (empty string means unscoped); everyone else
// is confined to the country carried in their token.
func ScopedCountry(role, country string) string {
	if role == RoleAdmin || role == RoleIT {
		return ""
	}
	return country
}
