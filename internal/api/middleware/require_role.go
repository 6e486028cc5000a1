package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calyxlabs/curator/internal/authz"
	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/utils"
)

// RequireRole gates a route on the loaded profile's role. Must run after
// LoadProfile.
func RequireRole(required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentProfile(c)
		if !ok || !authz.Satisfies(p.Role, required, p.IsActive) {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:    utils.CodeForbidden,
				Message: "forbidden",
			})
			return
		}
		c.Next()
	}
}

func RequireCurator() gin.HandlerFunc { return RequireRole(models.RoleCurator) }

func RequireAdmin() gin.HandlerFunc { return RequireRole(models.RoleAdmin) }
