package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/services"
	"github.com/calyxlabs/curator/internal/utils"
)

const profileKey = "profile"

// LoadProfile resolves the caller's profile row from the identity JWTAuth
// stashed on the context, provisioning one on first sight.
func LoadProfile(profiles services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		id, _ := userID.(string)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "unauthorized",
			})
			return
		}

		email := c.GetString("email")
		fullName := c.GetString("full_name")

		p, err := profiles.EnsureProfile(c.Request.Context(), id, email, fullName)
		if err != nil {
			c.AbortWithStatusJSON(utils.HTTPStatus(err), apiError{
				Code:    utils.CodeInternal,
				Message: "failed to resolve profile",
			})
			return
		}
		if !p.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:    utils.CodeForbidden,
				Message: "account is deactivated",
			})
			return
		}

		c.Set(profileKey, p)
		c.Next()
	}
}

func CurrentProfile(c *gin.Context) (*models.Profile, bool) {
	v, ok := c.Get(profileKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*models.Profile)
	return p, ok && p != nil
}
