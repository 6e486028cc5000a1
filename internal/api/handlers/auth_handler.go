package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Signout clears the session cookie and bounces the browser back to the
// login page. Token revocation itself happens at the identity provider.
func (h *AuthHandler) Signout(c *gin.Context) {
	c.SetCookie("sb-access-token", "", -1, "/", "", false, true)
	c.SetCookie("sb-refresh-token", "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/login")
}
