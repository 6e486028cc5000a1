package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calyxlabs/curator/internal/services"
	"github.com/calyxlabs/curator/internal/utils"
)

type ProfileHandler struct {
	svc services.ProfileService
}

func NewProfileHandler(svc services.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, p)
}

type updateProfileRequest struct {
	FullName *string `json:"full_name,omitempty"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProfileHandler.Update", "invalid request body", err))
		return
	}
	if req.FullName == nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProfileHandler.Update", "full_name is required", nil))
		return
	}

	updated, err := h.svc.UpdateName(c.Request.Context(), p.ID, *req.FullName)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
