package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/services"
	"github.com/calyxlabs/curator/internal/utils"
)

type AdminHandler struct {
	settings services.SettingsService
	profiles services.ProfileService
	search   services.SearchService
}

func NewAdminHandler(settings services.SettingsService, profiles services.ProfileService, search services.SearchService) *AdminHandler {
	return &AdminHandler{settings: settings, profiles: profiles, search: search}
}

// GetSettings is readable by any authenticated user so the UI can show which
// pipeline is active. Writes stay admin-only.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	if _, ok := requireProfile(c); !ok {
		return
	}

	all, err := h.settings.All(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	active, err := h.settings.Active(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"settings":          all,
		"provider":          active.Provider,
		"documentProcessor": active.Processor,
	})
}

type updateSettingsRequest struct {
	Provider          *string `json:"provider,omitempty"`
	DocumentProcessor *string `json:"documentProcessor,omitempty"`
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AdminHandler.UpdateSettings", "invalid request body", err))
		return
	}

	provider, processor := "", ""
	if req.Provider != nil {
		provider = *req.Provider
	}
	if req.DocumentProcessor != nil {
		processor = *req.DocumentProcessor
	}

	active, err := h.settings.Update(c.Request.Context(), p, provider, processor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"provider":          active.Provider,
		"documentProcessor": active.Processor,
	})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	rows, err := h.profiles.List(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": rows})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AdminHandler.UpdateUserRole", "invalid request body", err))
		return
	}

	if err := h.profiles.UpdateRole(c.Request.Context(), p, c.Param("id"), models.Role(req.Role)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *AdminHandler) SetUserActive(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AdminHandler.SetUserActive", "is_active is required", err))
		return
	}

	if err := h.profiles.SetActive(c.Request.Context(), p, c.Param("id"), *req.IsActive); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) PurgeDocumentVectors(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	if err := h.search.PurgeDocument(c.Request.Context(), p, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) PurgeChunkVector(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	if err := h.search.PurgeChunk(c.Request.Context(), p, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
