package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calyxlabs/curator/internal/services"
	"github.com/calyxlabs/curator/internal/utils"
)

type ChunkHandler struct {
	svc services.ReviewService
}

func NewChunkHandler(svc services.ReviewService) *ChunkHandler {
	return &ChunkHandler{svc: svc}
}

type reviewRequest struct {
	Action string `json:"action"` // "approve" | "reject"
	Notes  string `json:"notes"`
}

func (h *ChunkHandler) Review(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChunkHandler.Review", "invalid request body", err))
		return
	}

	var (
		out *services.ReviewOutcome
		err error
		msg string
	)
	switch req.Action {
	case "approve":
		out, err = h.svc.Approve(c.Request.Context(), p, c.Param("id"), req.Notes)
		msg = "chunk approved"
	case "reject":
		out, err = h.svc.Reject(c.Request.Context(), p, c.Param("id"))
		msg = "chunk rejected"
	default:
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChunkHandler.Review", "action must be approve or reject", nil))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   msg,
		"progress":  out.Progress,
		"completed": out.Completed,
	})
}

type metadataRequest struct {
	Metadata map[string]any `json:"metadata"`
}

func (h *ChunkHandler) Metadata(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	var req metadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChunkHandler.Metadata", "invalid request body", err))
		return
	}

	merged, err := h.svc.EditMetadata(c.Request.Context(), p, c.Param("id"), req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "metadata updated",
		"metadata": merged,
	})
}
