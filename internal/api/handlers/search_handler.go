package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/services"
	"github.com/calyxlabs/curator/internal/utils"
)

type SearchHandler struct {
	svc services.SearchService
}

func NewSearchHandler(svc services.SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type searchRequest struct {
	Query     string   `json:"query"`
	Threshold float64  `json:"threshold"`
	Limit     int      `json:"limit"`
	DocType   string   `json:"docType"`
	UseCases  []string `json:"useCases"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SearchHandler.Search", "invalid request body", err))
		return
	}

	rows, err := h.svc.Search(c.Request.Context(), p, services.SearchInput{
		Query:     req.Query,
		Threshold: req.Threshold,
		Limit:     req.Limit,
		DocType:   models.DocType(req.DocType),
		UseCases:  req.UseCases,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": rows,
		"count":   len(rows),
	})
}
