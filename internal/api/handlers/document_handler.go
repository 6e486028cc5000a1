package handlers

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/services"
	"github.com/calyxlabs/curator/internal/utils"
)

var allowedUploadExts = map[string]bool{
	".pdf": true, ".txt": true, ".md": true, ".json": true, ".csv": true,
}

type DocumentHandler struct {
	svc services.DocumentService
}

func NewDocumentHandler(svc services.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DocumentHandler.Upload", "missing multipart field 'file'", err))
		return
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedUploadExts[ext] {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DocumentHandler.Upload", "unsupported file type", nil))
		return
	}
	if fh.Size <= 0 || fh.Size > 50<<20 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DocumentHandler.Upload", "file too large (max 50MB)", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "DocumentHandler.Upload", "failed to open upload", err))
		return
	}
	defer file.Close()

	// sniff content type (read 512 bytes)
	head := make([]byte, 512)
	n, _ := file.Read(head)
	head = head[:n]
	ct := http.DetectContentType(head)

	// re-compose stream: head + remaining file
	reader := bytes.NewReader(head)
	r := &readJoin{a: reader, b: file}

	objectName := "documents/" + p.ID + "/" + uuid.NewString() + ext

	doc, err := h.svc.Upload(c.Request.Context(), p, services.UploadInput{
		Title:            c.PostForm("title"),
		Description:      c.PostForm("description"),
		DocType:          models.DocType(c.PostForm("documentType")),
		OriginalFilename: fh.Filename,
		MimeType:         ct,
		ObjectName:       objectName,
		Size:             fh.Size,
		Body:             r,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"documentId": doc.ID,
		"document":   doc,
	})
}

func (h *DocumentHandler) Process(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	if err := h.svc.Process(c.Request.Context(), p, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "document queued for processing",
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	rows, err := h.svc.List(c.Request.Context(), p, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": rows})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) Chunks(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	rows, err := h.svc.ListChunks(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chunks": rows})
}

func (h *DocumentHandler) Progress(c *gin.Context) {
	p, ok := requireProfile(c)
	if !ok {
		return
	}

	prog, err := h.svc.Progress(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, prog)
}

type readJoin struct {
	a *bytes.Reader
	b io.Reader
}

func (r *readJoin) Read(p []byte) (int, error) {
	if r.a != nil && r.a.Len() > 0 {
		return r.a.Read(p)
	}
	return r.b.Read(p)
}
