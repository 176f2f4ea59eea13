package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/salesflow-analytics/internal/api/middleware"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/service"
)

const maxUploadBytes = 10 << 20

type ImportHandler struct {
	imports *service.ImportService
}

func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// ImportSales takes a multipart "file" field holding a .csv or .xlsx sales
// sheet and forwards its rows to the ledger.
func (h *ImportHandler) ImportSales(c *gin.Context) {
	token := middleware.Token(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication token"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		badBody(c, err)
		return
	}
	if header.Size > maxUploadBytes {
		respondError(c, domain.InvalidRequest("upload exceeds %d bytes", maxUploadBytes))
		return
	}
	f, err := header.Open()
	if err != nil {
		badBody(c, err)
		return
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		badBody(c, err)
		return
	}

	res, err := h.imports.ImportSales(c.Request.Context(), token, header.Filename, content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
