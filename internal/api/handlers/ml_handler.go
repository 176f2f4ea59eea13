package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/salesflow-analytics/internal/api/middleware"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/service"
)

type MLHandler struct {
	service *service.MLService
}

func NewMLHandler(service *service.MLService) *MLHandler {
	return &MLHandler{service: service}
}

// bindOptionalJSON decodes the body into obj; an empty body leaves the
// defaults in place.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *MLHandler) Forecast(c *gin.Context) {
	req := domain.ForecastRequest{ForecastDays: domain.DefaultForecastDays}
	if err := bindOptionalJSON(c, &req); err != nil {
		badBody(c, err)
		return
	}

	result, err := h.service.Forecast(c.Request.Context(), middleware.Token(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MLHandler) Anomalies(c *gin.Context) {
	var req domain.AnomalyRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badBody(c, err)
		return
	}

	result, err := h.service.Anomalies(c.Request.Context(), middleware.Token(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
