package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/salesflow-analytics/internal/api/middleware"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/service"
)

type AnalyticsHandler struct {
	service *service.AnalyticsService
}

func NewAnalyticsHandler(service *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetStock serves GET /analytics/stock?period=
func (h *AnalyticsHandler) GetStock(c *gin.Context) {
	period, err := domain.ParsePeriod(c.Query("period"), domain.PeriodDaily)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.StockHealth(c.Request.Context(), middleware.Token(c), period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSales serves GET /analytics/sales?period=&start_date=&end_date=
func (h *AnalyticsHandler) GetSales(c *gin.Context) {
	q, err := service.ParseSalesQuery(c.Query("period"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.Sales(c.Request.Context(), middleware.Token(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
