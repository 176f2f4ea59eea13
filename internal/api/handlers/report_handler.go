package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesflow-analytics/internal/api/middleware"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/report"
	"github.com/andresuchdata/salesflow-analytics/internal/scheduler"
	"github.com/andresuchdata/salesflow-analytics/internal/service"
)

// JobRegistry accepts scheduled report jobs.
type JobRegistry interface {
	Add(job scheduler.Job) error
}

type ReportHandler struct {
	reports     *service.ReportService
	jobs        JobRegistry
	systemToken string
	storage     string
}

// NewReportHandler builds the handler. jobs may be nil, in which case
// scheduling is refused.
func NewReportHandler(reports *service.ReportService, jobs JobRegistry, systemToken, storage string) *ReportHandler {
	return &ReportHandler{reports: reports, jobs: jobs, systemToken: systemToken, storage: storage}
}

type generateReportBody struct {
	ReportType string `json:"report_type"`
	Format     string `json:"format"`
	Period     string `json:"period"`
}

type scheduleReportBody struct {
	ReportType string `json:"report_type"`
	Format     string `json:"format"`
	Hour       *int   `json:"hour"`
	Minute     *int   `json:"minute"`
}

func parseKind(reportType, format string) (report.Type, report.Format, error) {
	t, err := report.ParseType(reportType)
	if err != nil {
		return "", "", err
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return "", "", err
	}
	return t, f, nil
}

func sendDocument(c *gin.Context, doc *report.Document) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

// Generate renders a report and streams it back.
func (h *ReportHandler) Generate(c *gin.Context) {
	var body generateReportBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}
	t, f, err := parseKind(body.ReportType, body.Format)
	if err != nil {
		respondError(c, err)
		return
	}
	period, err := domain.ParsePeriod(body.Period, domain.PeriodMonthly)
	if err != nil {
		respondError(c, err)
		return
	}

	doc, err := h.reports.Generate(c.Request.Context(), middleware.Token(c), service.ReportRequest{Type: t, Format: f, Period: period})
	if err != nil {
		respondError(c, err)
		return
	}
	sendDocument(c, doc)
}

// Schedule registers, or replaces, the daily job for a report type and format.
func (h *ReportHandler) Schedule(c *gin.Context) {
	var body scheduleReportBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}
	t, f, err := parseKind(body.ReportType, body.Format)
	if err != nil {
		respondError(c, err)
		return
	}
	if body.Hour == nil || *body.Hour < 0 || *body.Hour > 23 {
		respondError(c, domain.InvalidRequest("hour must be between 0 and 23"))
		return
	}
	if body.Minute == nil || *body.Minute < 0 || *body.Minute > 59 {
		respondError(c, domain.InvalidRequest("minute must be between 0 and 59"))
		return
	}
	if h.systemToken == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SYSTEM_JWT_TOKEN not configured"})
		return
	}
	if h.jobs == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scheduler not configured"})
		return
	}

	id := service.ScheduledReportJobID(t, f)
	job := service.ReportJob(id, h.reports, h.systemToken, t, f, *body.Hour, *body.Minute)
	if err := h.jobs.Add(job); err != nil {
		respondError(c, err)
		return
	}
	log.Info().Str("job_id", id).Int("hour", *body.Hour).Int("minute", *body.Minute).Msg("report: job scheduled")

	c.JSON(http.StatusOK, gin.H{
		"status":  "scheduled",
		"job_id":  id,
		"hour":    *body.Hour,
		"minute":  *body.Minute,
		"storage": h.storage,
	})
}

// Latest streams the newest archived report.
func (h *ReportHandler) Latest(c *gin.Context) {
	t, f, err := parseKind(c.DefaultQuery("report_type", string(report.TypeSales)), c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	doc, err := h.reports.Latest(c.Request.Context(), t, f)
	if err != nil {
		respondError(c, err)
		return
	}
	sendDocument(c, doc)
}
