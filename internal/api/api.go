package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/salesflow-analytics/internal/api/handlers"
	"github.com/andresuchdata/salesflow-analytics/internal/api/middleware"
	"github.com/andresuchdata/salesflow-analytics/internal/observability"
	"github.com/andresuchdata/salesflow-analytics/internal/scheduler"
	"github.com/andresuchdata/salesflow-analytics/internal/service"
)

type Services struct {
	Analytics *service.AnalyticsService
	ML        *service.MLService
	Reports   *service.ReportService
	Imports   *service.ImportService
	Scheduler *scheduler.Scheduler
	Metrics   *observability.Metrics
}

// Options carries the router settings that come from configuration.
type Options struct {
	AppName        string
	DevMode        bool
	SystemToken    string
	Storage        string
	AllowedOrigins []string
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	if services != nil && services.Metrics != nil {
		router.Use(middleware.Metrics(services.Metrics))
	}
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	if services != nil && services.Metrics != nil {
		router.GET("/metrics", gin.WrapH(services.Metrics.Handler()))
	}

	apiGroup := router.Group("/api/v1")
	apiGroup.GET("/health", handlers.NewHealthHandler(opts.AppName).Health)

	if services == nil {
		return router
	}

	protected := apiGroup.Group("")
	protected.Use(middleware.RequireToken(opts.DevMode))

	if services.Analytics != nil {
		analyticsHandler := handlers.NewAnalyticsHandler(services.Analytics)
		analyticsGroup := protected.Group("/analytics")
		{
			analyticsGroup.GET("/stock", analyticsHandler.GetStock)
			analyticsGroup.GET("/sales", analyticsHandler.GetSales)
		}
	}

	if services.ML != nil {
		mlHandler := handlers.NewMLHandler(services.ML)
		mlGroup := protected.Group("/ml")
		{
			mlGroup.POST("/forecast", mlHandler.Forecast)
			mlGroup.POST("/anomalies", mlHandler.Anomalies)
		}
	}

	if services.Reports != nil {
		var jobs handlers.JobRegistry
		if services.Scheduler != nil {
			jobs = services.Scheduler
		}
		reportHandler := handlers.NewReportHandler(services.Reports, jobs, opts.SystemToken, opts.Storage)
		reportGroup := protected.Group("/reports")
		{
			reportGroup.POST("/generate", reportHandler.Generate)
			reportGroup.POST("/schedule", reportHandler.Schedule)
			reportGroup.GET("/scheduled/latest", reportHandler.Latest)
		}
	}

	if services.Imports != nil {
		importHandler := handlers.NewImportHandler(services.Imports)
		protected.POST("/excel/import-sales", importHandler.ImportSales)
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	config := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			config.AllowOrigins = nil
			config.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			config.AllowOrigins = normalizedOrigins
		}
	}
	return config
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
