package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/salesflow-analytics/internal/api"
	"github.com/andresuchdata/salesflow-analytics/internal/app"
	"github.com/andresuchdata/salesflow-analytics/internal/config"
	"github.com/andresuchdata/salesflow-analytics/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetFormat(cfg.Log.Format)
	logger.SetLevel(cfg.Log.Level)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	if err := application.Alerts.Start(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to start alert dispatcher")
	}

	sched, err := application.Scheduler()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to configure scheduler")
	}
	if err := sched.Start(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	router := api.NewRouter(&api.Services{
		Analytics: application.Analytics,
		ML:        application.ML,
		Reports:   application.Reports,
		Imports:   application.Imports,
		Scheduler: sched,
		Metrics:   application.Metrics,
	}, api.Options{
		AppName:        cfg.App.Name,
		DevMode:        cfg.App.DevMode,
		SystemToken:    cfg.Ledger.SystemToken,
		Storage:        cfg.Report.Storage,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Str("ledger_source", cfg.Ledger.Source).
			Bool("dev_mode", cfg.App.DevMode).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Scheduler did not stop cleanly")
	}
	if err := application.Alerts.Stop(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Alert dispatcher did not drain")
	}

	logger.Log.Info().Msg("Server exiting")
}
