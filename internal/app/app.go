// Package app wires configuration into the ledger source, cache, alerting
// and services shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesflow-analytics/internal/alert"
	"github.com/andresuchdata/salesflow-analytics/internal/cache"
	"github.com/andresuchdata/salesflow-analytics/internal/config"
	"github.com/andresuchdata/salesflow-analytics/internal/ledger"
	"github.com/andresuchdata/salesflow-analytics/internal/observability"
	"github.com/andresuchdata/salesflow-analytics/internal/report"
	"github.com/andresuchdata/salesflow-analytics/internal/repository/postgres"
	"github.com/andresuchdata/salesflow-analytics/internal/scheduler"
	"github.com/andresuchdata/salesflow-analytics/internal/service"
	"github.com/andresuchdata/salesflow-analytics/internal/storage"
)

type App struct {
	Config    *config.Config
	Metrics   *observability.Metrics
	Cache     cache.Cache
	Source    ledger.Source
	Alerts    *alert.Dispatcher
	Storage   storage.ObjectStorage
	Analytics *service.AnalyticsService
	ML        *service.MLService
	Reports   *service.ReportService
	Imports   *service.ImportService

	closers []func() error
}

// Build constructs every component named by cfg. The alert dispatcher is
// built but not started; the caller owns its lifecycle.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	if cfg.Metrics.Enabled {
		a.Metrics = observability.NewMetrics()
	}

	var err error
	if a.Cache, err = cache.New(cfg.Cache, a.cacheObserver()); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	a.closers = append(a.closers, func() error { return cache.Close(a.Cache) })

	source, closeSource, err := NewLedgerSource(cfg, a.ledgerRecorder())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Source = source
	if closeSource != nil {
		a.closers = append(a.closers, closeSource)
	}

	if a.Alerts, err = alert.FromConfig(cfg.Alert, cfg.App.DevMode, a.alertRecorder()); err != nil {
		a.Close()
		return nil, err
	}

	if a.Storage, err = storage.New(ctx, cfg.Report); err != nil {
		a.Close()
		return nil, fmt.Errorf("report storage: %w", err)
	}

	ttl := cfg.Cache.AnalyticsTTL()
	a.Analytics = service.NewAnalyticsService(a.Source, a.Cache, ttl)
	a.ML = service.NewMLService(a.Source, a.Cache, ttl, a.Alerts)
	a.Reports = service.NewReportService(a.Analytics, report.NewArchive(a.Storage))
	writer, _ := a.Source.(ledger.SalesWriter)
	a.Imports = service.NewImportService(a.Source, writer, a.Cache)
	return a, nil
}

// NewLedgerSource selects the ledger source named by cfg.Ledger.Source. The
// returned close func is nil when the source holds no resources.
func NewLedgerSource(cfg *config.Config, rec ledger.Recorder) (ledger.Source, func() error, error) {
	switch cfg.Ledger.Source {
	case "mock":
		log.Warn().Msg("app: using the development ledger data set")
		return ledger.NewMock(nil), nil, nil
	case "postgres":
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewLedgerSource(db), db.Close, nil
	case "", "http":
		opts := []ledger.Option{
			ledger.WithTimeout(cfg.Ledger.Timeout()),
			ledger.WithRetry(cfg.Ledger.MaxRetries, cfg.Ledger.Backoff(), cfg.Ledger.MaxBackoff()),
		}
		if rec != nil {
			opts = append(opts, ledger.WithRecorder(rec))
		}
		return ledger.New(cfg.Ledger.BaseURL, opts...), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger source %q", cfg.Ledger.Source)
	}
}

// Scheduler builds the scheduler and, when enabled, registers the daily
// anomaly check and report jobs.
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	cfg := a.Config.Scheduler
	var rec scheduler.Recorder
	if a.Metrics != nil {
		rec = a.Metrics
	}
	s := scheduler.New(cfg.Location(), rec)
	if !cfg.Enabled {
		return s, nil
	}

	token := a.Config.Ledger.SystemToken
	if token == "" {
		log.Warn().Msg("app: SYSTEM_JWT_TOKEN is empty, scheduled jobs call the ledger without a token")
	}

	hour, minute, err := scheduler.ParseClock(cfg.AnomalyCheckAt)
	if err != nil {
		return nil, fmt.Errorf("ANOMALY_CHECK_AT: %w", err)
	}
	if err := s.Add(service.AnomalyCheckJob(a.ML, token, hour, minute)); err != nil {
		return nil, err
	}

	reportType, err := report.ParseType(cfg.ReportType)
	if err != nil {
		return nil, fmt.Errorf("REPORT_TYPE: %w", err)
	}
	if hour, minute, err = scheduler.ParseClock(cfg.ReportAt); err != nil {
		return nil, fmt.Errorf("REPORT_AT: %w", err)
	}
	job := service.ReportJob(service.DailyReportJobID, a.Reports, token, reportType, report.FormatExcel, hour, minute)
	if err := s.Add(job); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases held resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// The recorder accessors keep a disabled registry out of the interfaces, so
// consumers see a plain nil.

func (a *App) cacheObserver() cache.Observer {
	if a.Metrics == nil {
		return nil
	}
	return a.Metrics
}

func (a *App) ledgerRecorder() ledger.Recorder {
	if a.Metrics == nil {
		return nil
	}
	return a.Metrics
}

func (a *App) alertRecorder() alert.Recorder {
	if a.Metrics == nil {
		return nil
	}
	return a.Metrics
}
