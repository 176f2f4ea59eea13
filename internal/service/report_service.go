package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/report"
)

// ReportRequest selects a report. Period defaults to monthly.
type ReportRequest struct {
	Type   report.Type
	Format report.Format
	Period domain.Period
}

// ReportService renders analytics into workbooks or PDFs and archives
// scheduled ones.
type ReportService struct {
	analytics *AnalyticsService
	archive   *report.Archive
	now       func() time.Time
}

// NewReportService builds the service; archive may be nil when reports are
// only streamed.
func NewReportService(a *AnalyticsService, archive *report.Archive) *ReportService {
	return &ReportService{analytics: a, archive: archive, now: time.Now}
}

func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// Generate computes the sales (and, when the type includes it, stock)
// analytics for the period and renders them.
func (s *ReportService) Generate(ctx context.Context, token string, req ReportRequest) (*report.Document, error) {
	if req.Period == "" {
		req.Period = domain.PeriodMonthly
	}
	if req.Format == "" {
		req.Format = report.FormatExcel
	}

	var (
		sales *domain.SalesAnalytics
		stock *domain.StockAnalytics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = s.analytics.Sales(gctx, token, domain.SalesQuery{Period: req.Period})
		return err
	})
	if req.Type.IncludesStock() {
		g.Go(func() error {
			var err error
			stock, err = s.analytics.StockHealth(gctx, token, req.Period)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	at := s.now()
	content, err := report.Render(req.Format, report.Input{Sales: sales, Stock: stock, GeneratedAt: at})
	if err != nil {
		return nil, err
	}
	return &report.Document{
		Filename:    report.Filename(req.Type, req.Format, req.Period, at),
		ContentType: req.Format.ContentType(),
		Content:     content,
	}, nil
}

// GenerateAndArchive renders a report and saves it to the archive.
func (s *ReportService) GenerateAndArchive(ctx context.Context, token string, req ReportRequest) (*report.Document, error) {
	if s.archive == nil {
		return nil, domain.InvalidRequest("report archive is not configured")
	}
	doc, err := s.Generate(ctx, token, req)
	if err != nil {
		return nil, err
	}
	if err := s.archive.Save(ctx, *doc); err != nil {
		return nil, err
	}
	log.Info().Str("filename", doc.Filename).Str("type", string(req.Type)).Msg("report: scheduled report generated")
	return doc, nil
}

// Latest returns the newest archived report of the type and format.
func (s *ReportService) Latest(ctx context.Context, t report.Type, f report.Format) (*report.Document, error) {
	if s.archive == nil {
		return nil, domain.NotFound("No scheduled report available yet")
	}
	return s.archive.Latest(ctx, t, f)
}
