package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/report"
	"github.com/andresuchdata/salesflow-analytics/internal/storage"
)

func newReports(t *testing.T, withArchive bool) *ReportService {
	t.Helper()
	var archive *report.Archive
	if withArchive {
		store, err := storage.NewLocal(t.TempDir())
		require.NoError(t, err)
		archive = report.NewArchive(store)
	}
	return NewReportService(newAnalytics(newCountingSource(), nil), archive).WithClock(clock)
}

func sheets(t *testing.T, content []byte) []string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()
	return f.GetSheetList()
}

func TestGenerateCombinedReport(t *testing.T) {
	doc, err := newReports(t, false).Generate(context.Background(), "tok", ReportRequest{Type: report.TypeCombined})
	require.NoError(t, err)

	assert.Equal(t, "analytics_combined_monthly_2025-12-15_12-00-00.xlsx", doc.Filename)
	assert.Equal(t, report.ExcelContentType, doc.ContentType)
	assert.Equal(t, []string{"Overview", "Daily Sales", "Top Products", "Critical Stock"}, sheets(t, doc.Content))
}

func TestGenerateSalesReportSkipsStock(t *testing.T) {
	doc, err := newReports(t, false).Generate(context.Background(), "tok", ReportRequest{Type: report.TypeSales, Period: domain.PeriodWeekly})
	require.NoError(t, err)

	assert.Equal(t, "analytics_sales_weekly_2025-12-15_12-00-00.xlsx", doc.Filename)
	assert.NotContains(t, sheets(t, doc.Content), "Critical Stock")
}

func TestGeneratePDFReport(t *testing.T) {
	doc, err := newReports(t, false).Generate(context.Background(), "tok", ReportRequest{Type: report.TypeCombined, Format: report.FormatPDF})
	require.NoError(t, err)

	assert.Equal(t, "analytics_combined_monthly_2025-12-15_12-00-00.pdf", doc.Filename)
	assert.Equal(t, report.PDFContentType, doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF-")))
}

func TestGenerateAndArchiveThenLatest(t *testing.T) {
	svc := newReports(t, true)
	ctx := context.Background()

	_, err := svc.Latest(ctx, report.TypeStock, report.FormatExcel)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	doc, err := svc.GenerateAndArchive(ctx, "tok", ReportRequest{Type: report.TypeStock, Period: domain.PeriodDaily})
	require.NoError(t, err)

	latest, err := svc.Latest(ctx, report.TypeStock, report.FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, latest.Filename)
	assert.Equal(t, doc.Content, latest.Content)
}

func TestReportWithoutArchive(t *testing.T) {
	svc := newReports(t, false)
	ctx := context.Background()

	_, err := svc.GenerateAndArchive(ctx, "tok", ReportRequest{Type: report.TypeSales})
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))

	_, err = svc.Latest(ctx, report.TypeSales, report.FormatExcel)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGenerateReportUpstreamFailure(t *testing.T) {
	src := newCountingSource()
	src.fail = errLedgerDown
	svc := NewReportService(newAnalytics(src, nil), nil)

	_, err := svc.Generate(context.Background(), "tok", ReportRequest{Type: report.TypeCombined})
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}
