package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/ledger"
	"github.com/andresuchdata/salesflow-analytics/internal/report"
	"github.com/andresuchdata/salesflow-analytics/internal/scheduler"
)

type emptySource struct {
	ledger.Source
}

func (emptySource) SalesHistory(context.Context, string) ([]domain.Sale, error) {
	return nil, nil
}

func TestAnomalyCheckJob(t *testing.T) {
	notifier := &fakeNotifier{}
	job := AnomalyCheckJob(NewMLService(ledger.NewMock(clock), nil, 0, notifier), "system", 6, 0)

	assert.Equal(t, AnomalyCheckJobID, job.ID)
	assert.Equal(t, 6, job.Hour)
	assert.NoError(t, job.Run(context.Background()))
}

func TestAnomalyCheckJobWithoutHistory(t *testing.T) {
	job := AnomalyCheckJob(NewMLService(emptySource{ledger.NewMock(clock)}, nil, 0, nil), "system", 6, 0)
	assert.NoError(t, job.Run(context.Background()))
}

func TestAnomalyCheckJobFailure(t *testing.T) {
	src := newCountingSource()
	src.fail = errLedgerDown
	job := AnomalyCheckJob(NewMLService(src, nil, 0, nil), "system", 6, 0)

	err := job.Run(context.Background())
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestReportJobArchives(t *testing.T) {
	reports := newReports(t, true)
	id := ScheduledReportJobID(report.TypeSales, report.FormatExcel)
	assert.Equal(t, "scheduled-sales-excel", id)

	s := scheduler.New(nil, nil)
	require.NoError(t, s.Add(ReportJob(id, reports, "system", report.TypeSales, report.FormatExcel, 0, 0)))
	require.NoError(t, s.RunNow(context.Background(), id))

	doc, err := reports.Latest(context.Background(), report.TypeSales, report.FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, "analytics_sales_daily_2025-12-15_12-00-00.xlsx", doc.Filename)
}
