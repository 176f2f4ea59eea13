package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salesflow-analytics/internal/cache"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

func newAnalytics(src *countingSource, c cache.Cache) *AnalyticsService {
	return NewAnalyticsService(src, c, 0).WithClock(clock)
}

func TestStockHealthFromDevLedger(t *testing.T) {
	svc := newAnalytics(newCountingSource(), nil)

	res, err := svc.StockHealth(context.Background(), "tok", domain.PeriodWeekly)
	require.NoError(t, err)

	assert.Equal(t, domain.PeriodWeekly, res.Period)
	assert.Equal(t, "7 derniers jours", res.PeriodLabel)
	assert.Equal(t, domain.NewDate(2025, 12, 15), res.AsOf)

	k := res.KPIs
	assert.InDelta(t, 69.7, k.TotalStockValue, 1e-9)
	assert.Equal(t, 1, k.OutOfStockCount)
	assert.Equal(t, 1, k.LowStockCount)
	assert.Equal(t, 0, k.DeadStockCount)
	// Bread covers one day; Sugar has no stock and so no coverage.
	assert.Equal(t, 1, k.UrgentReorderCount)

	require.Len(t, res.CriticalProducts, 2)
	assert.Equal(t, "Bread", res.CriticalProducts[0].Name)
	assert.Equal(t, domain.StockLow, res.CriticalProducts[0].Status)
	require.NotNil(t, res.CriticalProducts[0].CoverageDays)
	assert.Equal(t, 1.0, *res.CriticalProducts[0].CoverageDays)
	assert.Equal(t, domain.StockOutOfStock, res.CriticalProducts[1].Status)
}

func TestStockHealthCachesResult(t *testing.T) {
	src := newCountingSource()
	svc := newAnalytics(src, cache.NewMemory(16))
	ctx := context.Background()

	first, err := svc.StockHealth(ctx, "tok", domain.PeriodDaily)
	require.NoError(t, err)
	second, err := svc.StockHealth(ctx, "tok", domain.PeriodDaily)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), src.products.Load())
	assert.Equal(t, int32(1), src.sales.Load())
}

func TestStockHealthRecomputesOnCorruptEntry(t *testing.T) {
	src := newCountingSource()
	mem := cache.NewMemory(16)
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, cache.StockKey(domain.PeriodDaily), []byte("{not json"), 0))

	res, err := newAnalytics(src, mem).StockHealth(ctx, "tok", "")
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodDaily, res.Period)
	assert.Equal(t, int32(1), src.products.Load())
}

func TestStockHealthPropagatesUpstreamFailure(t *testing.T) {
	src := newCountingSource()
	src.fail = errLedgerDown

	_, err := newAnalytics(src, nil).StockHealth(context.Background(), "tok", domain.PeriodDaily)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestSalesDailyWindow(t *testing.T) {
	svc := newAnalytics(newCountingSource(), nil)

	res, err := svc.Sales(context.Background(), "tok", domain.SalesQuery{Period: domain.PeriodDaily})
	require.NoError(t, err)

	assert.Equal(t, domain.NewDate(2025, 12, 15), res.StartDate)
	assert.Equal(t, domain.NewDate(2025, 12, 15), res.EndDate)
	assert.Equal(t, "Aujourd’hui", res.PeriodLabel)
	assert.Equal(t, 20.0, res.KPIs.TotalRevenue)
	assert.Equal(t, 1, res.KPIs.TotalTransactions)
	require.Len(t, res.KPIs.TopProducts, 1)
	assert.Equal(t, 100.0, res.KPIs.TopProducts[0].ShareOfRevenue)
}

func TestSalesMonthToDate(t *testing.T) {
	svc := newAnalytics(newCountingSource(), nil)

	res, err := svc.Sales(context.Background(), "tok", domain.SalesQuery{Period: domain.PeriodMonthly})
	require.NoError(t, err)

	assert.Equal(t, domain.NewDate(2025, 12, 1), res.StartDate)
	assert.InDelta(t, 42.2, res.KPIs.TotalRevenue, 1e-9)
	assert.Equal(t, 3, res.KPIs.TotalTransactions)
	assert.Equal(t, 14.07, res.KPIs.AverageTicket)
	require.Len(t, res.Daily, 3)
	assert.Equal(t, domain.NewDate(2025, 12, 5), res.Daily[0].Date)
}

func TestSalesExplicitRangeAndCacheKey(t *testing.T) {
	src := newCountingSource()
	mem := cache.NewMemory(16)
	svc := newAnalytics(src, mem)
	ctx := context.Background()

	q, err := ParseSalesQuery("weekly", "2025-11-01", "2025-11-30")
	require.NoError(t, err)
	res, err := svc.Sales(ctx, "tok", q)
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.KPIs.TotalRevenue)

	_, ok, err := mem.Get(ctx, "analytics:sales:weekly:2025-11-01:2025-11-30")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParseSalesQuery(t *testing.T) {
	q, err := ParseSalesQuery("", "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodDaily, q.Period)
	assert.Nil(t, q.Start)

	q, err = ParseSalesQuery("MONTHLY", "2025-12-01", "")
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodMonthly, q.Period)
	start, end, err := Window(q, domain.NewDate(2025, 12, 15))
	require.NoError(t, err)
	assert.Equal(t, domain.NewDate(2025, 12, 1), start, "a lone start date falls back to the period window")
	assert.Equal(t, domain.NewDate(2025, 12, 15), end)

	_, err = ParseSalesQuery("daily", "12/01/2025", "2025-12-31")
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
	_, err = ParseSalesQuery("daily", "2025-12-01", "2025-12-01T00:00:00")
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
	_, err = ParseSalesQuery("yearly", "", "")
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
}

func TestWindowRejectsReversedRange(t *testing.T) {
	start, end := domain.NewDate(2025, 12, 10), domain.NewDate(2025, 12, 1)
	_, _, err := Window(domain.SalesQuery{Period: domain.PeriodDaily, Start: &start, End: &end}, start)
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
}
