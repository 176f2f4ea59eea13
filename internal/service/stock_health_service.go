package service

import (
	"context"

	"github.com/andresuchdata/salesflow-analytics/internal/analytics"
	"github.com/andresuchdata/salesflow-analytics/internal/cache"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

// StockHealth evaluates every product's stock position as of today.
func (s *AnalyticsService) StockHealth(ctx context.Context, token string, period domain.Period) (*domain.StockAnalytics, error) {
	if period == "" {
		period = domain.PeriodDaily
	}
	key := cache.StockKey(period)
	if hit, ok := cached[domain.StockAnalytics](ctx, s.cache, key); ok {
		return hit, nil
	}

	products, sales, err := s.fetchLedger(ctx, token)
	if err != nil {
		return nil, err
	}

	today := s.today()
	velocity := analytics.SalesVelocity(sales, today)
	snapshots := analytics.EvaluateStocks(analytics.StockInputs(products, velocity), today)
	kpis, critical := analytics.SummarizeStock(snapshots)

	result := &domain.StockAnalytics{
		Period:           period,
		PeriodLabel:      period.Label(),
		AsOf:             today,
		KPIs:             kpis,
		CriticalProducts: critical,
	}
	store(ctx, s.cache, key, result, s.ttl)
	return result, nil
}
