package service

import (
	"context"
	"strings"

	"github.com/andresuchdata/salesflow-analytics/internal/analytics"
	"github.com/andresuchdata/salesflow-analytics/internal/cache"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

// ParseSalesQuery validates raw request parameters. Explicit dates must be
// YYYY-MM-DD; they override the period window only when both are given.
func ParseSalesQuery(period, start, end string) (domain.SalesQuery, error) {
	p, err := domain.ParsePeriod(period, domain.PeriodDaily)
	if err != nil {
		return domain.SalesQuery{}, err
	}
	q := domain.SalesQuery{Period: p}

	parse := func(name, value string) (*domain.Date, error) {
		if strings.TrimSpace(value) == "" {
			return nil, nil
		}
		d, err := domain.ParseStrictDate(value)
		if err != nil {
			return nil, domain.InvalidRequest("invalid %s %q, expected YYYY-MM-DD", name, value)
		}
		return &d, nil
	}
	if q.Start, err = parse("start_date", start); err != nil {
		return domain.SalesQuery{}, err
	}
	if q.End, err = parse("end_date", end); err != nil {
		return domain.SalesQuery{}, err
	}
	return q, nil
}

// Window resolves the inclusive date range of q as of today.
func Window(q domain.SalesQuery, today domain.Date) (domain.Date, domain.Date, error) {
	if q.Start != nil && q.End != nil {
		if q.End.Before(*q.Start) {
			return domain.Date{}, domain.Date{}, domain.InvalidRequest("start_date %s is after end_date %s", q.Start, q.End)
		}
		return *q.Start, *q.End, nil
	}
	start, end := q.Period.Window(today)
	return start, end, nil
}

// Sales aggregates revenue KPIs and daily points over the query window.
func (s *AnalyticsService) Sales(ctx context.Context, token string, q domain.SalesQuery) (*domain.SalesAnalytics, error) {
	if q.Period == "" {
		q.Period = domain.PeriodDaily
	}
	start, end, err := Window(q, s.today())
	if err != nil {
		return nil, err
	}

	key := cache.SalesKey(q.Period, start, end)
	if hit, ok := cached[domain.SalesAnalytics](ctx, s.cache, key); ok {
		return hit, nil
	}

	products, sales, err := s.fetchLedger(ctx, token)
	if err != nil {
		return nil, err
	}
	kpis, daily := analytics.AggregateSales(sales, products, start, end)

	result := &domain.SalesAnalytics{
		Period:      q.Period,
		StartDate:   start,
		EndDate:     end,
		PeriodLabel: q.Period.Label(),
		KPIs:        kpis,
		Daily:       daily,
	}
	store(ctx, s.cache, key, result, s.ttl)
	return result, nil
}
