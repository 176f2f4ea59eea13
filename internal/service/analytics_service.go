package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/salesflow-analytics/internal/cache"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/ledger"
)

// AnalyticsService builds the stock and sales dashboards from ledger records.
type AnalyticsService struct {
	source ledger.Source
	cache  cache.Cache
	ttl    time.Duration
	now    func() time.Time
}

func NewAnalyticsService(source ledger.Source, c cache.Cache, ttl time.Duration) *AnalyticsService {
	if c == nil {
		c = cache.NewNoop()
	}
	if ttl <= 0 {
		ttl = cache.DefaultAnalyticsTTL
	}
	return &AnalyticsService{source: source, cache: c, ttl: ttl, now: time.Now}
}

// WithClock replaces the wall clock used to pick "today".
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

func (s *AnalyticsService) today() domain.Date {
	return domain.DateOf(s.now())
}

// fetchLedger loads the catalog and the sales history concurrently.
func (s *AnalyticsService) fetchLedger(ctx context.Context, token string) ([]domain.Product, []domain.Sale, error) {
	var (
		products []domain.Product
		sales    []domain.Sale
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.source.ListProducts(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		sales, err = s.source.SalesHistory(gctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return products, sales, nil
}
