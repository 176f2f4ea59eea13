package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andresuchdata/salesflow-analytics/internal/alert"
	"github.com/andresuchdata/salesflow-analytics/internal/analytics"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/ledger"
)

var fixedNow = time.Date(2025, 12, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// countingSource wraps the dev data set. Embedding the interface hides the
// mock's prebuilt global series.
type countingSource struct {
	ledger.Source
	products atomic.Int32
	sales    atomic.Int32
	series   map[string][]domain.RawObservation
	fail     error
}

func newCountingSource() *countingSource {
	return &countingSource{Source: ledger.NewMock(clock)}
}

func (s *countingSource) ListProducts(ctx context.Context, token string) ([]domain.Product, error) {
	s.products.Add(1)
	if s.fail != nil {
		return nil, s.fail
	}
	return s.Source.ListProducts(ctx, token)
}

func (s *countingSource) SalesHistory(ctx context.Context, token string) ([]domain.Sale, error) {
	s.sales.Add(1)
	if s.fail != nil {
		return nil, s.fail
	}
	return s.Source.SalesHistory(ctx, token)
}

func (s *countingSource) SalesHistoryBySKU(ctx context.Context, token, sku string) ([]domain.RawObservation, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	if rows, ok := s.series[sku]; ok {
		return rows, nil
	}
	return s.Source.SalesHistoryBySKU(ctx, token, sku)
}

func dense(start domain.Date, values ...float64) []domain.RawObservation {
	rows := make([]domain.RawObservation, len(values))
	for i, v := range values {
		rows[i] = domain.RawObservation{Date: start.AddDays(i).String(), Quantity: analytics.FormatQuantity(v)}
	}
	return rows
}

type notification struct {
	ctx       alert.Context
	anomalies []domain.Anomaly
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (n *fakeNotifier) Notify(_ context.Context, c alert.Context, anomalies []domain.Anomaly) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{c, anomalies})
	return len(anomalies)
}

var errLedgerDown = domain.UpstreamUnavailable(errors.New("connection refused"), "ledger GET /api/products")
