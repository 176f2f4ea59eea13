// Package ledger reads products and sales from the ledger service that
// owns them. Every source returns request-scoped copies.
package ledger

import (
	"context"
	"encoding/json"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

// Source is the read side of the ledger. The bearer token is forwarded
// unchanged; sources that do not authenticate ignore it.
type Source interface {
	ListProducts(ctx context.Context, token string) ([]domain.Product, error)
	LowStockProducts(ctx context.Context, token string) ([]domain.Product, error)
	ProductByID(ctx context.Context, token string, id int64) (*domain.Product, error)
	ProductBySKU(ctx context.Context, token string, sku string) (*domain.Product, error)
	ProductByName(ctx context.Context, token string, name string) (*domain.Product, error)

	SalesHistory(ctx context.Context, token string) ([]domain.Sale, error)
	RecentSales(ctx context.Context, token string) ([]domain.Sale, error)
	SalesHistoryBySKU(ctx context.Context, token string, sku string) ([]domain.RawObservation, error)
	SalesHistoryByName(ctx context.Context, token string, name string) ([]domain.RawObservation, error)
}

// SalesWriter is implemented by sources that accept new sales. It returns
// the ledger's reply, or nil when it sent none.
type SalesWriter interface {
	CreateBulkSales(ctx context.Context, token string, items []domain.ImportItem) (json.RawMessage, error)
}

// GlobalSeriesSource is implemented by sources that serve a prebuilt
// all-products daily series instead of one derived from SalesHistory.
type GlobalSeriesSource interface {
	GlobalSeries(ctx context.Context, token string) ([]domain.RawObservation, error)
}

// FlattenSales turns every sale item into a (sale day, quantity) observation.
func FlattenSales(sales []domain.Sale) []domain.RawObservation {
	var rows []domain.RawObservation
	for _, s := range sales {
		for _, item := range s.Items {
			rows = append(rows, domain.RawObservation{
				Date:     s.Date.String(),
				Quantity: formatQuantity(item.Quantity),
			})
		}
	}
	return rows
}
