package ledger

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

// Mock serves the fixed development data set. Sales dated "today" and the
// synthetic fallback series follow the injected clock.
type Mock struct {
	now func() time.Time
}

func NewMock(now func() time.Time) *Mock {
	if now == nil {
		now = time.Now
	}
	return &Mock{now: now}
}

func (m *Mock) today() domain.Date {
	return domain.DateOf(m.now())
}

// MockProducts returns a fresh copy of the development catalog.
func MockProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Milk", SKU: "MILK-001", Price: 2.50, StockQuantity: 25, LowStockThreshold: 10, Description: "Fresh whole milk"},
		{ID: 2, Name: "Bread", SKU: "BREAD-002", Price: 1.80, StockQuantity: 4, LowStockThreshold: 5, Description: "Whole grain bread"},
		{ID: 3, Name: "Sugar", SKU: "SUGAR-003", Price: 3.00, StockQuantity: 0, LowStockThreshold: 10, Description: "White sugar 1kg"},
	}
}

func milk(qty float64) domain.SaleItem {
	return domain.SaleItem{ProductID: 1, ProductName: "Milk", SKU: "MILK-001", Quantity: qty, UnitPrice: 2.50, Subtotal: qty * 2.50}
}

func bread(qty float64) domain.SaleItem {
	return domain.SaleItem{ProductID: 2, ProductName: "Bread", SKU: "BREAD-002", Quantity: qty, UnitPrice: 1.80, Subtotal: 1.80 * qty}
}

func sugar(qty float64) domain.SaleItem {
	return domain.SaleItem{ProductID: 3, ProductName: "Sugar", SKU: "SUGAR-003", Quantity: qty, UnitPrice: 3.00, Subtotal: qty * 3.00}
}

// MockSalesHistory returns the development sales history as of today.
func MockSalesHistory(today domain.Date) []domain.Sale {
	return []domain.Sale{
		{ID: 201, Date: domain.NewDate(2025, 12, 10), TotalAmount: 15.0, Items: []domain.SaleItem{milk(6)}},
		{ID: 202, Date: domain.NewDate(2025, 12, 5), TotalAmount: 7.20, Items: []domain.SaleItem{bread(4)}},
		{ID: 203, Date: domain.NewDate(2025, 11, 20), TotalAmount: 3.00, Items: []domain.SaleItem{sugar(1)}},
		{ID: 999, Date: today, TotalAmount: 20.0, Items: []domain.SaleItem{milk(8)}},
	}
}

func mockRecentSales() []domain.Sale {
	return []domain.Sale{
		{ID: 101, Date: domain.NewDate(2025, 12, 13), TotalAmount: 55.0, Items: []domain.SaleItem{milk(2), bread(1)}},
	}
}

var mockGlobalSeries = []float64{12, 15, 14, 16, 18, 17, 20}

var mockProductSeries = map[string][]float64{
	"MILK-001":  {5, 7, 6, 9},
	"BREAD-002": {14, 12, 13, 15},
}

func dailyRows(start domain.Date, values []float64) []domain.RawObservation {
	rows := make([]domain.RawObservation, len(values))
	for i, v := range values {
		rows[i] = domain.RawObservation{Date: start.AddDays(i).String(), Quantity: formatQuantity(v)}
	}
	return rows
}

// fallbackSeries is 14 days ending today with quantities 10 + i%4, i days
// before today.
func fallbackSeries(today domain.Date) []domain.RawObservation {
	rows := make([]domain.RawObservation, 0, 14)
	for i := 13; i >= 0; i-- {
		rows = append(rows, domain.RawObservation{
			Date:     today.AddDays(-i).String(),
			Quantity: formatQuantity(float64(10 + i%4)),
		})
	}
	return rows
}

func (m *Mock) ListProducts(context.Context, string) ([]domain.Product, error) {
	return MockProducts(), nil
}

func (m *Mock) LowStockProducts(context.Context, string) ([]domain.Product, error) {
	var low []domain.Product
	for _, p := range MockProducts() {
		if p.StockQuantity <= p.LowStockThreshold {
			low = append(low, p)
		}
	}
	return low, nil
}

func (m *Mock) ProductByID(_ context.Context, _ string, id int64) (*domain.Product, error) {
	for _, p := range MockProducts() {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.NotFound("Product with id=%d not found", id)
}

func (m *Mock) ProductBySKU(_ context.Context, _ string, sku string) (*domain.Product, error) {
	for _, p := range MockProducts() {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, domain.NotFound("Product with sku=%s not found", sku)
}

func (m *Mock) ProductByName(_ context.Context, _ string, name string) (*domain.Product, error) {
	for _, p := range MockProducts() {
		if strings.EqualFold(p.Name, name) {
			return &p, nil
		}
	}
	return nil, domain.NotFound("Product with name=%s not found", name)
}

func (m *Mock) SalesHistory(context.Context, string) ([]domain.Sale, error) {
	return MockSalesHistory(m.today()), nil
}

func (m *Mock) RecentSales(context.Context, string) ([]domain.Sale, error) {
	return mockRecentSales(), nil
}

func (m *Mock) SalesHistoryBySKU(_ context.Context, _ string, sku string) ([]domain.RawObservation, error) {
	if values, ok := mockProductSeries[sku]; ok {
		return dailyRows(domain.NewDate(2025, 1, 1), values), nil
	}
	return fallbackSeries(m.today()), nil
}

func (m *Mock) SalesHistoryByName(ctx context.Context, token string, name string) ([]domain.RawObservation, error) {
	p, err := m.ProductByName(ctx, token, name)
	if err != nil {
		return fallbackSeries(m.today()), nil
	}
	return m.SalesHistoryBySKU(ctx, token, p.SKU)
}

func (m *Mock) GlobalSeries(context.Context, string) ([]domain.RawObservation, error) {
	return dailyRows(domain.NewDate(2025, 1, 1), mockGlobalSeries), nil
}

// CreateBulkSales acknowledges the items without recording them; the
// development data set never changes.
func (m *Mock) CreateBulkSales(_ context.Context, _ string, items []domain.ImportItem) (json.RawMessage, error) {
	reply, err := json.Marshal(map[string]any{"imported": len(items), "failed": 0, "items": items})
	if err != nil {
		return nil, domain.SerializationFailure(err, "encode bulk reply")
	}
	return reply, nil
}

var (
	_ Source             = (*Mock)(nil)
	_ GlobalSeriesSource = (*Mock)(nil)
	_ SalesWriter        = (*Mock)(nil)
)
