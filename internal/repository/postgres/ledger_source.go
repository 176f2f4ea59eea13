package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/ledger"
)

const (
	historyDays      = 90
	recentSalesLimit = 100
	productColumns   = `id, name, sku, price, COALESCE(stock_quantity, 0) AS stock_quantity, COALESCE(low_stock_threshold, 0) AS low_stock_threshold, COALESCE(description, '') AS description, COALESCE(image_url, '') AS image_url`
	saleItemColumns  = `sale_id, product_id, product_name, product_sku, quantity, unit_price, subtotal`
)

type saleRow struct {
	ID          int64     `db:"id"`
	SaleDate    time.Time `db:"sale_date"`
	TotalAmount float64   `db:"total_amount"`
}

type saleItemRow struct {
	SaleID int64 `db:"sale_id"`
	domain.SaleItem
}

type historyRow struct {
	Day      time.Time `db:"day"`
	Quantity float64   `db:"quantity"`
}

// LedgerSource reads the ledger's own tables: products, sales, sale_items.
type LedgerSource struct {
	db  *DB
	now func() time.Time
}

func NewLedgerSource(db *DB) *LedgerSource {
	return &LedgerSource{db: db, now: time.Now}
}

func (s *LedgerSource) ListProducts(ctx context.Context, _ string) ([]domain.Product, error) {
	return s.selectProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

func (s *LedgerSource) LowStockProducts(ctx context.Context, _ string) ([]domain.Product, error) {
	return s.selectProducts(ctx, `SELECT `+productColumns+` FROM products
		WHERE COALESCE(stock_quantity, 0) <= COALESCE(low_stock_threshold, 0) ORDER BY id`)
}

func (s *LedgerSource) ProductByID(ctx context.Context, _ string, id int64) (*domain.Product, error) {
	return s.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (s *LedgerSource) ProductBySKU(ctx context.Context, _ string, sku string) (*domain.Product, error) {
	return s.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
}

func (s *LedgerSource) ProductByName(ctx context.Context, _ string, name string) (*domain.Product, error) {
	return s.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1`, name)
}

func (s *LedgerSource) SalesHistory(ctx context.Context, _ string) ([]domain.Sale, error) {
	since := s.now().AddDate(0, 0, -historyDays)
	return s.selectSales(ctx, `SELECT id, sale_date, total_amount FROM sales WHERE sale_date >= $1 ORDER BY sale_date DESC`, since)
}

func (s *LedgerSource) RecentSales(ctx context.Context, _ string) ([]domain.Sale, error) {
	return s.selectSales(ctx, `SELECT id, sale_date, total_amount FROM sales ORDER BY sale_date DESC LIMIT $1`, recentSalesLimit)
}

func (s *LedgerSource) SalesHistoryBySKU(ctx context.Context, _ string, sku string) ([]domain.RawObservation, error) {
	return s.selectHistory(ctx, `SELECT DATE(s.sale_date) AS day, SUM(si.quantity) AS quantity
		FROM sale_items si JOIN sales s ON s.id = si.sale_id
		WHERE si.product_sku = $1
		GROUP BY DATE(s.sale_date) ORDER BY day`, sku)
}

func (s *LedgerSource) SalesHistoryByName(ctx context.Context, _ string, name string) ([]domain.RawObservation, error) {
	return s.selectHistory(ctx, `SELECT DATE(s.sale_date) AS day, SUM(si.quantity) AS quantity
		FROM sale_items si JOIN sales s ON s.id = si.sale_id
		WHERE LOWER(si.product_name) = LOWER($1)
		GROUP BY DATE(s.sale_date) ORDER BY day`, name)
}

func (s *LedgerSource) selectProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	var products []domain.Product
	err := s.db.withSlot(ctx, func() error {
		return s.db.SelectContext(ctx, &products, query, args...)
	})
	if err != nil {
		return nil, domain.UpstreamUnavailable(err, "query products")
	}
	return products, nil
}

func (s *LedgerSource) getProduct(ctx context.Context, query string, arg any) (*domain.Product, error) {
	var p domain.Product
	err := s.db.withSlot(ctx, func() error {
		return s.db.GetContext(ctx, &p, query, arg)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Product %v not found", arg)
	}
	if err != nil {
		return nil, domain.UpstreamUnavailable(err, "query product")
	}
	return &p, nil
}

func (s *LedgerSource) selectSales(ctx context.Context, query string, args ...any) ([]domain.Sale, error) {
	var (
		sales []saleRow
		items []saleItemRow
	)
	err := s.db.withSlot(ctx, func() error {
		if err := s.db.SelectContext(ctx, &sales, query, args...); err != nil {
			return err
		}
		if len(sales) == 0 {
			return nil
		}
		ids := make([]int64, len(sales))
		for i, row := range sales {
			ids[i] = row.ID
		}
		return s.db.SelectContext(ctx, &items,
			`SELECT `+saleItemColumns+` FROM sale_items WHERE sale_id = ANY($1) ORDER BY sale_id, id`, pq.Array(ids))
	})
	if err != nil {
		return nil, domain.UpstreamUnavailable(err, "query sales")
	}
	return assembleSales(sales, items), nil
}

func (s *LedgerSource) selectHistory(ctx context.Context, query string, arg any) ([]domain.RawObservation, error) {
	var rows []historyRow
	err := s.db.withSlot(ctx, func() error {
		return s.db.SelectContext(ctx, &rows, query, arg)
	})
	if err != nil {
		return nil, domain.UpstreamUnavailable(err, "query sales history")
	}
	out := make([]domain.RawObservation, len(rows))
	for i, r := range rows {
		out[i] = domain.RawObservation{
			Date:     domain.DateOf(r.Day).String(),
			Quantity: strconv.FormatFloat(r.Quantity, 'f', -1, 64),
		}
	}
	return out, nil
}

// assembleSales attaches items to their sale, keeping the sale order.
func assembleSales(sales []saleRow, items []saleItemRow) []domain.Sale {
	bySale := make(map[int64][]domain.SaleItem, len(sales))
	for _, it := range items {
		bySale[it.SaleID] = append(bySale[it.SaleID], it.SaleItem)
	}
	out := make([]domain.Sale, len(sales))
	for i, row := range sales {
		lines := bySale[row.ID]
		if lines == nil {
			lines = []domain.SaleItem{}
		}
		out[i] = domain.Sale{
			ID:          row.ID,
			Date:        domain.DateOf(row.SaleDate),
			TotalAmount: row.TotalAmount,
			Items:       lines,
		}
	}
	return out
}

var _ ledger.Source = (*LedgerSource)(nil)
