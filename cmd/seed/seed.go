package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/ledger"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS products (
	id                  BIGSERIAL PRIMARY KEY,
	name                TEXT NOT NULL,
	sku                 TEXT NOT NULL UNIQUE,
	price               NUMERIC(12, 2) NOT NULL DEFAULT 0,
	stock_quantity      INTEGER NOT NULL DEFAULT 0,
	low_stock_threshold INTEGER NOT NULL DEFAULT 0,
	description         TEXT,
	image_url           TEXT
);

CREATE TABLE IF NOT EXISTS sales (
	id           BIGSERIAL PRIMARY KEY,
	sale_date    TIMESTAMP NOT NULL,
	total_amount NUMERIC(12, 2) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sale_items (
	id           BIGSERIAL PRIMARY KEY,
	sale_id      BIGINT NOT NULL REFERENCES sales (id) ON DELETE CASCADE,
	product_id   BIGINT NOT NULL REFERENCES products (id),
	product_name TEXT NOT NULL,
	product_sku  TEXT NOT NULL,
	quantity     NUMERIC(12, 3) NOT NULL,
	unit_price   NUMERIC(12, 2) NOT NULL,
	subtotal     NUMERIC(12, 2) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sales_sale_date ON sales (sale_date);
CREATE INDEX IF NOT EXISTS idx_sale_items_sale_id ON sale_items (sale_id);
CREATE INDEX IF NOT EXISTS idx_sale_items_product_sku ON sale_items (product_sku);
`

const upsertProductSQL = `
INSERT INTO products (id, name, sku, price, stock_quantity, low_stock_threshold, description, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	sku = EXCLUDED.sku,
	price = EXCLUDED.price,
	stock_quantity = EXCLUDED.stock_quantity,
	low_stock_threshold = EXCLUDED.low_stock_threshold,
	description = EXCLUDED.description,
	image_url = EXCLUDED.image_url`

const upsertProductBySKUSQL = `
INSERT INTO products (name, sku, price, stock_quantity, low_stock_threshold, description)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (sku) DO UPDATE SET
	name = EXCLUDED.name,
	price = EXCLUDED.price,
	stock_quantity = EXCLUDED.stock_quantity,
	low_stock_threshold = EXCLUDED.low_stock_threshold,
	description = EXCLUDED.description`

var saleItemColumns = []string{"sale_id", "product_id", "product_name", "product_sku", "quantity", "unit_price", "subtotal"}

func runSchema(c *cli.Context) error {
	conn, err := connFrom(c)
	if err != nil {
		return err
	}
	if _, err := conn.Exec(c.Context, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	log.Println("Ledger schema is in place")
	return nil
}

func runDevSeed(c *cli.Context) error {
	conn, err := connFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	today := domain.Today(time.Local)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if c.Bool("reset") {
		log.Println("Resetting ledger tables...")
		if _, err := tx.Exec(ctx, `TRUNCATE TABLE sale_items, sales, products RESTART IDENTITY CASCADE`); err != nil {
			return fmt.Errorf("failed to reset ledger tables: %w", err)
		}
	}

	products := ledger.MockProducts()
	for _, p := range products {
		if _, err := tx.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.SKU, p.Price, int64(p.StockQuantity), int64(p.LowStockThreshold), nullIfEmpty(p.Description), nullIfEmpty(p.ImageURL)); err != nil {
			return fmt.Errorf("failed to upsert product %s: %w", p.SKU, err)
		}
	}

	sales := ledger.MockSalesHistory(today)
	ids := make([]int64, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		if _, err := tx.Exec(ctx,
			`INSERT INTO sales (id, sale_date, total_amount) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET sale_date = EXCLUDED.sale_date, total_amount = EXCLUDED.total_amount`,
			s.ID, s.Date.Time, s.TotalAmount); err != nil {
			return fmt.Errorf("failed to upsert sale %d: %w", s.ID, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to clear sale items: %w", err)
	}
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"sale_items"}, saleItemColumns, pgx.CopyFromRows(saleItemRows(sales)))
	if err != nil {
		return fmt.Errorf("failed to copy sale items: %w", err)
	}

	for _, table := range []string{"products", "sales"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), (SELECT COALESCE(MAX(id), 1) FROM %[1]s))`, table)); err != nil {
			return fmt.Errorf("failed to advance %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("Seeded %d products, %d sales and %d sale items", len(products), len(sales), copied)
	return nil
}

func runProductsSeed(c *cli.Context) error {
	conn, err := connFrom(c)
	if err != nil {
		return err
	}
	path := c.String("file")
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	input, err := productsReader(path, file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	products, err := parseProductsCSV(input)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(upsertProductBySKUSQL,
			p.Name, p.SKU, p.Price, int64(p.StockQuantity), int64(p.LowStockThreshold), nullIfEmpty(p.Description))
	}
	if err := conn.SendBatch(c.Context, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert products: %w", err)
	}
	log.Printf("Upserted %d products from %s", len(products), path)
	return nil
}

// saleItemRows flattens sales into sale_items rows in saleItemColumns order.
func saleItemRows(sales []domain.Sale) [][]any {
	var rows [][]any
	for _, s := range sales {
		for _, it := range s.Items {
			rows = append(rows, []any{s.ID, it.ProductID, it.ProductName, it.SKU, it.Quantity, it.UnitPrice, it.Subtotal})
		}
	}
	return rows
}

// parseProductsCSV reads products by header name. name and sku are required;
// numeric columns default to zero when absent or blank.
func parseProductsCSV(r io.Reader) ([]domain.Product, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "sku"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	number := func(record []string, col string, line int) (float64, error) {
		raw := field(record, col)
		if raw == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("line %d: invalid %s %q", line, col, raw)
		}
		return v, nil
	}

	var products []domain.Product
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		p := domain.Product{
			Name:        field(record, "name"),
			SKU:         field(record, "sku"),
			Description: field(record, "description"),
		}
		if p.Name == "" || p.SKU == "" {
			return nil, fmt.Errorf("line %d: name and sku are required", line)
		}
		if p.Price, err = number(record, "price", line); err != nil {
			return nil, err
		}
		if p.StockQuantity, err = number(record, "stock_quantity", line); err != nil {
			return nil, err
		}
		if p.LowStockThreshold, err = number(record, "low_stock_threshold", line); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// nullIfEmpty returns nil (SQL NULL) for an empty string.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
