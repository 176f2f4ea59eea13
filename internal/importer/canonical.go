package importer

import (
	"math"
	"strconv"
	"strings"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

// Catalog resolves upload rows to ledger products by id, then sku, then
// name. Sku and name matching ignore case.
type Catalog struct {
	byID   map[int64]domain.Product
	bySKU  map[string]domain.Product
	byName map[string]domain.Product
}

func NewCatalog(products []domain.Product) *Catalog {
	c := &Catalog{
		byID:   make(map[int64]domain.Product, len(products)),
		bySKU:  make(map[string]domain.Product, len(products)),
		byName: make(map[string]domain.Product, len(products)),
	}
	for _, p := range products {
		if p.ID != 0 {
			c.byID[p.ID] = p
		}
		if p.SKU != "" {
			c.bySKU[strings.ToLower(p.SKU)] = p
		}
		if p.Name != "" {
			c.byName[strings.ToLower(p.Name)] = p
		}
	}
	return c
}

// Lookup tries the id first; an unknown id falls through to the sku, and
// the name is only consulted when the row has no sku.
func (c *Catalog) Lookup(row Row) (domain.Product, bool) {
	if id, ok := parseInt(row["product_id"]); ok && id != 0 {
		if p, ok := c.byID[id]; ok {
			return p, true
		}
	}
	if sku := row["sku"]; sku != "" {
		p, ok := c.bySKU[strings.ToLower(sku)]
		return p, ok
	}
	if name := row["name"]; name != "" {
		p, ok := c.byName[strings.ToLower(name)]
		return p, ok
	}
	return domain.Product{}, false
}

// Canonicalize validates rows and resolves each one against the catalog.
// Quantities must be positive and are truncated to whole units.
func Canonicalize(rows []Row, catalog *Catalog) ([]domain.ImportItem, []domain.ImportRowError) {
	var (
		items []domain.ImportItem
		errs  []domain.ImportRowError
	)
	for i, row := range rows {
		line := i + 2
		if row["product_id"] == "" && row["sku"] == "" && row["name"] == "" {
			errs = append(errs, domain.ImportRowError{Row: line, Field: "product_id / sku / name", Reason: "One of product_id, sku or name is required"})
			continue
		}
		qty, err := strconv.ParseFloat(row["quantity"], 64)
		if err != nil || math.IsNaN(qty) || math.IsInf(qty, 0) || qty <= 0 {
			errs = append(errs, domain.ImportRowError{Row: line, Field: "quantity", Reason: "Invalid or <= 0"})
			continue
		}
		p, ok := catalog.Lookup(row)
		if !ok {
			errs = append(errs, domain.ImportRowError{Row: line, Field: "product", Reason: "Unknown product"})
			continue
		}
		items = append(items, domain.ImportItem{ProductID: p.ID, SKU: p.SKU, Quantity: int(qty)})
	}
	return items, errs
}

func parseInt(v string) (int64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}
