package analytics

import "github.com/andresuchdata/salesflow-analytics/internal/domain"

// VelocityWindowDays is the trailing window used for sales velocity.
const VelocityWindowDays = 90

// Velocity is a product's recent sales rate.
type Velocity struct {
	AvgDaily float64
	LastSale domain.Date
}

// SalesVelocity computes, per product, the average daily quantity sold and
// the last sale day over sales dated from today-89 onward. The average divides
// by the span between the first and last selling day (inclusive), not by the
// window length. Items without a positive quantity or a product id are ignored.
func SalesVelocity(sales []domain.Sale, today domain.Date) map[int64]Velocity {
	cutoff := today.AddDays(-(VelocityWindowDays - 1))

	type acc struct {
		total       float64
		first, last domain.Date
	}
	byProduct := make(map[int64]*acc)

	for _, sale := range sales {
		if sale.Date.Before(cutoff) {
			continue
		}
		for _, item := range sale.Items {
			if item.Quantity <= 0 || item.ProductID == 0 {
				continue
			}
			a, ok := byProduct[item.ProductID]
			if !ok {
				a = &acc{first: sale.Date, last: sale.Date}
				byProduct[item.ProductID] = a
			}
			a.total += item.Quantity
			if sale.Date.Before(a.first) {
				a.first = sale.Date
			}
			if sale.Date.After(a.last) {
				a.last = sale.Date
			}
		}
	}

	out := make(map[int64]Velocity, len(byProduct))
	for pid, a := range byProduct {
		span := a.last.DaysSince(a.first) + 1
		out[pid] = Velocity{AvgDaily: a.total / float64(max(span, 1)), LastSale: a.last}
	}
	return out
}

// StockInputs joins products with their velocity. Inventory levels come from
// the product record's stock quantity and low-stock threshold.
func StockInputs(products []domain.Product, velocity map[int64]Velocity) []StockInput {
	inputs := make([]StockInput, 0, len(products))
	for _, p := range products {
		in := StockInput{
			ProductID:    p.ID,
			Name:         p.Name,
			CurrentStock: p.StockQuantity,
			MinStock:     p.LowStockThreshold,
			UnitPrice:    p.Price,
		}
		if v, ok := velocity[p.ID]; ok {
			last := v.LastSale
			in.LastSaleDate = &last
			in.AvgDailySales = v.AvgDaily
		}
		inputs = append(inputs, in)
	}
	return inputs
}
