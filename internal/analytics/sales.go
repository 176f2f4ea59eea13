package analytics

import (
	"sort"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

// TopProductsLimit bounds the top-products ranking.
const TopProductsLimit = 5

type dayBucket struct {
	revenue      float64
	quantity     float64
	transactions int
}

type productBucket struct {
	quantity float64
	revenue  float64
}

// AggregateSales rolls sales dated within [start, end] into daily points and
// KPIs. Daily revenue is the transaction total; product revenue is
// quantity times the item's unit price, falling back to the catalog price
// when the item carries none. Only days with at least one transaction are
// emitted. Items without a product id are ignored. Accumulation is unrounded;
// values are rounded on output.
func AggregateSales(sales []domain.Sale, products []domain.Product, start, end domain.Date) (domain.SalesKPIs, []domain.DailySalesPoint) {
	catalog := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	days := make(map[domain.Date]*dayBucket)
	byProduct := make(map[int64]*productBucket)
	var productOrder []int64

	for _, sale := range sales {
		if sale.Date.Before(start) || sale.Date.After(end) {
			continue
		}
		day, ok := days[sale.Date]
		if !ok {
			day = &dayBucket{}
			days[sale.Date] = day
		}
		day.revenue += sale.TotalAmount
		day.transactions++

		for _, item := range sale.Items {
			if item.ProductID == 0 {
				continue
			}
			price := item.UnitPrice
			if price == 0 {
				price = catalog[item.ProductID].Price
			}
			pb, ok := byProduct[item.ProductID]
			if !ok {
				pb = &productBucket{}
				byProduct[item.ProductID] = pb
				productOrder = append(productOrder, item.ProductID)
			}
			pb.quantity += item.Quantity
			pb.revenue += item.Quantity * price
			day.quantity += item.Quantity
		}
	}

	dates := make([]domain.Date, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var (
		totalRevenue, totalQuantity float64
		totalTransactions           int
		daily                       = make([]domain.DailySalesPoint, 0, len(dates))
	)
	for _, d := range dates {
		b := days[d]
		daily = append(daily, domain.DailySalesPoint{
			Date:              d,
			TotalRevenue:      roundFloat(b.revenue, 2),
			TotalQuantity:     roundFloat(b.quantity, 2),
			TotalTransactions: b.transactions,
		})
		totalRevenue += b.revenue
		totalQuantity += b.quantity
		totalTransactions += b.transactions
	}

	kpis := domain.SalesKPIs{
		TotalRevenue:      roundFloat(totalRevenue, 2),
		TotalQuantity:     roundFloat(totalQuantity, 2),
		TotalTransactions: totalTransactions,
		TopProducts:       topProducts(productOrder, byProduct, catalog, totalRevenue),
	}
	if totalTransactions > 0 {
		kpis.AverageTicket = roundFloat(totalRevenue/float64(totalTransactions), 2)
	}
	return kpis, daily
}

// topProducts ranks catalog products by rounded revenue, descending. Ties
// keep first-seen order.
func topProducts(order []int64, byProduct map[int64]*productBucket, catalog map[int64]domain.Product, totalRevenue float64) []domain.TopProductSales {
	ranked := make([]domain.TopProductSales, 0, len(order))
	for _, pid := range order {
		p, ok := catalog[pid]
		if !ok {
			continue
		}
		b := byProduct[pid]
		share := 0.0
		if totalRevenue != 0 {
			share = b.revenue / totalRevenue * 100
		}
		ranked = append(ranked, domain.TopProductSales{
			ProductID:      pid,
			Name:           p.Name,
			TotalQuantity:  roundFloat(b.quantity, 2),
			Revenue:        roundFloat(b.revenue, 2),
			ShareOfRevenue: share,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Revenue > ranked[j].Revenue })
	if len(ranked) > TopProductsLimit {
		ranked = ranked[:TopProductsLimit]
	}
	return ranked
}
