package analytics

import "github.com/andresuchdata/salesflow-analytics/internal/domain"

const (
	// DeadStockDays is the age of the last sale after which stock is dead.
	DeadStockDays = 90
	// UrgentCoverageDays flags reorders whose coverage falls below it.
	UrgentCoverageDays = 7
)

// StockInput is one product's inventory position plus optional sales
// velocity. AvgDailySales <= 0 means no velocity is known.
type StockInput struct {
	ProductID     int64
	Name          string
	CurrentStock  float64
	MinStock      float64
	UnitPrice     float64
	LastSaleDate  *domain.Date
	AvgDailySales float64
}

// ClassifyStock applies the status precedence: out of stock, then low stock,
// then dead stock, then OK.
func ClassifyStock(currentStock, minStock float64, lastSale *domain.Date, today domain.Date) domain.StockStatus {
	if currentStock <= 0 {
		return domain.StockOutOfStock
	}
	if currentStock < max(minStock, 1) {
		return domain.StockLow
	}
	if lastSale != nil && today.DaysSince(*lastSale) >= DeadStockDays {
		return domain.StockDead
	}
	return domain.StockOK
}

// CoverageDays is stock divided by daily velocity, or nil when either is not
// positive.
func CoverageDays(currentStock, avgDailySales float64) *float64 {
	if avgDailySales <= 0 || currentStock <= 0 {
		return nil
	}
	v := roundFloat(currentStock/avgDailySales, 1)
	return &v
}

func EvaluateStock(in StockInput, today domain.Date) domain.StockSnapshot {
	return domain.StockSnapshot{
		ProductID:    in.ProductID,
		Name:         in.Name,
		CurrentStock: in.CurrentStock,
		MinStock:     in.MinStock,
		UnitPrice:    in.UnitPrice,
		StockValue:   roundFloat(in.CurrentStock*in.UnitPrice, 2),
		LastSaleDate: in.LastSaleDate,
		CoverageDays: CoverageDays(in.CurrentStock, in.AvgDailySales),
		Status:       ClassifyStock(in.CurrentStock, in.MinStock, in.LastSaleDate, today),
	}
}

func EvaluateStocks(inputs []StockInput, today domain.Date) []domain.StockSnapshot {
	snapshots := make([]domain.StockSnapshot, 0, len(inputs))
	for _, in := range inputs {
		snapshots = append(snapshots, EvaluateStock(in, today))
	}
	return snapshots
}

// SummarizeStock computes the aggregate KPIs and the critical (non-OK)
// subset, preserving input order.
func SummarizeStock(snapshots []domain.StockSnapshot) (domain.StockKPIs, []domain.StockSnapshot) {
	var (
		kpis     domain.StockKPIs
		total    float64
		critical = make([]domain.StockSnapshot, 0)
	)

	for _, s := range snapshots {
		total += s.StockValue
		switch s.Status {
		case domain.StockOutOfStock:
			kpis.OutOfStockCount++
		case domain.StockLow:
			kpis.LowStockCount++
		case domain.StockDead:
			kpis.DeadStockCount++
		}
		if s.CoverageDays != nil && *s.CoverageDays < UrgentCoverageDays {
			kpis.UrgentReorderCount++
		}
		if s.Status != domain.StockOK {
			critical = append(critical, s)
		}
	}

	kpis.TotalStockValue = roundFloat(total, 2)
	kpis.LowStockRatio = roundFloat(float64(kpis.LowStockCount)/float64(max(len(snapshots), 1))*100, 1)
	return kpis, critical
}
