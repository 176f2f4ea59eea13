package domain

// StockSnapshot is one product's evaluated inventory position.
type StockSnapshot struct {
	ProductID    int64       `json:"product_id"`
	Name         string      `json:"name"`
	CurrentStock float64     `json:"current_stock"`
	MinStock     float64     `json:"min_stock"`
	UnitPrice    float64     `json:"unit_price"`
	StockValue   float64     `json:"stock_value"`
	LastSaleDate *Date       `json:"last_sale_date"`
	CoverageDays *float64    `json:"coverage_days"`
	Status       StockStatus `json:"status"`
}

// StockKPIs aggregates a set of snapshots. RotationPerYear and
// AvgCoverageDays are reserved and always null.
type StockKPIs struct {
	TotalStockValue    float64  `json:"total_stock_value"`
	OutOfStockCount    int      `json:"out_of_stock_count"`
	LowStockCount      int      `json:"low_stock_count"`
	LowStockRatio      float64  `json:"low_stock_ratio"`
	UrgentReorderCount int      `json:"urgent_reorder_count"`
	DeadStockCount     int      `json:"dead_stock_count"`
	RotationPerYear    *float64 `json:"rotation_per_year"`
	AvgCoverageDays    *float64 `json:"avg_coverage_days"`
}

type StockAnalytics struct {
	Period           Period          `json:"period"`
	PeriodLabel      string          `json:"period_label"`
	AsOf             Date            `json:"as_of"`
	KPIs             StockKPIs       `json:"kpis"`
	CriticalProducts []StockSnapshot `json:"critical_products"`
}

type DailySalesPoint struct {
	Date              Date    `json:"date"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalQuantity     float64 `json:"total_quantity"`
	TotalTransactions int     `json:"total_transactions"`
}

type TopProductSales struct {
	ProductID      int64   `json:"product_id"`
	Name           string  `json:"name"`
	TotalQuantity  float64 `json:"total_quantity"`
	Revenue        float64 `json:"revenue"`
	ShareOfRevenue float64 `json:"share_of_revenue"`
}

type SalesKPIs struct {
	TotalRevenue      float64           `json:"total_revenue"`
	TotalQuantity     float64           `json:"total_quantity"`
	TotalTransactions int               `json:"total_transactions"`
	AverageTicket     float64           `json:"average_ticket"`
	TopProducts       []TopProductSales `json:"top_products"`
	SeasonalHint      *string           `json:"seasonal_hint"`
}

type SalesAnalytics struct {
	Period      Period            `json:"period"`
	StartDate   Date              `json:"start_date"`
	EndDate     Date              `json:"end_date"`
	PeriodLabel string            `json:"period_label"`
	KPIs        SalesKPIs         `json:"kpis"`
	Daily       []DailySalesPoint `json:"daily"`
}

// SalesQuery selects a sales window. Start and End override the period's
// default window only when both are set.
type SalesQuery struct {
	Period Period
	Start  *Date
	End    *Date
}
