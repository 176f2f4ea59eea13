package domain

// Product is the ledger's product record. This service only ever holds a
// request-scoped, read-only copy.
type Product struct {
	ID                int64   `json:"id" db:"id"`
	SKU               string  `json:"sku" db:"sku"`
	Name              string  `json:"name" db:"name"`
	Price             float64 `json:"price" db:"price"`
	StockQuantity     float64 `json:"stockQuantity" db:"stock_quantity"`
	LowStockThreshold float64 `json:"lowStockThreshold" db:"low_stock_threshold"`
	Description       string  `json:"description,omitempty" db:"description"`
	ImageURL          string  `json:"imageUrl,omitempty" db:"image_url"`
}

// SaleItem is one line of a sales transaction. UnitPrice is zero when the
// ledger did not record one.
type SaleItem struct {
	ProductID   int64   `json:"productId" db:"product_id"`
	ProductName string  `json:"productName" db:"product_name"`
	SKU         string  `json:"sku" db:"product_sku"`
	Quantity    float64 `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unitPrice" db:"unit_price"`
	Subtotal    float64 `json:"subtotal" db:"subtotal"`
}

// Sale is a ledger transaction.
type Sale struct {
	ID          int64      `json:"id"`
	Date        Date       `json:"saleDate"`
	TotalAmount float64    `json:"totalAmount"`
	Items       []SaleItem `json:"items"`
}

// RawObservation is an unvalidated (date, quantity) pair as delivered by a
// sales history feed. Both fields keep their textual form so that coercion
// failures can be dropped and counted during normalization.
type RawObservation struct {
	Date     string
	Quantity string
}

// SeriesPoint is one day of a normalized series.
type SeriesPoint struct {
	Date     Date    `json:"date"`
	Quantity float64 `json:"quantity"`
}

// Series is a dense daily series: one point per calendar day from the first
// to the last observed day, ascending. Dropped counts input rows rejected
// during coercion.
type Series struct {
	Points  []SeriesPoint
	Dropped int
}

func (s Series) Len() int { return len(s.Points) }

func (s Series) First() SeriesPoint { return s.Points[0] }

func (s Series) Last() SeriesPoint { return s.Points[len(s.Points)-1] }

func (s Series) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Quantity
	}
	return values
}

// Since keeps the points dated on or after cutoff.
func (s Series) Since(cutoff Date) Series {
	for i, p := range s.Points {
		if !p.Date.Before(cutoff) {
			return Series{Points: s.Points[i:], Dropped: s.Dropped}
		}
	}
	return Series{Dropped: s.Dropped}
}
