package domain

import "strings"

const (
	DefaultForecastDays = 7
	MaxForecastDays     = 365
)

// MLRequest is the common selector of forecast and anomaly requests.
type MLRequest struct {
	Scope     Scope  `json:"scope"`
	SKU       string `json:"sku,omitempty"`
	Name      string `json:"name,omitempty"`
	ProductID *int64 `json:"product_id,omitempty"`
	Period    Period `json:"period,omitempty"`
}

// Normalize trims identifiers, clears them for GLOBAL scope and checks that
// PRODUCT scope names a product.
func (r *MLRequest) Normalize() error {
	scope, err := ParseScope(string(r.Scope))
	if err != nil {
		return err
	}
	period, err := ParsePeriod(string(r.Period), PeriodDaily)
	if err != nil {
		return err
	}
	r.Scope, r.Period = scope, period
	switch r.Scope {
	case ScopeGlobal:
		r.SKU, r.Name, r.ProductID = "", "", nil
	case ScopeProduct:
		r.SKU = strings.TrimSpace(r.SKU)
		r.Name = strings.TrimSpace(r.Name)
		if r.SKU == "" && r.Name == "" {
			return InvalidRequest("at least one of 'sku' or 'name' is required when scope=PRODUCT")
		}
	}
	return nil
}

type ForecastRequest struct {
	MLRequest
	ForecastDays int `json:"forecast_days"`
}

func (r *ForecastRequest) Normalize() error {
	if err := r.MLRequest.Normalize(); err != nil {
		return err
	}
	if r.ForecastDays <= 0 {
		return InvalidRequest("forecast_days must be > 0")
	}
	if r.ForecastDays > MaxForecastDays {
		return InvalidRequest("forecast_days must be <= %d", MaxForecastDays)
	}
	return nil
}

type AnomalyRequest struct {
	MLRequest
}

// ProductInfo is the product block attached to ML results for UI display.
type ProductInfo struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	SKU         string  `json:"sku"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
}

func ProductInfoOf(p *Product) *ProductInfo {
	if p == nil {
		return nil
	}
	return &ProductInfo{
		ID:          p.ID,
		Name:        p.Name,
		SKU:         p.SKU,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
	}
}

type ForecastSummary struct {
	Total        float64 `json:"total"`
	DailyAverage float64 `json:"daily_average"`
	PeakValue    float64 `json:"peak_value"`
	PeakDay      string  `json:"peak_day"`
	Trend        string  `json:"trend"`
	PeriodLabel  string  `json:"period_label"`
}

type ForecastResult struct {
	Scope       Scope           `json:"scope"`
	ProductID   *int64          `json:"product_id"`
	ProductSKU  *string         `json:"product_sku"`
	Dates       []string        `json:"dates"`
	Predictions []float64       `json:"predictions"`
	Summary     ForecastSummary `json:"summary"`
	Product     *ProductInfo    `json:"product"`
}

type AnomalySeverity string

const (
	SeverityMedium AnomalySeverity = "medium"
	SeverityHigh   AnomalySeverity = "high"
)

type AnomalyType string

const (
	AnomalyHighSpike AnomalyType = "HIGH_SPIKE"
	AnomalyDrop      AnomalyType = "DROP"
)

type Anomaly struct {
	Date        string          `json:"date"`
	Value       float64         `json:"value"`
	Score       float64         `json:"score"`
	Severity    AnomalySeverity `json:"severity"`
	Type        AnomalyType     `json:"type"`
	Explanation string          `json:"explanation"`
}

type AnomalyResult struct {
	Scope      Scope        `json:"scope"`
	ProductID  *int64       `json:"product_id"`
	ProductSKU *string      `json:"product_sku"`
	Period     Period       `json:"period"`
	Count      int          `json:"count"`
	Anomalies  []Anomaly    `json:"anomalies"`
	Product    *ProductInfo `json:"product"`
}
