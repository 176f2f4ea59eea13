package cache

import (
	"fmt"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

const (
	AnalyticsPrefix = "analytics:"
	MLPrefix        = "ml:"
)

func StockKey(period domain.Period) string {
	return fmt.Sprintf("analytics:stock:%s", period)
}

func SalesKey(period domain.Period, start, end domain.Date) string {
	return fmt.Sprintf("analytics:sales:%s:%s:%s", period, start, end)
}

func ForecastKey(scope domain.Scope, identifier string, days int, period domain.Period) string {
	return fmt.Sprintf("ml:forecast:%s:%s:%d:%s", scope, identifier, days, period)
}

func AnomaliesKey(scope domain.Scope, identifier string, period domain.Period) string {
	return fmt.Sprintf("ml:anomalies:%s:%s:%s", scope, identifier, period)
}
