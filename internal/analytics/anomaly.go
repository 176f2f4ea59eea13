package analytics

import (
	"math"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

const (
	AnomalyThreshold     = 3.0
	HighSeverityZScore   = 4.0
	AnomalyExplanation   = "Z-score anomaly detected"
	anomalyScoreDecimals = 3
)

// meanStd returns the mean and the sample standard deviation (n-1
// denominator). The deviation is NaN for fewer than two values.
func meanStd(values []float64) (float64, float64) {
	n := float64(len(values))
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if n < 2 {
		return mean, math.NaN()
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}

// classifyZ reports whether z is anomalous and, if so, its severity and type.
func classifyZ(z float64) (bool, domain.AnomalySeverity, domain.AnomalyType) {
	abs := math.Abs(z)
	if abs < AnomalyThreshold {
		return false, "", ""
	}
	severity := domain.SeverityMedium
	if abs >= HighSeverityZScore {
		severity = domain.SeverityHigh
	}
	kind := domain.AnomalyDrop
	if z > 0 {
		kind = domain.AnomalyHighSpike
	}
	return true, severity, kind
}

// DetectAnomalies flags every day whose z-score against the whole series has
// magnitude >= 3. A series with zero or undefined deviation has no anomalies.
// The result is ordered by date and is never nil.
func DetectAnomalies(series domain.Series) []domain.Anomaly {
	anomalies := make([]domain.Anomaly, 0)
	values := series.Values()
	mean, std := meanStd(values)
	if std == 0 || math.IsNaN(std) {
		return anomalies
	}

	for i, v := range values {
		z := (v - mean) / std
		flagged, severity, kind := classifyZ(z)
		if !flagged {
			continue
		}
		anomalies = append(anomalies, domain.Anomaly{
			Date:        series.Points[i].Date.String(),
			Value:       v,
			Score:       roundFloat(z, anomalyScoreDecimals),
			Severity:    severity,
			Type:        kind,
			Explanation: AnomalyExplanation,
		})
	}
	return anomalies
}
