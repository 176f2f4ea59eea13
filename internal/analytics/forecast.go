package analytics

import "github.com/andresuchdata/salesflow-analytics/internal/domain"

const (
	TrendUpward   = "upward"
	TrendDownward = "downward"
	TrendStable   = "stable"
)

// Forecast is a projection of a normalized series.
type Forecast struct {
	Dates       []string
	Predictions []float64
	Summary     domain.ForecastSummary
}

// linearFit is an ordinary least-squares fit of y on x = 0, 1, 2, ...
type linearFit struct {
	slope     float64
	intercept float64
}

func fitTrend(values []float64) linearFit {
	n := float64(len(values))
	var sumX, sumY float64
	for i, v := range values {
		sumX += float64(i)
		sumY += v
	}
	meanX, meanY := sumX/n, sumY/n

	var sxy, sxx float64
	for i, v := range values {
		dx := float64(i) - meanX
		sxy += dx * (v - meanY)
		sxx += dx * dx
	}

	fit := linearFit{intercept: meanY}
	if sxx > 0 {
		fit.slope = sxy / sxx
		fit.intercept = meanY - fit.slope*meanX
	}
	return fit
}

func (f linearFit) at(x int) float64 {
	return f.intercept + f.slope*float64(x)
}

// ForecastSeries fits a linear trend against each point's position in the
// series and projects the next days positions. Predictions are clipped at
// zero and rounded to 2 decimals. The summary's PeriodLabel is left for the
// caller.
func ForecastSeries(series domain.Series, days int) (Forecast, error) {
	if days <= 0 {
		return Forecast{}, domain.InvalidRequest("forecast_days must be > 0")
	}
	if series.Len() < 2 {
		return Forecast{}, domain.InsufficientData("not enough historical data: need at least 2 days, got %d", series.Len())
	}

	fit := fitTrend(series.Values())
	lastIdx := series.Len() - 1
	lastDate := series.Last().Date

	out := Forecast{
		Dates:       make([]string, days),
		Predictions: make([]float64, days),
	}
	for i := 0; i < days; i++ {
		out.Predictions[i] = roundFloat(max(fit.at(lastIdx+1+i), 0), 2)
		out.Dates[i] = lastDate.AddDays(i + 1).String()
	}
	out.Summary = summarizeForecast(out.Dates, out.Predictions)
	return out, nil
}

func summarizeForecast(dates []string, preds []float64) domain.ForecastSummary {
	var total float64
	peakIdx := 0
	for i, p := range preds {
		total += p
		if p > preds[peakIdx] {
			peakIdx = i
		}
	}

	trend := TrendStable
	first, last := preds[0], preds[len(preds)-1]
	switch {
	case last > first:
		trend = TrendUpward
	case last < first:
		trend = TrendDownward
	}

	return domain.ForecastSummary{
		Total:        total,
		DailyAverage: total / float64(len(preds)),
		PeakValue:    preds[peakIdx],
		PeakDay:      dates[peakIdx],
		Trend:        trend,
	}
}
