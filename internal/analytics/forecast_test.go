package analytics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

func denseSeries(t *testing.T, start domain.Date, values ...float64) domain.Series {
	t.Helper()
	points := make([]domain.SeriesPoint, len(values))
	for i, v := range values {
		points[i] = domain.SeriesPoint{Date: start.AddDays(i), Quantity: v}
	}
	return domain.Series{Points: points}
}

func TestForecastSeriesLinearTrend(t *testing.T) {
	series := denseSeries(t, domain.NewDate(2025, 1, 1), 5, 7, 6, 9)

	fc, err := ForecastSeries(series, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-01-05", "2025-01-06"}, fc.Dates)
	assert.Equal(t, []float64{9.5, 10.6}, fc.Predictions)
	assert.Equal(t, TrendUpward, fc.Summary.Trend)
	assert.Equal(t, 10.6, fc.Summary.PeakValue)
	assert.Equal(t, "2025-01-06", fc.Summary.PeakDay)
	assert.InDelta(t, 20.1, fc.Summary.Total, 1e-9)
	assert.InDelta(t, 10.05, fc.Summary.DailyAverage, 1e-9)
	assert.Empty(t, fc.Summary.PeriodLabel)
}

func TestForecastSeriesClipsAtZero(t *testing.T) {
	series := denseSeries(t, domain.NewDate(2025, 3, 1), 10, 8, 5, 3)

	fc, err := ForecastSeries(series, 3)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.5, 0, 0}, fc.Predictions)
	for _, p := range fc.Predictions {
		assert.GreaterOrEqual(t, p, 0.0)
	}
	assert.Equal(t, TrendDownward, fc.Summary.Trend)
	assert.Equal(t, "2025-03-05", fc.Summary.PeakDay)
}

func TestForecastSeriesFlatIsStable(t *testing.T) {
	series := denseSeries(t, domain.NewDate(2025, 3, 1), 4, 4, 4)

	fc, err := ForecastSeries(series, 7)
	require.NoError(t, err)
	require.Len(t, fc.Predictions, 7)
	assert.Equal(t, TrendStable, fc.Summary.Trend)
	assert.Equal(t, fc.Dates[0], fc.Summary.PeakDay, "first maximum wins")
}

func TestForecastSeriesErrors(t *testing.T) {
	_, err := ForecastSeries(denseSeries(t, domain.NewDate(2025, 1, 1), 5), 7)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))

	_, err = ForecastSeries(denseSeries(t, domain.NewDate(2025, 1, 1), 5, 6), 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
}

func TestForecastSeriesDeterministic(t *testing.T) {
	series := denseSeries(t, domain.NewDate(2025, 1, 1), 12, 15, 14, 16, 18, 17, 20)

	a, err := ForecastSeries(series, 14)
	require.NoError(t, err)
	b, err := ForecastSeries(series, 14)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
