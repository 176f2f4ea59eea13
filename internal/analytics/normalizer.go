package analytics

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

// NormalizeSeries turns raw (date, quantity) rows into a dense daily series.
//
// Rows whose quantity does not parse as a finite number, is negative, or whose
// date does not parse are dropped and counted in Series.Dropped. Remaining
// rows are summed per calendar day, and every day between the first and last
// observed day is present, with 0 for days without sales. When no row
// survives, an InsufficientData error is returned.
func NormalizeSeries(rows []domain.RawObservation) (domain.Series, error) {
	totals := make(map[domain.Date]float64, len(rows))
	dropped := 0

	for _, row := range rows {
		qty, ok := parseQuantity(row.Quantity)
		if !ok || qty < 0 {
			dropped++
			continue
		}
		day, err := domain.ParseDate(row.Date)
		if err != nil {
			dropped++
			continue
		}
		totals[day] += qty
	}

	if len(totals) == 0 {
		return domain.Series{Dropped: dropped}, domain.InsufficientData("no historical data")
	}

	days := make([]domain.Date, 0, len(totals))
	for d := range totals {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	first, last := days[0], days[len(days)-1]
	points := make([]domain.SeriesPoint, 0, last.DaysSince(first)+1)
	for d := first; !d.After(last); d = d.AddDays(1) {
		points = append(points, domain.SeriesPoint{Date: d, Quantity: totals[d]})
	}

	return domain.Series{Points: points, Dropped: dropped}, nil
}

func parseQuantity(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatQuantity renders a typed quantity for a RawObservation.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
