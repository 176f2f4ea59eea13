package domain

import "strings"

type StockStatus string

const (
	StockOK         StockStatus = "OK"
	StockLow        StockStatus = "LOW_STOCK"
	StockOutOfStock StockStatus = "OUT_OF_STOCK"
	StockDead       StockStatus = "DEAD_STOCK"
)

// Period selects the default reporting window.
type Period string

const (
	PeriodDaily     Period = "daily"
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
)

var periodLabels = map[Period]string{
	PeriodDaily:     "Aujourd’hui",
	PeriodWeekly:    "7 derniers jours",
	PeriodMonthly:   "Mois en cours",
	PeriodQuarterly: "90 derniers jours",
}

// ParsePeriod is case-insensitive; an empty value defaults to fallback.
func ParsePeriod(value string, fallback Period) (Period, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return fallback, nil
	}
	p := Period(v)
	if _, ok := periodLabels[p]; !ok {
		return "", InvalidRequest("unsupported period %q (expected daily, weekly, monthly or quarterly)", value)
	}
	return p, nil
}

// Label returns the display label used in analytics responses.
func (p Period) Label() string {
	return periodLabels[p]
}

// Window returns the inclusive default date range for p ending today.
func (p Period) Window(today Date) (Date, Date) {
	switch p {
	case PeriodWeekly:
		return today.AddDays(-6), today
	case PeriodMonthly:
		return NewDate(today.Year(), today.Month(), 1), today
	case PeriodQuarterly:
		return today.AddDays(-89), today
	default:
		return today, today
	}
}

// Scope selects whether an ML computation runs over all sales or one product.
type Scope string

const (
	ScopeGlobal  Scope = "GLOBAL"
	ScopeProduct Scope = "PRODUCT"
)

func ParseScope(value string) (Scope, error) {
	switch Scope(strings.ToUpper(strings.TrimSpace(value))) {
	case ScopeGlobal, "":
		return ScopeGlobal, nil
	case ScopeProduct:
		return ScopeProduct, nil
	default:
		return "", InvalidRequest("unsupported scope %q (expected GLOBAL or PRODUCT)", value)
	}
}
