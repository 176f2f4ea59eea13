// Package alert decides which anomalies warrant an external notification
// and hands them to delivery sinks.
package alert

import (
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

// Context identifies the series an anomaly was detected on.
type Context struct {
	Scope  domain.Scope
	SKU    string
	Name   string
	Period domain.Period
}

// Payload is the record delivered to sinks.
type Payload struct {
	Severity    domain.AnomalySeverity `json:"severity"`
	Scope       domain.Scope           `json:"scope"`
	SKU         *string                `json:"sku"`
	Name        *string                `json:"name"`
	Period      domain.Period          `json:"period"`
	Date        string                 `json:"date"`
	Value       float64                `json:"value"`
	Score       float64                `json:"score"`
	Type        domain.AnomalyType     `json:"type"`
	Explanation string                 `json:"explanation"`
}

// ShouldNotify reports whether a is worth an external alert: medium or high
// severity, and never in development mode.
func ShouldNotify(a domain.Anomaly, devMode bool) bool {
	if devMode {
		return false
	}
	return a.Severity == domain.SeverityHigh || a.Severity == domain.SeverityMedium
}

func BuildPayload(a domain.Anomaly, c Context) Payload {
	return Payload{
		Severity:    a.Severity,
		Scope:       c.Scope,
		SKU:         optional(c.SKU),
		Name:        optional(c.Name),
		Period:      c.Period,
		Date:        a.Date,
		Value:       a.Value,
		Score:       a.Score,
		Type:        a.Type,
		Explanation: a.Explanation,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// key groups a payload's messages: the SKU, or "global".
func (p Payload) key() string {
	if p.SKU != nil {
		return *p.SKU
	}
	return "global"
}
