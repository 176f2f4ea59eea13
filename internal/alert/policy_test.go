package alert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

func anomaly(severity domain.AnomalySeverity) domain.Anomaly {
	return domain.Anomaly{
		Date:        "2025-01-16",
		Value:       16,
		Score:       3.75,
		Severity:    severity,
		Type:        domain.AnomalyHighSpike,
		Explanation: "Z-score anomaly detected",
	}
}

func TestShouldNotify(t *testing.T) {
	tests := []struct {
		name     string
		severity domain.AnomalySeverity
		devMode  bool
		want     bool
	}{
		{"high", domain.SeverityHigh, false, true},
		{"medium", domain.SeverityMedium, false, true},
		{"low is ignored", domain.AnomalySeverity("low"), false, false},
		{"dev mode suppresses high", domain.SeverityHigh, true, false},
		{"dev mode suppresses medium", domain.SeverityMedium, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldNotify(anomaly(tt.severity), tt.devMode))
		})
	}
}

func TestBuildPayloadGlobal(t *testing.T) {
	p := BuildPayload(anomaly(domain.SeverityHigh), Context{Scope: domain.ScopeGlobal, Period: domain.PeriodDaily})

	assert.Nil(t, p.SKU)
	assert.Nil(t, p.Name)
	assert.Equal(t, "global", p.key())

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"severity": "high",
		"scope": "GLOBAL",
		"sku": null,
		"name": null,
		"period": "daily",
		"date": "2025-01-16",
		"value": 16,
		"score": 3.75,
		"type": "HIGH_SPIKE",
		"explanation": "Z-score anomaly detected"
	}`, string(raw))
}

func TestBuildPayloadProduct(t *testing.T) {
	p := BuildPayload(anomaly(domain.SeverityMedium), Context{
		Scope:  domain.ScopeProduct,
		SKU:    "MILK-001",
		Name:   "Milk",
		Period: domain.PeriodWeekly,
	})

	require.NotNil(t, p.SKU)
	assert.Equal(t, "MILK-001", *p.SKU)
	require.NotNil(t, p.Name)
	assert.Equal(t, "Milk", *p.Name)
	assert.Equal(t, "MILK-001", p.key())
	assert.Equal(t, domain.PeriodWeekly, p.Period)
}
