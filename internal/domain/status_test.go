package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("", PeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, PeriodMonthly, p)

	p, err = ParsePeriod(" Weekly ", PeriodDaily)
	require.NoError(t, err)
	assert.Equal(t, PeriodWeekly, p)
	assert.Equal(t, "7 derniers jours", p.Label())

	_, err = ParsePeriod("yearly", PeriodDaily)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestPeriodWindow(t *testing.T) {
	today := NewDate(2025, 12, 15)
	tests := []struct {
		period Period
		start  Date
	}{
		{PeriodDaily, today},
		{PeriodWeekly, NewDate(2025, 12, 9)},
		{PeriodMonthly, NewDate(2025, 12, 1)},
		{PeriodQuarterly, NewDate(2025, 9, 17)},
	}
	for _, tt := range tests {
		start, end := tt.period.Window(today)
		assert.Equal(t, tt.start, start, tt.period)
		assert.Equal(t, today, end, tt.period)
	}
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeGlobal, s)

	s, err = ParseScope("product")
	require.NoError(t, err)
	assert.Equal(t, ScopeProduct, s)

	_, err = ParseScope("store")
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}
