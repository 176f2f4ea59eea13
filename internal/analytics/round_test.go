package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		in       float64
		decimals int
		want     float64
	}{
		{9.4999999, 2, 9.5},
		{2.675, 2, 2.67},
		{0.125, 2, 0.12},
		{1.005, 2, 1},
		{8.3333, 1, 8.3},
		{3.74999, 3, 3.75},
		{-0.001, 2, 0},
		{12, 0, 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundFloat(tt.in, tt.decimals), "round(%v, %d)", tt.in, tt.decimals)
	}

	assert.False(t, math.Signbit(roundFloat(-0.001, 2)), "negative zero is normalized")
	assert.True(t, math.IsNaN(roundFloat(math.NaN(), 2)))
	assert.Equal(t, 10.6, Round2(10.600000000000001))
}
