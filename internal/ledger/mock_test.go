package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 9, 0, 0, 0, time.UTC) }
}

func TestMockProductLookups(t *testing.T) {
	ctx := context.Background()
	m := NewMock(fixedClock(2025, 12, 15))

	p, err := m.ProductByName(ctx, "", "milk")
	require.NoError(t, err)
	assert.Equal(t, "MILK-001", p.SKU)

	p, err = m.ProductByID(ctx, "", 3)
	require.NoError(t, err)
	assert.Equal(t, "Sugar", p.Name)

	_, err = m.ProductBySKU(ctx, "", "NOPE")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	low, err := m.LowStockProducts(ctx, "")
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Bread", low[0].Name)
	assert.Equal(t, "Sugar", low[1].Name)
}

func TestMockSalesFollowClock(t *testing.T) {
	m := NewMock(fixedClock(2025, 12, 15))
	sales, err := m.SalesHistory(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, sales, 4)
	assert.Equal(t, int64(999), sales[3].ID)
	assert.Equal(t, domain.NewDate(2025, 12, 15), sales[3].Date)
}

func TestMockSeries(t *testing.T) {
	ctx := context.Background()
	m := NewMock(fixedClock(2025, 12, 15))

	rows, err := m.SalesHistoryBySKU(ctx, "", "MILK-001")
	require.NoError(t, err)
	assert.Equal(t, []domain.RawObservation{
		{Date: "2025-01-01", Quantity: "5"},
		{Date: "2025-01-02", Quantity: "7"},
		{Date: "2025-01-03", Quantity: "6"},
		{Date: "2025-01-04", Quantity: "9"},
	}, rows)

	global, err := m.GlobalSeries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, global, 7)
	assert.Equal(t, "20", global[6].Quantity)

	fallback, err := m.SalesHistoryBySKU(ctx, "", "UNKNOWN")
	require.NoError(t, err)
	require.Len(t, fallback, 14)
	assert.Equal(t, domain.RawObservation{Date: "2025-12-02", Quantity: "11"}, fallback[0])
	assert.Equal(t, domain.RawObservation{Date: "2025-12-15", Quantity: "10"}, fallback[13])

	byName, err := m.SalesHistoryByName(ctx, "", "Bread")
	require.NoError(t, err)
	assert.Equal(t, "14", byName[0].Quantity)
}

func TestMockAcknowledgesBulkSales(t *testing.T) {
	m := NewMock(fixedClock(2025, 12, 15))
	reply, err := m.CreateBulkSales(context.Background(), "", []domain.ImportItem{{ProductID: 1, SKU: "MILK-001", Quantity: 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"imported":1,"failed":0,"items":[{"productId":1,"sku":"MILK-001","quantity":2}]}`, string(reply))

	history, err := m.SalesHistory(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, MockSalesHistory(domain.NewDate(2025, 12, 15)), history, "imports leave the data set unchanged")
}
