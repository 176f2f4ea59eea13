package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/storage"
)

func fixtureSales() *domain.SalesAnalytics {
	return &domain.SalesAnalytics{
		Period:      domain.PeriodMonthly,
		StartDate:   domain.NewDate(2025, 12, 1),
		EndDate:     domain.NewDate(2025, 12, 15),
		PeriodLabel: domain.PeriodMonthly.Label(),
		KPIs: domain.SalesKPIs{
			TotalRevenue:      27.2,
			TotalQuantity:     12,
			TotalTransactions: 3,
			AverageTicket:     9.07,
			TopProducts: []domain.TopProductSales{
				{ProductID: 1, Name: "Milk", TotalQuantity: 8, Revenue: 20, ShareOfRevenue: 73.53},
				{ProductID: 2, Name: "Bread", TotalQuantity: 4, Revenue: 7.2, ShareOfRevenue: 26.47},
			},
		},
		Daily: []domain.DailySalesPoint{
			{Date: domain.NewDate(2025, 12, 5), TotalRevenue: 7.2, TotalQuantity: 4, TotalTransactions: 1},
			{Date: domain.NewDate(2025, 12, 10), TotalRevenue: 20, TotalQuantity: 8, TotalTransactions: 2},
		},
	}
}

func fixtureStock() *domain.StockAnalytics {
	coverage := 4.0
	last := domain.NewDate(2025, 12, 5)
	return &domain.StockAnalytics{
		Period: domain.PeriodMonthly,
		AsOf:   domain.NewDate(2025, 12, 15),
		KPIs: domain.StockKPIs{
			TotalStockValue:    81.58,
			OutOfStockCount:    1,
			LowStockCount:      1,
			LowStockRatio:      33.33,
			UrgentReorderCount: 1,
		},
		CriticalProducts: []domain.StockSnapshot{
			{ProductID: 2, Name: "Bread", CurrentStock: 4, StockValue: 7.2, CoverageDays: &coverage, Status: domain.StockLow, LastSaleDate: &last},
			{ProductID: 3, Name: "Sugar", CurrentStock: 0, Status: domain.StockOutOfStock},
		},
	}
}

var generatedAt = time.Date(2025, 12, 15, 9, 30, 0, 0, time.UTC)

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func value(t *testing.T, f *excelize.File, sheet, at string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, at)
	require.NoError(t, err)
	return v
}

func TestBuildWorkbookSalesOnly(t *testing.T) {
	data, err := BuildWorkbook(Input{Sales: fixtureSales(), GeneratedAt: generatedAt})
	require.NoError(t, err)

	f := open(t, data)
	assert.Equal(t, []string{"Overview", "Daily Sales", "Top Products"}, f.GetSheetList())

	assert.Equal(t, reportTitle, value(t, f, "Overview", "A1"))
	assert.Equal(t, "2025-12-15 09:30", value(t, f, "Overview", "B2"))
	assert.Equal(t, "monthly", value(t, f, "Overview", "B3"))
	assert.Equal(t, "Sales KPIs", value(t, f, "Overview", "A5"))
	assert.Equal(t, "27.2", value(t, f, "Overview", "B6"))
	assert.Equal(t, "3", value(t, f, "Overview", "B8"))
	assert.Equal(t, "N/A", value(t, f, "Overview", "B10"))
	assert.Empty(t, value(t, f, "Overview", "A12"))

	rows, err := f.GetRows("Daily Sales")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Revenue", "Quantity", "Transactions"}, rows[0])
	assert.Equal(t, []string{"2025-12-10", "20", "8", "2"}, rows[2])

	top, err := f.GetRows("Top Products")
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "Milk", top[1][0])
	assert.Equal(t, "73.53", top[1][3])
}

func TestBuildWorkbookWithStock(t *testing.T) {
	data, err := BuildWorkbook(Input{Sales: fixtureSales(), Stock: fixtureStock(), GeneratedAt: generatedAt})
	require.NoError(t, err)

	f := open(t, data)
	assert.Equal(t, []string{"Overview", "Daily Sales", "Top Products", "Critical Stock"}, f.GetSheetList())
	assert.Equal(t, "Stock KPIs", value(t, f, "Overview", "A12"))
	assert.Equal(t, "81.58", value(t, f, "Overview", "B13"))
	assert.Equal(t, "0", value(t, f, "Overview", "B17"), "rotation is not computed")

	rows, err := f.GetRows("Critical Stock")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2", "Bread", "4", "7.2", "4", "LOW_STOCK", "2025-12-05"}, rows[1])
	assert.Equal(t, "OUT_OF_STOCK", rows[2][5])
	assert.Empty(t, rows[2][4])
}

func TestBuildWorkbookEmptyDaily(t *testing.T) {
	sales := fixtureSales()
	sales.Daily = nil
	sales.KPIs.TopProducts = nil

	data, err := BuildWorkbook(Input{Sales: sales, GeneratedAt: generatedAt})
	require.NoError(t, err)
	rows, err := open(t, data).GetRows("Daily Sales")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestBuildWorkbookRequiresSales(t *testing.T) {
	_, err := BuildWorkbook(Input{})
	assert.Error(t, err)
}

func TestParseTypeAndFormat(t *testing.T) {
	typ, err := ParseType(" Combined ")
	require.NoError(t, err)
	assert.Equal(t, TypeCombined, typ)
	assert.True(t, typ.IncludesStock())
	assert.False(t, TypeSales.IncludesStock())

	_, err = ParseType("inventory")
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))

	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatExcel, format)

	format, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, format)
	assert.Equal(t, PDFContentType, format.ContentType())
	_, err = ParseFormat("csv")
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
}

func TestFilename(t *testing.T) {
	at := time.Date(2025, 12, 15, 0, 5, 9, 0, time.UTC)
	assert.Equal(t, "analytics_sales_daily_2025-12-15_00-05-09.xlsx", Filename(TypeSales, FormatExcel, domain.PeriodDaily, at))
	assert.Equal(t, "analytics_combined_monthly_2025-12-15_00-05-09.pdf", Filename(TypeCombined, FormatPDF, domain.PeriodMonthly, at))
}

func TestArchiveLatest(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	archive := NewArchive(store)

	_, err = archive.Latest(ctx, TypeSales, FormatExcel)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	older := Document{Filename: "analytics_sales_daily_2025-12-14_00-00-00.xlsx", Content: []byte("old")}
	newer := Document{Filename: "analytics_sales_daily_2025-12-15_00-00-00.xlsx", Content: []byte("new")}
	other := Document{Filename: "analytics_stock_daily_2025-12-16_00-00-00.xlsx", Content: []byte("stock")}
	require.NoError(t, archive.Save(ctx, older))
	require.NoError(t, archive.Save(ctx, other))
	require.NoError(t, archive.Save(ctx, newer))

	doc, err := archive.Latest(ctx, TypeSales, FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, newer.Filename, doc.Filename)
	assert.Equal(t, []byte("new"), doc.Content)
	assert.Equal(t, ExcelContentType, doc.ContentType)

	_, err = archive.Latest(ctx, TypeSales, FormatPDF)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "workbooks never satisfy a pdf lookup")
	pdf := Document{Filename: "analytics_sales_daily_2025-12-13_00-00-00.pdf", Content: []byte("%PDF")}
	require.NoError(t, archive.Save(ctx, pdf))
	doc, err = archive.Latest(ctx, TypeSales, FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, pdf.Filename, doc.Filename)
	assert.Equal(t, PDFContentType, doc.ContentType)
}
