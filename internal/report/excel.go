package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

const (
	sheetOverview = "Overview"
	sheetDaily    = "Daily Sales"
	sheetTop      = "Top Products"
	sheetStock    = "Critical Stock"

	reportTitle = "SalesFlow Analytics Report"
)

// Input is what a workbook is rendered from. Stock may be nil.
type Input struct {
	Sales       *domain.SalesAnalytics
	Stock       *domain.StockAnalytics
	GeneratedAt time.Time
}

type styles struct {
	title  int
	header int
}

// BuildWorkbook renders in as an xlsx file.
func BuildWorkbook(in Input) ([]byte, error) {
	if in.Sales == nil {
		return nil, fmt.Errorf("report: sales analytics are required")
	}

	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", sheetOverview); err != nil {
		return nil, fmt.Errorf("report: rename sheet: %w", err)
	}

	steps := []func(*excelize.File, Input, styles) error{
		writeOverview,
		writeDailySales,
		writeTopProducts,
	}
	if in.Stock != nil {
		steps = append(steps, writeCriticalStock)
	}
	for _, step := range steps {
		if err := step(f, in, st); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (styles, error) {
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return styles{}, fmt.Errorf("report: title style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return styles{}, fmt.Errorf("report: header style: %w", err)
	}
	return styles{title: title, header: header}, nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func labelled(f *excelize.File, sheet string, row int, label string, value any) error {
	if err := f.SetCellValue(sheet, cell("A", row), label); err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell("B", row), value)
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

type kv struct {
	label string
	value any
}

func writeOverview(f *excelize.File, in Input, st styles) error {
	s := sheetOverview
	k := in.Sales.KPIs

	if err := f.SetCellValue(s, "A1", reportTitle); err != nil {
		return err
	}
	if err := f.MergeCell(s, "A1", "D1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(s, "A1", "A1", st.title); err != nil {
		return err
	}
	if err := labelled(f, s, 2, "Generated at", in.GeneratedAt.Format("2006-01-02 15:04")); err != nil {
		return err
	}
	if err := labelled(f, s, 3, "Period", string(in.Sales.Period)); err != nil {
		return err
	}

	trend := "N/A"
	if k.SeasonalHint != nil {
		trend = *k.SeasonalHint
	}
	row, err := writeSection(f, s, st, 5, "Sales KPIs", []kv{
		{"Total revenue", k.TotalRevenue},
		{"Total quantity", k.TotalQuantity},
		{"Transactions", k.TotalTransactions},
		{"Average ticket", k.AverageTicket},
		{"Trend", trend},
	})
	if err != nil {
		return err
	}

	if in.Stock != nil {
		ks := in.Stock.KPIs
		if _, err := writeSection(f, s, st, row+1, "Stock KPIs", []kv{
			{"Total stock value", ks.TotalStockValue},
			{"Out of stock", ks.OutOfStockCount},
			{"Low stock", ks.LowStockCount},
			{"Low stock ratio (%)", ks.LowStockRatio},
			{"Rotation / year", orZero(ks.RotationPerYear)},
			{"Avg coverage (days)", orZero(ks.AvgCoverageDays)},
			{"Urgent reorder (<7d)", ks.UrgentReorderCount},
			{"Dead stock", ks.DeadStockCount},
		}); err != nil {
			return err
		}
	}
	return f.SetColWidth(s, "A", "B", 24)
}

// writeSection writes a bold title at row and the pairs below it. It returns
// the first free row.
func writeSection(f *excelize.File, sheet string, st styles, row int, title string, pairs []kv) (int, error) {
	if err := f.SetCellValue(sheet, cell("A", row), title); err != nil {
		return 0, err
	}
	if err := f.SetCellStyle(sheet, cell("A", row), cell("A", row), st.header); err != nil {
		return 0, err
	}
	for _, p := range pairs {
		row++
		if err := labelled(f, sheet, row, p.label, p.value); err != nil {
			return 0, err
		}
	}
	return row + 1, nil
}

func writeHeader(f *excelize.File, sheet string, st styles, headers ...any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("report: add sheet %s: %w", sheet, err)
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", cell(last, 1), st.header); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}

func writeDailySales(f *excelize.File, in Input, st styles) error {
	s := sheetDaily
	if err := writeHeader(f, s, st, "Date", "Revenue", "Quantity", "Transactions"); err != nil {
		return err
	}
	for i, p := range in.Sales.Daily {
		row := []any{p.Date.String(), p.TotalRevenue, p.TotalQuantity, p.TotalTransactions}
		if err := f.SetSheetRow(s, cell("A", i+2), &row); err != nil {
			return err
		}
	}
	if len(in.Sales.Daily) == 0 {
		return nil
	}

	last := len(in.Sales.Daily) + 1
	return f.AddChart(s, "F2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", s),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", s, last),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", s, last),
		}},
		Title: []excelize.RichTextRun{{Text: "Daily revenue"}},
	})
}

func writeTopProducts(f *excelize.File, in Input, st styles) error {
	s := sheetTop
	if err := writeHeader(f, s, st, "Product", "Quantity", "Revenue", "Share (%)"); err != nil {
		return err
	}
	for i, p := range in.Sales.KPIs.TopProducts {
		row := []any{p.Name, p.TotalQuantity, p.Revenue, p.ShareOfRevenue}
		if err := f.SetSheetRow(s, cell("A", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func writeCriticalStock(f *excelize.File, in Input, st styles) error {
	s := sheetStock
	if err := writeHeader(f, s, st, "Product ID", "Product", "Current stock", "Stock value", "Coverage (days)", "Status", "Last sale date"); err != nil {
		return err
	}
	for i, p := range in.Stock.CriticalProducts {
		var coverage, lastSale any
		if p.CoverageDays != nil {
			coverage = *p.CoverageDays
		}
		if p.LastSaleDate != nil {
			lastSale = p.LastSaleDate.String()
		}
		row := []any{p.ProductID, p.Name, p.CurrentStock, p.StockValue, coverage, string(p.Status), lastSale}
		if err := f.SetSheetRow(s, cell("A", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}
