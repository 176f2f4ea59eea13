package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

const (
	pdfMargin    = 20.0
	pdfLineH     = 7.0
	pdfChartH    = 55.0
	pdfLabelCol  = 70.0
	pdfNoTopText = "No product sales available for this period."
)

type rgb struct{ r, g, b int }

var (
	colorAccent = rgb{37, 99, 235}
	colorBars   = rgb{16, 185, 129}
	colorMuted  = rgb{107, 114, 128}
	colorHeader = rgb{229, 231, 235}
)

// BuildPDF renders in as a paged executive report: a cover, the sales KPIs
// with a daily revenue chart, top products and, when stock is present, the
// inventory KPIs with a critical stock distribution chart.
func BuildPDF(in Input) ([]byte, error) {
	return renderPDF(in, true)
}

type pdfDoc struct {
	*fpdf.Fpdf
	tr    func(string) string
	width float64
}

func renderPDF(in Input, compress bool) ([]byte, error) {
	if in.Sales == nil {
		return nil, fmt.Errorf("report: sales analytics are required")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCreationDate(in.GeneratedAt)
	pdf.SetCreator("salesflow-analytics", false)

	pageW, _ := pdf.GetPageSize()
	d := &pdfDoc{Fpdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), width: pageW - 2*pdfMargin}

	title := "Sales Analytics Report"
	if in.Stock != nil {
		title = "Sales & Stock Analytics Report"
	}
	pdf.SetTitle(title, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		d.color(colorMuted)
		pdf.CellFormat(0, 10, fmt.Sprintf("SalesFlow Analytics - page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	d.cover(title, in)
	d.salesSection(in.Sales)
	if in.Stock != nil {
		d.stockSection(in.Sales.Period, in.Stock)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("report: render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *pdfDoc) color(c rgb) { d.SetTextColor(c.r, c.g, c.b) }

func (d *pdfDoc) heading(text string, size float64) {
	d.SetFont("Helvetica", "B", size)
	d.color(rgb{})
	d.CellFormat(0, size/2+2, d.tr(text), "", 1, "L", false, 0, "")
	d.Ln(2)
}

func (d *pdfDoc) paragraph(text string) {
	d.SetFont("Helvetica", "", 10)
	d.color(rgb{})
	d.MultiCell(0, 5, d.tr(text), "", "L", false)
	d.Ln(3)
}

func (d *pdfDoc) cover(title string, in Input) {
	d.AddPage()
	d.SetY(90)
	d.SetFont("Helvetica", "B", 24)
	d.color(colorAccent)
	d.CellFormat(0, 14, d.tr(title), "", 1, "C", false, 0, "")
	d.SetFont("Helvetica", "", 12)
	d.color(colorMuted)
	d.CellFormat(0, 8, "Period: "+string(in.Sales.Period), "", 1, "C", false, 0, "")
	d.CellFormat(0, 8, fmt.Sprintf("%s to %s", in.Sales.StartDate, in.Sales.EndDate), "", 1, "C", false, 0, "")
	d.CellFormat(0, 8, "Generated at "+in.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
}

// table draws header and rows in equal-width columns; the first column is
// left aligned, the rest right aligned.
func (d *pdfDoc) table(header []string, rows [][]string) {
	colW := d.width / float64(len(header))
	d.SetFont("Helvetica", "B", 10)
	d.color(rgb{})
	d.SetFillColor(colorHeader.r, colorHeader.g, colorHeader.b)
	for i, h := range header {
		d.CellFormat(colW, pdfLineH, d.tr(h), "1", 0, align(i), true, 0, "")
	}
	d.Ln(-1)
	d.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		for i, v := range row {
			d.CellFormat(colW, pdfLineH, d.tr(v), "1", 0, align(i), false, 0, "")
		}
		d.Ln(-1)
	}
	d.Ln(4)
}

func align(col int) string {
	if col == 0 {
		return "L"
	}
	return "R"
}

func (d *pdfDoc) pairs(items []kv) {
	d.SetFont("Helvetica", "", 10)
	d.color(rgb{})
	for _, p := range items {
		d.CellFormat(pdfLabelCol, pdfLineH, d.tr(p.label), "B", 0, "L", false, 0, "")
		d.CellFormat(d.width-pdfLabelCol, pdfLineH, d.tr(formatValue(p.value)), "B", 1, "R", false, 0, "")
	}
	d.Ln(4)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func (d *pdfDoc) salesSection(sales *domain.SalesAnalytics) {
	d.AddPage()
	d.heading("Executive analytics overview", 16)
	d.paragraph(fmt.Sprintf("Sales performance for the %s period from %s to %s.", sales.Period, sales.StartDate, sales.EndDate))

	k := sales.KPIs
	trend := "N/A"
	if k.SeasonalHint != nil {
		trend = *k.SeasonalHint
	}
	d.heading("1. Sales KPIs", 13)
	d.pairs([]kv{
		{"Total revenue", k.TotalRevenue},
		{"Total quantity", k.TotalQuantity},
		{"Transactions", k.TotalTransactions},
		{"Average ticket", k.AverageTicket},
		{"Trend", trend},
	})

	if len(sales.Daily) > 0 {
		d.heading("Daily revenue timeline", 11)
		d.lineChart(sales.Daily)
	}

	d.heading("2. Top products", 13)
	if len(k.TopProducts) == 0 {
		d.paragraph(pdfNoTopText)
		return
	}
	rows := make([][]string, 0, len(k.TopProducts))
	for _, p := range k.TopProducts {
		rows = append(rows, []string{p.Name, formatValue(p.TotalQuantity), formatValue(p.Revenue), formatValue(p.ShareOfRevenue)})
	}
	d.table([]string{"Product", "Quantity", "Revenue", "Share (%)"}, rows)
}

func (d *pdfDoc) stockSection(period domain.Period, stock *domain.StockAnalytics) {
	d.AddPage()
	d.heading("Inventory & stock risk", 16)
	d.paragraph(fmt.Sprintf("Stock health as of %s for the %s period.", stock.AsOf, period))

	ks := stock.KPIs
	d.heading("3. Inventory KPIs", 13)
	d.pairs([]kv{
		{"Total stock value", ks.TotalStockValue},
		{"Out of stock", ks.OutOfStockCount},
		{"Low stock", ks.LowStockCount},
		{"Low stock ratio (%)", ks.LowStockRatio},
		{"Rotation / year", orZero(ks.RotationPerYear)},
		{"Avg coverage (days)", orZero(ks.AvgCoverageDays)},
		{"Urgent reorder (<7d)", ks.UrgentReorderCount},
		{"Dead stock", ks.DeadStockCount},
	})

	if len(stock.CriticalProducts) > 0 {
		d.heading("Critical stock distribution", 11)
		d.barChart(statusBuckets(stock.CriticalProducts))
	}
}

type bucket struct {
	label string
	count int
}

// statusBuckets counts critical products per status, in a fixed order.
func statusBuckets(products []domain.StockSnapshot) []bucket {
	buckets := []bucket{{label: "OK"}, {label: "LOW"}, {label: "OUT"}, {label: "DEAD"}}
	for _, p := range products {
		switch p.Status {
		case domain.StockLow:
			buckets[1].count++
		case domain.StockOutOfStock:
			buckets[2].count++
		case domain.StockDead:
			buckets[3].count++
		default:
			buckets[0].count++
		}
	}
	return buckets
}

// chartArea reserves pdfChartH below the cursor, on a new page if needed, and
// returns the plot origin at its bottom left.
func (d *pdfDoc) chartArea() (x, y float64) {
	_, pageH := d.GetPageSize()
	if d.GetY()+pdfChartH+10 > pageH-pdfMargin {
		d.AddPage()
	}
	x, y = d.GetX()+12, d.GetY()+pdfChartH
	d.SetDrawColor(colorMuted.r, colorMuted.g, colorMuted.b)
	d.SetLineWidth(0.2)
	d.Line(x, y, x+d.width-12, y)
	d.Line(x, y, x, y-pdfChartH+4)
	return x, y
}

func (d *pdfDoc) lineChart(points []domain.DailySalesPoint) {
	x0, y0 := d.chartArea()
	plotW, plotH := d.width-16, pdfChartH-8

	top := 0.0
	for _, p := range points {
		top = max(top, p.TotalRevenue)
	}
	if top == 0 {
		top = 1
	}
	top *= 1.1

	step := 0.0
	if len(points) > 1 {
		step = plotW / float64(len(points)-1)
	}
	d.SetDrawColor(colorAccent.r, colorAccent.g, colorAccent.b)
	d.SetLineWidth(0.6)
	prevX, prevY := 0.0, 0.0
	for i, p := range points {
		px := x0 + float64(i)*step
		py := y0 - p.TotalRevenue/top*plotH
		if i > 0 {
			d.Line(prevX, prevY, px, py)
		}
		d.SetFillColor(colorAccent.r, colorAccent.g, colorAccent.b)
		d.Circle(px, py, 0.8, "F")
		prevX, prevY = px, py
	}

	d.SetFont("Helvetica", "", 7)
	d.color(colorMuted)
	d.Text(x0-11, y0-plotH+1, formatValue(top))
	d.Text(x0, y0+4, points[0].Date.String())
	if len(points) > 1 {
		d.Text(x0+plotW-14, y0+4, points[len(points)-1].Date.String())
	}
	d.SetXY(pdfMargin, y0+8)
}

func (d *pdfDoc) barChart(buckets []bucket) {
	x0, y0 := d.chartArea()
	plotW, plotH := d.width-16, pdfChartH-10

	top := 1
	for _, b := range buckets {
		top = max(top, b.count)
	}
	slot := plotW / float64(len(buckets))
	barW := slot / 3

	d.SetFillColor(colorBars.r, colorBars.g, colorBars.b)
	d.SetFont("Helvetica", "", 8)
	for i, b := range buckets {
		h := float64(b.count) / float64(top) * plotH
		bx := x0 + float64(i)*slot + (slot-barW)/2
		if h > 0 {
			d.Rect(bx, y0-h, barW, h, "F")
		}
		d.color(rgb{})
		d.Text(bx, y0-h-1.5, strconv.Itoa(b.count))
		d.color(colorMuted)
		d.Text(bx, y0+4, b.label)
	}
	d.SetXY(pdfMargin, y0+8)
}
