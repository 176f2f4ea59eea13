package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/salesflow-analytics/internal/app"
	"github.com/andresuchdata/salesflow-analytics/internal/config"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/report"
	"github.com/andresuchdata/salesflow-analytics/internal/service"
	"github.com/andresuchdata/salesflow-analytics/pkg/logger"
)

type runner struct {
	out  io.Writer
	load func() *config.Config
	app  *app.App
}

func main() {
	r := &runner{out: os.Stdout, load: config.Load}
	if err := r.cli().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func periodFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{Name: "period", Usage: "daily, weekly, monthly or quarterly", Value: value}
}

func selectorFlags() []cli.Flag {
	return []cli.Flag{
		periodFlag("daily"),
		&cli.StringFlag{Name: "scope", Usage: "GLOBAL or PRODUCT", Value: string(domain.ScopeGlobal)},
		&cli.StringFlag{Name: "sku", Usage: "Product SKU (PRODUCT scope)"},
		&cli.StringFlag{Name: "name", Usage: "Product name (PRODUCT scope)"},
		&cli.Int64Flag{Name: "product-id", Usage: "Product id carried into the result"},
	}
}

func (r *runner) cli() *cli.App {
	return &cli.App{
		Name:  "analytics",
		Usage: "Run SalesFlow analytics one-shot against the configured ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Bearer token forwarded to the ledger",
				EnvVars: []string{"SYSTEM_JWT_TOKEN"},
			},
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "Use the development data set instead of the ledger",
			},
		},
		Before: r.setup,
		After:  r.teardown,
		Commands: []*cli.Command{
			{
				Name:   "stock",
				Usage:  "Stock health KPIs and critical products",
				Flags:  []cli.Flag{periodFlag("daily")},
				Action: r.stock,
			},
			{
				Name:  "sales",
				Usage: "Sales KPIs and daily points",
				Flags: []cli.Flag{
					periodFlag("daily"),
					&cli.StringFlag{Name: "start", Usage: "Start date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "end", Usage: "End date (YYYY-MM-DD)"},
				},
				Action: r.sales,
			},
			{
				Name:  "forecast",
				Usage: "Linear trend forecast of daily quantities",
				Flags: append(selectorFlags(),
					&cli.IntFlag{Name: "days", Usage: "Forecast horizon in days", Value: domain.DefaultForecastDays},
				),
				Action: r.forecast,
			},
			{
				Name:   "anomalies",
				Usage:  "Z-score anomaly detection; alerts go to the configured sinks",
				Flags:  selectorFlags(),
				Action: r.anomalies,
			},
			{
				Name:  "report",
				Usage: "Render an analytics workbook or PDF",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "sales, stock or combined", Value: string(report.TypeSales)},
					&cli.StringFlag{Name: "format", Usage: "excel or pdf", Value: string(report.FormatExcel)},
					periodFlag("monthly"),
					&cli.StringFlag{Name: "out", Usage: "Output directory", Value: "."},
					&cli.BoolFlag{Name: "archive", Usage: "Also save the workbook to the report archive"},
				},
				Action: r.report,
			},
			{
				Name:  "download",
				Usage: "Download the newest archived report",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "sales, stock or combined", Value: string(report.TypeSales)},
					&cli.StringFlag{Name: "format", Usage: "excel or pdf", Value: string(report.FormatExcel)},
					&cli.StringFlag{Name: "out", Usage: "Output directory", Value: "./data/tmp/reports"},
				},
				Action: r.download,
			},
			{
				Name:  "import-sales",
				Usage: "Import a .csv or .xlsx sales sheet into the ledger",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Usage: "Path to the sales sheet", Required: true},
				},
				Action: r.importSales,
			},
		},
	}
}

func (r *runner) setup(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return nil
	}
	cfg := *r.load()
	if c.Bool("dev") {
		cfg.App.DevMode = true
		cfg.Ledger.Source = "mock"
	}
	logger.SetLevel(cfg.Log.Level)

	a, err := app.Build(c.Context, &cfg)
	if err != nil {
		return err
	}
	r.app = a
	return nil
}

func (r *runner) teardown(*cli.Context) error {
	if r.app == nil {
		return nil
	}
	return r.app.Close()
}

func (r *runner) printJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func mlRequest(c *cli.Context) domain.MLRequest {
	req := domain.MLRequest{
		Scope:  domain.Scope(c.String("scope")),
		SKU:    c.String("sku"),
		Name:   c.String("name"),
		Period: domain.Period(c.String("period")),
	}
	if c.IsSet("product-id") {
		id := c.Int64("product-id")
		req.ProductID = &id
	}
	return req
}

func (r *runner) stock(c *cli.Context) error {
	period, err := domain.ParsePeriod(c.String("period"), domain.PeriodDaily)
	if err != nil {
		return err
	}
	res, err := r.app.Analytics.StockHealth(c.Context, c.String("token"), period)
	if err != nil {
		return err
	}
	return r.printJSON(res)
}

func (r *runner) sales(c *cli.Context) error {
	q, err := service.ParseSalesQuery(c.String("period"), c.String("start"), c.String("end"))
	if err != nil {
		return err
	}
	res, err := r.app.Analytics.Sales(c.Context, c.String("token"), q)
	if err != nil {
		return err
	}
	return r.printJSON(res)
}

func (r *runner) forecast(c *cli.Context) error {
	res, err := r.app.ML.Forecast(c.Context, c.String("token"), domain.ForecastRequest{
		MLRequest:    mlRequest(c),
		ForecastDays: c.Int("days"),
	})
	if err != nil {
		return err
	}
	return r.printJSON(res)
}

func (r *runner) anomalies(c *cli.Context) error {
	res, err := r.app.ML.Anomalies(c.Context, c.String("token"), domain.AnomalyRequest{MLRequest: mlRequest(c)})
	if err != nil {
		return err
	}
	return r.printJSON(res)
}

func (r *runner) report(c *cli.Context) error {
	t, err := report.ParseType(c.String("type"))
	if err != nil {
		return err
	}
	f, err := report.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}
	period, err := domain.ParsePeriod(c.String("period"), domain.PeriodMonthly)
	if err != nil {
		return err
	}

	req := service.ReportRequest{Type: t, Format: f, Period: period}
	generate := r.app.Reports.Generate
	if c.Bool("archive") {
		generate = r.app.Reports.GenerateAndArchive
	}
	doc, err := generate(c.Context, c.String("token"), req)
	if err != nil {
		return err
	}
	return r.writeDocument(c.String("out"), doc)
}

func (r *runner) download(c *cli.Context) error {
	t, err := report.ParseType(c.String("type"))
	if err != nil {
		return err
	}
	f, err := report.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}
	doc, err := r.app.Reports.Latest(c.Context, t, f)
	if err != nil {
		return err
	}
	return r.writeDocument(c.String("out"), doc)
}

func (r *runner) importSales(c *cli.Context) error {
	path := c.String("file")
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	res, err := r.app.Imports.ImportSales(c.Context, c.String("token"), filepath.Base(path), content)
	if err != nil {
		return err
	}
	if err := r.printJSON(res); err != nil {
		return err
	}
	if res.Status == domain.ImportFailed {
		return fmt.Errorf("%d rows rejected, nothing imported", len(res.Errors))
	}
	return nil
}

func (r *runner) writeDocument(dir string, doc *report.Document) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure output dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, doc.Filename)
	if err := os.WriteFile(path, doc.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintln(r.out, path)
	return nil
}
