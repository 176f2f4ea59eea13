package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salesflow-analytics/internal/config"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

func testRunner(t *testing.T) (*runner, *bytes.Buffer) {
	t.Helper()
	archive := t.TempDir()
	out := &bytes.Buffer{}
	return &runner{
		out: out,
		load: func() *config.Config {
			return &config.Config{
				Ledger: config.LedgerConfig{Source: "http", BaseURL: "http://ledger.invalid"},
				Cache:  config.CacheConfig{Driver: "none"},
				Alert:  config.AlertConfig{Sinks: []string{"log"}},
				Report: config.ReportConfig{Storage: "local", Dir: archive},
			}
		},
	}, out
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	r, out := testRunner(t)
	err := r.cli().Run(append([]string{"analytics", "--dev"}, args...))
	return out.String(), err
}

func TestStockCommand(t *testing.T) {
	out, err := run(t, "stock", "--period", "weekly")
	require.NoError(t, err)

	var res domain.StockAnalytics
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, domain.PeriodWeekly, res.Period)
	assert.Equal(t, 1, res.KPIs.OutOfStockCount)
}

func TestForecastCommand(t *testing.T) {
	out, err := run(t, "forecast", "--scope", "PRODUCT", "--sku", "MILK-001", "--days", "3", "--product-id", "1")
	require.NoError(t, err)

	var res domain.ForecastResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Predictions, 3)
	require.NotNil(t, res.ProductID)
	assert.Equal(t, int64(1), *res.ProductID)
	require.NotNil(t, res.Product)
	assert.Equal(t, "Milk", res.Product.Name)
}

func TestForecastCommandValidation(t *testing.T) {
	_, err := run(t, "forecast", "--scope", "PRODUCT")
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
}

func TestAnomaliesCommand(t *testing.T) {
	out, err := run(t, "anomalies")
	require.NoError(t, err)

	var res domain.AnomalyResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, domain.ScopeGlobal, res.Scope)
}

func TestReportAndDownloadCommands(t *testing.T) {
	r, out := testRunner(t)
	dir := t.TempDir()

	_, err := run(t, "download", "--type", "stock", "--out", dir)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	err = r.cli().Run([]string{"analytics", "--dev", "report", "--type", "stock", "--out", dir, "--archive"})
	require.NoError(t, err)
	written := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(filepath.Base(written), "analytics_stock_monthly_"))
	info, err := os.Stat(written)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	out.Reset()
	downloads := t.TempDir()
	err = r.cli().Run([]string{"analytics", "--dev", "download", "--type", "stock", "--out", downloads})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(downloads, filepath.Base(written)), strings.TrimSpace(out.String()))
}

func TestReportCommandPDF(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "report", "--type", "combined", "--format", "pdf", "--out", dir)
	require.NoError(t, err)

	written := strings.TrimSpace(out)
	assert.Equal(t, ".pdf", filepath.Ext(written))
	content, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestImportSalesCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(good, []byte("sku,quantity\nMILK-001,2\n"), 0o644))

	out, err := run(t, "import-sales", "--file", good)
	require.NoError(t, err)
	var res domain.ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, domain.ImportSucceeded, res.Status)
	assert.Equal(t, 1, res.Imported)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("sku,quantity\nGHOST,2\n"), 0o644))
	out, err = run(t, "import-sales", "--file", bad)
	assert.ErrorContains(t, err, "1 rows rejected")
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, domain.ImportFailed, res.Status)
}
