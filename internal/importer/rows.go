// Package importer turns uploaded sales spreadsheets into the canonical
// sale lines the ledger accepts in bulk.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

// Row maps normalized header names to cell text.
type Row map[string]string

var headerAliases = map[string]string{
	"productid":    "product_id",
	"product_name": "name",
	"qty":          "quantity",
}

// NormalizeHeader lowercases h and turns spaces and hyphens into
// underscores, so "Product ID" and "product-id" both read as product_id.
func NormalizeHeader(h string) string {
	n := strings.ToLower(strings.TrimSpace(h))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	if alias, ok := headerAliases[n]; ok {
		return alias
	}
	return n
}

// ReadRows parses a .csv upload, or the first sheet of any other file as
// xlsx. The first row is the header; rows with no values are skipped.
func ReadRows(filename string, content []byte) ([]Row, error) {
	if len(content) == 0 {
		return nil, domain.InvalidRequest("Empty file")
	}

	var (
		records [][]string
		err     error
	)
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		records, err = csvRecords(content)
	} else {
		records, err = xlsxRecords(content)
	}
	if err != nil {
		return nil, domain.InvalidRequest("unreadable upload %s: %v", filename, err)
	}
	return toRows(records), nil
}

func csvRecords(content []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

func xlsxRecords(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from sheet %s: %w", sheet, err)
		}
		records = append(records, record)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}
	return records, nil
}

func toRows(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = NormalizeHeader(h)
	}

	var rows []Row
	for _, record := range records[1:] {
		row := make(Row, len(header))
		blank := true
		for i, key := range header {
			if key == "" || i >= len(record) {
				continue
			}
			v := strings.TrimSpace(record[i])
			row[key] = v
			if v != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}
