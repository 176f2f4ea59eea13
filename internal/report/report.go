// Package report renders analytics results into downloadable workbooks and
// keeps an archive of scheduled ones.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

type Type string

const (
	TypeSales    Type = "sales"
	TypeStock    Type = "stock"
	TypeCombined Type = "combined"
)

type Format string

const (
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

const (
	ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	PDFContentType   = "application/pdf"
	timestampLayout  = "2006-01-02_15-04-05"
)

func ParseType(value string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(value))); t {
	case TypeSales, TypeStock, TypeCombined:
		return t, nil
	default:
		return "", domain.InvalidRequest("unsupported report type %q (expected sales, stock or combined)", value)
	}
}

// ParseFormat accepts "excel" (the default) or "pdf".
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "", FormatExcel:
		return FormatExcel, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", domain.InvalidRequest("unsupported report format %q", value)
	}
}

// IncludesStock reports whether the workbook carries the stock sections.
func (t Type) IncludesStock() bool {
	return t == TypeStock || t == TypeCombined
}

func (f Format) Extension() string {
	if f == FormatPDF {
		return "pdf"
	}
	return "xlsx"
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return PDFContentType
	}
	return ExcelContentType
}

// Render produces the document body in format f.
func Render(f Format, in Input) ([]byte, error) {
	if f == FormatPDF {
		return BuildPDF(in)
	}
	return BuildWorkbook(in)
}

// Filename is analytics_{type}_{period}_{timestamp}.{ext}.
func Filename(t Type, f Format, period domain.Period, at time.Time) string {
	return fmt.Sprintf("analytics_%s_%s_%s.%s", t, period, at.Format(timestampLayout), f.Extension())
}

// Document is a rendered report.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}
