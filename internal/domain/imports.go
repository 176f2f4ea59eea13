package domain

import "encoding/json"

// ImportItem is one canonical sale line as the ledger's bulk endpoint takes
// it.
type ImportItem struct {
	ProductID int64  `json:"productId"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
}

// ImportRowError rejects one spreadsheet row. Row is 1-based and counts the
// header, so the first data row is 2.
type ImportRowError struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

const (
	ImportSucceeded = "success"
	ImportFailed    = "failed"
)

// ImportResult reports a sales import. Nothing is sent to the ledger when any
// row is rejected.
type ImportResult struct {
	Status         string           `json:"status"`
	TotalRows      int              `json:"total_rows"`
	ValidRows      int              `json:"valid_rows"`
	Imported       int              `json:"imported,omitempty"`
	Errors         []ImportRowError `json:"errors,omitempty"`
	LedgerResponse json.RawMessage  `json:"ledger_response,omitempty"`
}
