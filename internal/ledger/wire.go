package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

// flexNumber accepts a JSON number, a numeric string, or null.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*n = flexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = flexNumber(v)
	return nil
}

// rawText keeps a scalar's textual form: strings are unquoted, numbers keep
// their literal, null becomes "". Coercion is left to the normalizer.
type rawText string

func (t *rawText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = rawText(s)
	default:
		*t = rawText(data)
	}
	return nil
}

// WireProduct is the ledger's product payload.
type WireProduct struct {
	ID                flexNumber `json:"id"`
	Name              string     `json:"name"`
	SKU               string     `json:"sku"`
	Price             flexNumber `json:"price"`
	StockQuantity     flexNumber `json:"stockQuantity"`
	LowStockThreshold flexNumber `json:"lowStockThreshold"`
	Description       *string    `json:"description"`
	ImageURL          *string    `json:"imageUrl"`
}

type WireSaleItem struct {
	ProductID   flexNumber `json:"productId"`
	ProductName string     `json:"productName"`
	SKU         string     `json:"sku"`
	Quantity    flexNumber `json:"quantity"`
	UnitPrice   flexNumber `json:"unitPrice"`
	Subtotal    flexNumber `json:"subtotal"`
}

// WireSale is the ledger's sale payload. SaleDate may carry a time part.
type WireSale struct {
	ID          flexNumber     `json:"id"`
	SaleDate    string         `json:"saleDate"`
	TotalAmount flexNumber     `json:"totalAmount"`
	Items       []WireSaleItem `json:"items"`
}

// WireObservation is one row of a flat per-product sales history.
type WireObservation struct {
	Date     rawText `json:"date"`
	Quantity rawText `json:"quantity"`
}

func ProductFromWire(w WireProduct) domain.Product {
	p := domain.Product{
		ID:                int64(w.ID),
		Name:              w.Name,
		SKU:               w.SKU,
		Price:             float64(w.Price),
		StockQuantity:     float64(w.StockQuantity),
		LowStockThreshold: float64(w.LowStockThreshold),
	}
	if w.Description != nil {
		p.Description = *w.Description
	}
	if w.ImageURL != nil {
		p.ImageURL = *w.ImageURL
	}
	return p
}

// SaleFromWire fails only when the sale date is missing or unreadable.
func SaleFromWire(w WireSale) (domain.Sale, error) {
	date, err := domain.ParseDate(w.SaleDate)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("sale %d: %w", int64(w.ID), err)
	}
	sale := domain.Sale{
		ID:          int64(w.ID),
		Date:        date,
		TotalAmount: float64(w.TotalAmount),
		Items:       make([]domain.SaleItem, 0, len(w.Items)),
	}
	for _, it := range w.Items {
		sale.Items = append(sale.Items, domain.SaleItem{
			ProductID:   int64(it.ProductID),
			ProductName: it.ProductName,
			SKU:         it.SKU,
			Quantity:    float64(it.Quantity),
			UnitPrice:   float64(it.UnitPrice),
			Subtotal:    float64(it.Subtotal),
		})
	}
	return sale, nil
}

func ObservationFromWire(w WireObservation) domain.RawObservation {
	return domain.RawObservation{Date: string(w.Date), Quantity: string(w.Quantity)}
}

// unwrapRecords returns the record list carried by a ledger payload. Arrays
// are used as is; objects are searched for the first listed key holding an
// array and otherwise treated as a single record.
func unwrapRecords(body []byte, keys ...string) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	switch body[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, err
		}
		return list, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, err
		}
		for _, key := range keys {
			raw, ok := obj[key]
			if !ok {
				continue
			}
			raw = bytes.TrimSpace(raw)
			if len(raw) == 0 || raw[0] != '[' {
				continue
			}
			var list []json.RawMessage
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, err
			}
			return list, nil
		}
		return []json.RawMessage{body}, nil
	default:
		return nil, fmt.Errorf("unexpected payload starting with %q", body[0])
	}
}

var (
	productKeys = []string{"data", "content", "items", "result"}
	salesKeys   = []string{"data", "sales", "content", "items", "result"}
)

// decoded is a payload's usable records plus how many were dropped as
// unreadable. A payload whose every record was dropped is an error.
type decoded[T any] struct {
	records []T
	dropped int
}

func decodeEach[T any](body []byte, keys []string, decode func(json.RawMessage) (T, error)) (decoded[T], error) {
	raws, err := unwrapRecords(body, keys...)
	if err != nil {
		return decoded[T]{}, err
	}
	out := decoded[T]{records: make([]T, 0, len(raws))}
	var lastErr error
	for _, raw := range raws {
		rec, err := decode(raw)
		if err != nil {
			out.dropped++
			lastErr = err
			continue
		}
		out.records = append(out.records, rec)
	}
	if len(out.records) == 0 && lastErr != nil {
		return out, fmt.Errorf("all %d records unreadable, last: %w", out.dropped, lastErr)
	}
	return out, nil
}

func decodeProducts(body []byte) (decoded[domain.Product], error) {
	return decodeEach(body, productKeys, func(raw json.RawMessage) (domain.Product, error) {
		var w WireProduct
		if err := json.Unmarshal(raw, &w); err != nil {
			return domain.Product{}, fmt.Errorf("decode product: %w", err)
		}
		return ProductFromWire(w), nil
	})
}

// wireSaleRecord holds items undecoded so one bad line drops only itself.
type wireSaleRecord struct {
	ID          flexNumber        `json:"id"`
	SaleDate    string            `json:"saleDate"`
	TotalAmount flexNumber        `json:"totalAmount"`
	Items       []json.RawMessage `json:"items"`
}

// decodeSales drops unreadable sales and unreadable line items. Dropped
// items are counted with the sales.
func decodeSales(body []byte) (decoded[domain.Sale], error) {
	var droppedItems int
	out, err := decodeEach(body, salesKeys, func(raw json.RawMessage) (domain.Sale, error) {
		var rec wireSaleRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return domain.Sale{}, fmt.Errorf("decode sale: %w", err)
		}
		w := WireSale{ID: rec.ID, SaleDate: rec.SaleDate, TotalAmount: rec.TotalAmount, Items: make([]WireSaleItem, 0, len(rec.Items))}
		bad := 0
		for _, rawItem := range rec.Items {
			var item WireSaleItem
			if err := json.Unmarshal(rawItem, &item); err != nil {
				bad++
				continue
			}
			w.Items = append(w.Items, item)
		}
		sale, err := SaleFromWire(w)
		if err == nil {
			droppedItems += bad
		}
		return sale, err
	})
	out.dropped += droppedItems
	return out, err
}

func decodeObservations(body []byte) (decoded[domain.RawObservation], error) {
	return decodeEach(body, salesKeys, func(raw json.RawMessage) (domain.RawObservation, error) {
		var w WireObservation
		if err := json.Unmarshal(raw, &w); err != nil {
			return domain.RawObservation{}, fmt.Errorf("decode sales history row: %w", err)
		}
		return ObservationFromWire(w), nil
	})
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
