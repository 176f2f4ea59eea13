package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/ledger"
)

// stub serves a ledger.Source with the ledger REST API's routes and payloads.
type stub struct {
	src          ledger.Source
	requireToken bool
}

type wireObservation struct {
	Date     string `json:"date"`
	Quantity string `json:"quantity"`
}

func newRouter(src ledger.Source, requireToken bool) *mux.Router {
	s := &stub{src: src, requireToken: requireToken}

	r := mux.NewRouter().UseEncodedPath()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.auth)
	api.HandleFunc("/products", s.listProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/low-stock", s.lowStock).Methods(http.MethodGet)
	api.HandleFunc("/products/by-id/{id}", s.productByID).Methods(http.MethodGet)
	api.HandleFunc("/products/by-sku/{sku}", s.productBySKU).Methods(http.MethodGet)
	api.HandleFunc("/products/by-name/{name}", s.productByName).Methods(http.MethodGet)
	api.HandleFunc("/sales/history", s.salesHistory).Methods(http.MethodGet)
	api.HandleFunc("/sales/recent", s.recentSales).Methods(http.MethodGet)
	api.HandleFunc("/sales/history/by-sku/{sku}", s.historyBySKU).Methods(http.MethodGet)
	api.HandleFunc("/sales/history/by-name/{name}", s.historyByName).Methods(http.MethodGet)
	return r
}

func (s *stub) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.requireToken && !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func token(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func pathVar(r *http.Request, name string) string {
	raw := mux.Vars(r)[name]
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("ledger-stub: encode response")
	}
}

func writeResult(w http.ResponseWriter, v any, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, v)
	case domain.KindOf(err) == domain.KindNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": domain.MessageOf(err)})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func observations(rows []domain.RawObservation) []wireObservation {
	out := make([]wireObservation, len(rows))
	for i, row := range rows {
		out[i] = wireObservation{Date: row.Date, Quantity: row.Quantity}
	}
	return out
}

func (s *stub) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.src.ListProducts(r.Context(), token(r))
	writeResult(w, products, err)
}

func (s *stub) lowStock(w http.ResponseWriter, r *http.Request) {
	products, err := s.src.LowStockProducts(r.Context(), token(r))
	if products == nil {
		products = []domain.Product{}
	}
	writeResult(w, products, err)
}

func (s *stub) productByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(pathVar(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	p, err := s.src.ProductByID(r.Context(), token(r), id)
	writeResult(w, p, err)
}

func (s *stub) productBySKU(w http.ResponseWriter, r *http.Request) {
	p, err := s.src.ProductBySKU(r.Context(), token(r), pathVar(r, "sku"))
	writeResult(w, p, err)
}

func (s *stub) productByName(w http.ResponseWriter, r *http.Request) {
	p, err := s.src.ProductByName(r.Context(), token(r), pathVar(r, "name"))
	writeResult(w, p, err)
}

// Sales are wrapped in a page object the way the ledger paginates them.
func (s *stub) salesHistory(w http.ResponseWriter, r *http.Request) {
	sales, err := s.src.SalesHistory(r.Context(), token(r))
	writeResult(w, map[string]any{"content": sales, "totalElements": len(sales)}, err)
}

func (s *stub) recentSales(w http.ResponseWriter, r *http.Request) {
	sales, err := s.src.RecentSales(r.Context(), token(r))
	writeResult(w, sales, err)
}

func (s *stub) historyBySKU(w http.ResponseWriter, r *http.Request) {
	rows, err := s.src.SalesHistoryBySKU(r.Context(), token(r), pathVar(r, "sku"))
	writeResult(w, observations(rows), err)
}

func (s *stub) historyByName(w http.ResponseWriter, r *http.Request) {
	rows, err := s.src.SalesHistoryByName(r.Context(), token(r), pathVar(r, "name"))
	writeResult(w, observations(rows), err)
}
