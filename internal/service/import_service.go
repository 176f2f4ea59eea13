package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesflow-analytics/internal/cache"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/importer"
	"github.com/andresuchdata/salesflow-analytics/internal/ledger"
)

// ImportService loads sales spreadsheets into the ledger.
type ImportService struct {
	source ledger.Source
	writer ledger.SalesWriter
	cache  cache.Cache
}

// NewImportService builds the service. writer may be nil for read-only
// ledger sources, in which case every import is refused.
func NewImportService(source ledger.Source, writer ledger.SalesWriter, c cache.Cache) *ImportService {
	if c == nil {
		c = cache.NewNoop()
	}
	return &ImportService{source: source, writer: writer, cache: c}
}

// ImportSales parses the upload, resolves every row against the ledger
// catalog and posts the canonical items in one bulk call. A file with any
// rejected row is reported back without writing anything.
func (s *ImportService) ImportSales(ctx context.Context, token, filename string, content []byte) (*domain.ImportResult, error) {
	if s.writer == nil {
		return nil, domain.InvalidRequest("the configured ledger source does not accept sales imports")
	}
	rows, err := importer.ReadRows(filename, content)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.InvalidRequest("No valid sales found in uploaded file")
	}
	res := &domain.ImportResult{TotalRows: len(rows)}

	products, err := s.source.ListProducts(ctx, token)
	if err != nil {
		return nil, err
	}
	items, rowErrs := importer.Canonicalize(rows, importer.NewCatalog(products))
	res.ValidRows = len(items)
	if len(rowErrs) > 0 {
		res.Status = domain.ImportFailed
		res.Errors = rowErrs
		log.Warn().Str("filename", filename).Int("rejected", len(rowErrs)).Int("total_rows", res.TotalRows).Msg("import: upload rejected")
		return res, nil
	}

	reply, err := s.writer.CreateBulkSales(ctx, token, items)
	if err != nil {
		return nil, err
	}
	res.Status = domain.ImportSucceeded
	res.Imported = len(items)
	res.LedgerResponse = reply

	for _, prefix := range []string{cache.AnalyticsPrefix, cache.MLPrefix} {
		if err := s.cache.DeletePrefix(ctx, prefix); err != nil {
			log.Warn().Err(err).Str("prefix", prefix).Msg("import: cache invalidation failed")
		}
	}
	log.Info().Str("filename", filename).Int("imported", res.Imported).Msg("import: sales imported")
	return res, nil
}
