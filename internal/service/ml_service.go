package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesflow-analytics/internal/alert"
	"github.com/andresuchdata/salesflow-analytics/internal/analytics"
	"github.com/andresuchdata/salesflow-analytics/internal/cache"
	"github.com/andresuchdata/salesflow-analytics/internal/domain"
	"github.com/andresuchdata/salesflow-analytics/internal/ledger"
)

// HistoryLookbackDays bounds the series fed to the models: points dated
// before the latest observation minus this many days are ignored.
const HistoryLookbackDays = 90

// Notifier receives detected anomalies.
type Notifier interface {
	Notify(ctx context.Context, c alert.Context, anomalies []domain.Anomaly) int
}

// MLService serves forecasts and anomaly detection over sales history.
type MLService struct {
	source   ledger.Source
	cache    cache.Cache
	ttl      time.Duration
	notifier Notifier
}

func NewMLService(source ledger.Source, c cache.Cache, ttl time.Duration, notifier Notifier) *MLService {
	if c == nil {
		c = cache.NewNoop()
	}
	if ttl <= 0 {
		ttl = cache.DefaultAnalyticsTTL
	}
	return &MLService{source: source, cache: c, ttl: ttl, notifier: notifier}
}

// target is the product a PRODUCT request resolved to.
type target struct {
	sku     string
	name    string
	product *domain.Product
}

// resolve picks the series identifier: the sku as given, else the product
// named by name. A product_id lookup runs only when no product record has been
// resolved yet; its failure keeps whatever the earlier steps found.
func (s *MLService) resolve(ctx context.Context, token string, req domain.MLRequest) (target, error) {
	var t target
	if req.Scope != domain.ScopeProduct {
		return t, nil
	}

	switch {
	case req.SKU != "":
		t.sku = req.SKU
	case req.Name != "":
		p, err := s.source.ProductByName(ctx, token, req.Name)
		if err != nil {
			return t, err
		}
		t.product, t.sku, t.name = p, p.SKU, req.Name
	}

	if t.product == nil && req.ProductID != nil {
		p, err := s.source.ProductByID(ctx, token, *req.ProductID)
		if err != nil {
			log.Warn().Err(err).Int64("product_id", *req.ProductID).Str("sku", t.sku).
				Msg("ml: product_id lookup failed, keeping earlier resolution")
		} else {
			t.product, t.sku = p, p.SKU
		}
	}
	if t.name == "" && t.product != nil {
		t.name = t.product.Name
	}
	return t, nil
}

// loadSeries fetches and normalizes the history selected by req and t.
func (s *MLService) loadSeries(ctx context.Context, token string, scope domain.Scope, t target) (domain.Series, error) {
	var (
		rows []domain.RawObservation
		err  error
	)
	switch {
	case scope == domain.ScopeGlobal:
		if gs, ok := s.source.(ledger.GlobalSeriesSource); ok {
			rows, err = gs.GlobalSeries(ctx, token)
		} else {
			var sales []domain.Sale
			sales, err = s.source.SalesHistory(ctx, token)
			rows = ledger.FlattenSales(sales)
		}
	case t.sku != "":
		rows, err = s.source.SalesHistoryBySKU(ctx, token, t.sku)
	default:
		return domain.Series{}, domain.InvalidRequest("at least one of 'sku' or 'name' is required when scope=PRODUCT")
	}
	if err != nil {
		return domain.Series{}, err
	}
	if len(rows) == 0 {
		return domain.Series{}, domain.NotFound("No sales history found")
	}

	series, err := analytics.NormalizeSeries(rows)
	if err != nil {
		return domain.Series{}, err
	}
	if series.Dropped > 0 {
		log.Debug().Int("dropped", series.Dropped).Int("rows", len(rows)).Msg("ml: dropped unusable observations")
	}
	return series.Since(series.Last().Date.AddDays(-HistoryLookbackDays)), nil
}

// identifier is the cache discriminator: the resolved sku, else the name,
// else "global".
func (t target) identifier() string {
	switch {
	case t.sku != "":
		return t.sku
	case t.name != "":
		return t.name
	default:
		return "global"
	}
}

func optionalSKU(t target) *string {
	if t.sku == "" {
		return nil
	}
	sku := t.sku
	return &sku
}

// Forecast projects daily quantities forecast_days ahead.
func (s *MLService) Forecast(ctx context.Context, token string, req domain.ForecastRequest) (*domain.ForecastResult, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	t, err := s.resolve(ctx, token, req.MLRequest)
	if err != nil {
		return nil, err
	}
	key := cache.ForecastKey(req.Scope, t.identifier(), req.ForecastDays, req.Period)
	if hit, ok := cached[domain.ForecastResult](ctx, s.cache, key); ok {
		hit.ProductID, hit.ProductSKU, hit.Product = req.ProductID, optionalSKU(t), domain.ProductInfoOf(t.product)
		return hit, nil
	}

	series, err := s.loadSeries(ctx, token, req.Scope, t)
	if err != nil {
		return nil, err
	}
	fc, err := analytics.ForecastSeries(series, req.ForecastDays)
	if err != nil {
		return nil, err
	}
	fc.Summary.PeriodLabel = string(req.Period)

	result := &domain.ForecastResult{
		Scope:       req.Scope,
		ProductID:   req.ProductID,
		ProductSKU:  optionalSKU(t),
		Dates:       fc.Dates,
		Predictions: fc.Predictions,
		Summary:     fc.Summary,
		Product:     domain.ProductInfoOf(t.product),
	}
	store(ctx, s.cache, key, result, s.ttl)
	return result, nil
}

// Anomalies flags days whose z-score magnitude reaches the threshold and
// offers each one to the alert notifier before returning.
func (s *MLService) Anomalies(ctx context.Context, token string, req domain.AnomalyRequest) (*domain.AnomalyResult, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	t, err := s.resolve(ctx, token, req.MLRequest)
	if err != nil {
		return nil, err
	}
	key := cache.AnomaliesKey(req.Scope, t.identifier(), req.Period)
	if hit, ok := cached[domain.AnomalyResult](ctx, s.cache, key); ok {
		hit.ProductID, hit.ProductSKU, hit.Product = req.ProductID, optionalSKU(t), domain.ProductInfoOf(t.product)
		return hit, nil
	}

	series, err := s.loadSeries(ctx, token, req.Scope, t)
	if err != nil {
		return nil, err
	}
	found := analytics.DetectAnomalies(series)

	result := &domain.AnomalyResult{
		Scope:      req.Scope,
		ProductID:  req.ProductID,
		ProductSKU: optionalSKU(t),
		Period:     req.Period,
		Count:      len(found),
		Anomalies:  found,
		Product:    domain.ProductInfoOf(t.product),
	}

	if s.notifier != nil && len(found) > 0 {
		s.notifier.Notify(ctx, alert.Context{
			Scope:  req.Scope,
			SKU:    t.sku,
			Name:   t.name,
			Period: req.Period,
		}, found)
	}

	store(ctx, s.cache, key, result, s.ttl)
	return result, nil
}

// IsNoHistory reports whether err means the selected series has no data.
func IsNoHistory(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInsufficientData)
}
