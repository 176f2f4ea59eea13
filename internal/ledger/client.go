package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
	defaultMaxBackoff  = 4 * time.Second
	maxErrorBody       = 512
)

// Recorder receives one observation per HTTP attempt.
type Recorder interface {
	LedgerRequest(endpoint string, duration time.Duration, success bool)
}

// Client talks to the ledger's REST API.
type Client struct {
	base        string
	h           *http.Client
	maxAttempts int
	backoffBase time.Duration
	maxBackoff  time.Duration
	recorder    Recorder
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.h = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.h.Timeout = d
		}
	}
}

// WithRetry sets the attempt budget and the linear backoff schedule.
func WithRetry(attempts int, base, maxWait time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
		if base >= 0 {
			c.backoffBase = base
		}
		if maxWait > 0 {
			c.maxBackoff = maxWait
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

func New(base string, opts ...Option) *Client {
	c := &Client{
		base:        strings.TrimRight(base, "/"),
		h:           &http.Client{Timeout: defaultTimeout},
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		maxBackoff:  defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// statusError is a non-2xx ledger response.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("ledger returned %d", e.status)
	}
	return fmt.Sprintf("ledger returned %d: %s", e.status, e.body)
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.backoffBase * time.Duration(attempt)
	if d > c.maxBackoff {
		d = c.maxBackoff
	}
	return d
}

// linearBackOff is a backoff.BackOff that waits step(n) before retry n.
type linearBackOff struct {
	step    func(attempt int) time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.step(b.attempt)
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// get fetches path, retrying transport failures and 5xx/429 responses.
// route is the path template used as the metrics label. A 404 becomes
// NotFound when lookup is set; per-product endpoints set it.
func (c *Client) get(ctx context.Context, token, route, path string, lookup bool) ([]byte, error) {
	target := c.base + path

	var body []byte
	op := func() error {
		var err error
		body, err = c.do(ctx, token, route, target)
		if err == nil {
			return nil
		}
		var se *statusError
		if errors.As(err, &se) {
			if se.status == http.StatusNotFound && lookup {
				return backoff.Permanent(domain.NotFound("ledger has no record at %s", path))
			}
			if !retryableStatus(se.status) {
				return backoff.Permanent(domain.UpstreamUnavailable(err, "ledger GET %s", path))
			}
		}
		if ctx.Err() != nil {
			return backoff.Permanent(domain.UpstreamUnavailable(ctx.Err(), "ledger GET %s", path))
		}
		return err
	}

	attempt := 0
	notify := func(err error, wait time.Duration) {
		attempt++
		log.Warn().Err(err).Str("url", target).Int("attempt", attempt).Dur("backoff", wait).Msg("ledger: request failed, retrying")
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: c.backoff}, uint64(c.maxAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(op, policy, notify)
	if err == nil {
		return body, nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, domain.UpstreamUnavailable(ctx.Err(), "ledger GET %s", path)
	}
	return nil, domain.UpstreamUnavailable(err, "ledger GET %s failed after %d attempts", path, c.maxAttempts)
}

func (c *Client) do(ctx context.Context, token, route, target string) ([]byte, error) {
	return c.send(ctx, token, route, http.MethodGet, target, nil)
}

func (c *Client) send(ctx context.Context, token, route, method, target string, payload []byte) ([]byte, error) {
	start := time.Now()
	body, err := c.doOnce(ctx, token, method, target, payload)
	if c.recorder != nil {
		c.recorder.LedgerRequest(route, time.Since(start), err == nil)
	}
	return body, err
}

func (c *Client) doOnce(ctx context.Context, token, method, target string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(b))}
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) ListProducts(ctx context.Context, token string) ([]domain.Product, error) {
	return c.products(ctx, token, "/products", "/products")
}

func (c *Client) LowStockProducts(ctx context.Context, token string) ([]domain.Product, error) {
	return c.products(ctx, token, "/products/low-stock", "/products/low-stock")
}

func (c *Client) ProductByID(ctx context.Context, token string, id int64) (*domain.Product, error) {
	return c.product(ctx, token, "/products/by-id/{id}", "/products/by-id/"+strconv.FormatInt(id, 10))
}

func (c *Client) ProductBySKU(ctx context.Context, token string, sku string) (*domain.Product, error) {
	return c.product(ctx, token, "/products/by-sku/{sku}", "/products/by-sku/"+url.PathEscape(sku))
}

func (c *Client) ProductByName(ctx context.Context, token string, name string) (*domain.Product, error) {
	return c.product(ctx, token, "/products/by-name/{name}", "/products/by-name/"+url.PathEscape(name))
}

func (c *Client) SalesHistory(ctx context.Context, token string) ([]domain.Sale, error) {
	return c.sales(ctx, token, "/sales/history")
}

func (c *Client) RecentSales(ctx context.Context, token string) ([]domain.Sale, error) {
	return c.sales(ctx, token, "/sales/recent")
}

func (c *Client) SalesHistoryBySKU(ctx context.Context, token string, sku string) ([]domain.RawObservation, error) {
	return c.observations(ctx, token, "/sales/history/by-sku/{sku}", "/sales/history/by-sku/"+url.PathEscape(sku))
}

func (c *Client) SalesHistoryByName(ctx context.Context, token string, name string) ([]domain.RawObservation, error) {
	return c.observations(ctx, token, "/sales/history/by-name/{name}", "/sales/history/by-name/"+url.PathEscape(name))
}

func (c *Client) products(ctx context.Context, token, route, path string) ([]domain.Product, error) {
	body, err := c.get(ctx, token, route, path, false)
	if err != nil {
		return nil, err
	}
	products, err := decodeProducts(body)
	if err != nil {
		return nil, domain.UpstreamUnavailable(err, "ledger GET %s: unreadable payload", path)
	}
	logDropped(path, products.dropped)
	return products.records, nil
}

func (c *Client) product(ctx context.Context, token, route, path string) (*domain.Product, error) {
	body, err := c.get(ctx, token, route, path, true)
	if err != nil {
		return nil, err
	}
	products, err := decodeProducts(body)
	if err != nil {
		return nil, domain.UpstreamUnavailable(err, "ledger GET %s: unreadable payload", path)
	}
	if len(products.records) == 0 {
		return nil, domain.NotFound("ledger has no record at %s", path)
	}
	return &products.records[0], nil
}

func (c *Client) sales(ctx context.Context, token, path string) ([]domain.Sale, error) {
	body, err := c.get(ctx, token, path, path, false)
	if err != nil {
		return nil, err
	}
	sales, err := decodeSales(body)
	if err != nil {
		return nil, domain.UpstreamUnavailable(err, "ledger GET %s: unreadable payload", path)
	}
	logDropped(path, sales.dropped)
	return sales.records, nil
}

func (c *Client) observations(ctx context.Context, token, route, path string) ([]domain.RawObservation, error) {
	body, err := c.get(ctx, token, route, path, true)
	if err != nil {
		return nil, err
	}
	rows, err := decodeObservations(body)
	if err != nil {
		return nil, domain.UpstreamUnavailable(err, "ledger GET %s: unreadable payload", path)
	}
	logDropped(path, rows.dropped)
	return rows.records, nil
}

type bulkSale struct {
	Items []domain.ImportItem `json:"items"`
}

// CreateBulkSales posts one single-line sale per item to /sales/bulk. The
// write is not retried.
func (c *Client) CreateBulkSales(ctx context.Context, token string, items []domain.ImportItem) (json.RawMessage, error) {
	const path = "/sales/bulk"
	sales := make([]bulkSale, len(items))
	for i, item := range items {
		sales[i] = bulkSale{Items: []domain.ImportItem{item}}
	}
	payload, err := json.Marshal(sales)
	if err != nil {
		return nil, domain.SerializationFailure(err, "encode bulk sales")
	}

	body, err := c.send(ctx, token, path, http.MethodPost, c.base+path, payload)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status >= 400 && se.status < 500 {
			return nil, domain.InvalidRequest("ledger rejected bulk sales: %v", err)
		}
		return nil, domain.UpstreamUnavailable(err, "ledger POST %s", path)
	}
	return bulkResponse(body), nil
}

// bulkResponse keeps a JSON reply as is and quotes a plain-text one.
func bulkResponse(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(string(trimmed))
	return quoted
}

func logDropped(path string, dropped int) {
	if dropped > 0 {
		log.Warn().Str("path", path).Int("dropped", dropped).Msg("ledger: dropped unreadable records")
	}
}

var (
	_ Source      = (*Client)(nil)
	_ SalesWriter = (*Client)(nil)
)
