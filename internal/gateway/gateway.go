// Package gateway performs single-attempt GET queries against the price
// registry and classifies each outcome as records, empty, or failed.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"banco-precos/internal/query"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "banco-precos/internal/gateway"

const (
	DefaultTimeout = 30 * time.Second
	userAgent      = "banco-precos/1.0"
	maxBodyBytes   = 32 << 20
)

var (
	ErrTransport        = errors.New("registry transport failure")
	ErrMalformedPayload = errors.New("malformed registry payload")
)

// envelopeKeys are the object fields some registry endpoints wrap their
// result arrays in
var envelopeKeys = []string{"data", "content", "items", "resultado"}

// StatusError is returned for non-2xx responses other than 404
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry returned status %d for %s", e.StatusCode, e.URL)
}

// Outcome classifies a fetch
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeEmpty
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of one registry query. Records is only
// populated for OutcomeOK and Err only for OutcomeFailed.
type Result struct {
	Outcome Outcome
	Records []gjson.Result
	Err     error
}

// Failed reports whether the query should be treated as a transport failure
func (r Result) Failed() bool {
	return r.Outcome == OutcomeFailed
}

func failed(err error) Result {
	return Result{Outcome: OutcomeFailed, Err: err}
}

// Fetcher is the registry query contract used by the repositories
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params query.Params) Result
}

// Client is the HTTP Fetcher
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
}

// New creates a Client. A nil httpClient gets one with DefaultTimeout.
func New(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpClient: httpClient, logger: logger, tracer: otel.Tracer(tracerName)}
}

// NewWithTimeout creates a Client whose requests give up after timeout
func NewWithTimeout(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return New(&http.Client{Timeout: timeout}, logger)
}

// Fetch queries endpoint once. A 404 is a valid empty result.
func (c *Client) Fetch(ctx context.Context, endpoint string, params query.Params) Result {
	ctx, span := c.tracer.Start(ctx, "registry.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("registry.endpoint", endpoint)),
	)
	defer span.End()

	res := c.fetch(ctx, endpoint, params)

	span.SetAttributes(
		attribute.String("registry.outcome", res.Outcome.String()),
		attribute.Int("registry.records", len(res.Records)),
	)
	if res.Failed() {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}
	return res
}

func (c *Client) fetch(ctx context.Context, endpoint string, params query.Params) Result {
	target, err := buildURL(endpoint, params)
	if err != nil {
		return failed(fmt.Errorf("%w: invalid endpoint: %w", ErrTransport, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return failed(fmt.Errorf("%w: failed to create request: %w", ErrTransport, err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.logger.Debug("Querying registry", zap.String("url", target))

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Registry request failed", zap.String("url", target), zap.Error(err))
		return failed(fmt.Errorf("%w: %w", ErrTransport, err))
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close registry response body", zap.Error(closeErr))
		}
	}()

	switch {
	case res.StatusCode == http.StatusNotFound:
		c.logger.Debug("Registry reported no matches", zap.String("url", target))
		return Result{Outcome: OutcomeEmpty}
	case res.StatusCode == http.StatusNoContent:
		return Result{Outcome: OutcomeEmpty}
	case res.StatusCode < 200 || res.StatusCode > 299:
		err := &StatusError{StatusCode: res.StatusCode, URL: target}
		c.logger.Error("Registry returned an error status", zap.Int("status", res.StatusCode), zap.String("url", target))
		return failed(err)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		c.logger.Error("Failed to read registry response", zap.String("url", target), zap.Error(err))
		return failed(fmt.Errorf("%w: failed to read body: %w", ErrTransport, err))
	}

	records, err := decodeRecords(body)
	if err != nil {
		c.logger.Error("Registry payload rejected", zap.String("url", target), zap.Error(err))
		return failed(err)
	}
	if len(records) == 0 {
		return Result{Outcome: OutcomeEmpty}
	}
	return Result{Outcome: OutcomeOK, Records: records}
}

func buildURL(endpoint string, params query.Params) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("endpoint %q is not absolute", endpoint)
	}

	q := u.Query()
	for k, vs := range params.Values() {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// decodeRecords accepts a JSON array of objects, or an object wrapping one
func decodeRecords(body []byte) ([]gjson.Result, error) {
	if len(strings.TrimSpace(string(body))) == 0 || !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformedPayload)
	}

	root := gjson.ParseBytes(body)
	var items gjson.Result
	switch {
	case root.IsArray():
		items = root
	case root.IsObject():
		for _, key := range envelopeKeys {
			if v := root.Get(key); v.IsArray() {
				items = v
				break
			}
		}
		if !items.Exists() {
			return nil, fmt.Errorf("%w: object without a result array", ErrMalformedPayload)
		}
	default:
		return nil, fmt.Errorf("%w: expected an array, got %s", ErrMalformedPayload, root.Type)
	}

	var records []gjson.Result
	for _, item := range items.Array() {
		if item.IsObject() {
			records = append(records, item)
		}
	}
	return records, nil
}
