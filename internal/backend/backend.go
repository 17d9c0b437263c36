package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	promparser "github.com/prometheus/prometheus/promql/parser"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/atinylittleshell/qline/internal/suggest"
	"github.com/atinylittleshell/qline/pkg/queryeditor"
)

const defaultLookback = time.Hour

var (
	ErrEmptyQuery   = errors.New("empty query")
	ErrInvalidQuery = errors.New("invalid query")
)

// APIError is an error reported by the server in the response envelope.
type APIError struct {
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Result is the outcome of an instant query.
type Result struct {
	Query    string
	Value    model.Value
	Warnings []string
	Elapsed  time.Duration
}

// Len is the number of series, or 1 for scalar and string results.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	switch v := r.Value.(type) {
	case model.Vector:
		return len(v)
	case model.Matrix:
		return len(v)
	case *model.Scalar, *model.String:
		return 1
	default:
		return 0
	}
}

type exprParser interface {
	ParseExpr(input string) (promparser.Expr, error)
}

// Client talks to a Prometheus-compatible HTTP API. It serves as the
// suggestion metadata source and executes queries on submit.
type Client struct {
	raw         api.Client
	api         v1.API
	logger      *zap.Logger
	lookback    time.Duration
	syntaxCheck bool
	parser      exprParser
	now         func() time.Time
}

var _ suggest.Source = (*Client)(nil)

type Option func(*Client)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLookback sets how far back metadata lookups search for series.
func WithLookback(d time.Duration) Option {
	return func(c *Client) {
		c.lookback = d
	}
}

// WithSyntaxCheck enables parsing queries as PromQL before sending them.
// MetricsQL extensions fail this check, so servers speaking MetricsQL should
// disable it.
func WithSyntaxCheck(enabled bool) Option {
	return func(c *Client) {
		c.syntaxCheck = enabled
	}
}

func New(address string, opts ...Option) (*Client, error) {
	raw, err := api.NewClient(api.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client for %q: %w", address, err)
	}

	c := &Client{
		raw:         raw,
		api:         v1.NewAPI(raw),
		logger:      zap.NewNop(),
		lookback:    defaultLookback,
		syntaxCheck: true,
		parser:      promparser.NewParser(suggest.ParserOptions),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) MetricNames(ctx context.Context) ([]string, error) {
	return c.labelValues(ctx, "", string(model.MetricNameLabel))
}

func (c *Client) LabelNames(ctx context.Context, metric string) ([]string, error) {
	end := c.now()
	names, warnings, err := c.api.LabelNames(ctx, matchers(metric), end.Add(-c.lookback), end)
	c.logWarnings("labels", warnings)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch label names: %w", err)
	}
	return lo.Without(names, string(model.MetricNameLabel)), nil
}

func (c *Client) LabelValues(ctx context.Context, metric, label string) ([]string, error) {
	return c.labelValues(ctx, metric, label)
}

func (c *Client) labelValues(ctx context.Context, metric, label string) ([]string, error) {
	end := c.now()
	values, warnings, err := c.api.LabelValues(ctx, label, matchers(metric), end.Add(-c.lookback), end)
	c.logWarnings("label values", warnings)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch values of label %q: %w", label, err)
	}
	return lo.Map(values, func(v model.LabelValue, _ int) string { return string(v) }), nil
}

func (c *Client) logWarnings(endpoint string, warnings v1.Warnings) {
	for _, w := range warnings {
		c.logger.Warn("backend returned warning", zap.String("endpoint", endpoint), zap.String("warning", w))
	}
}

func matchers(metric string) []string {
	if metric == "" {
		return nil
	}
	return []string{fmt.Sprintf("{%s=%q}", model.MetricNameLabel, metric)}
}

type queryResponse struct {
	Status    string          `json:"status"`
	ErrorType string          `json:"errorType"`
	Error     string          `json:"error"`
	Warnings  []string        `json:"warnings"`
	IsPartial *bool           `json:"isPartial"`
	Data      json.RawMessage `json:"data"`
	Stats     *struct {
		SeriesFetched     json.RawMessage `json:"seriesFetched"`
		ExecutionTimeMsec *int            `json:"executionTimeMsec"`
	} `json:"stats"`
}

type queryData struct {
	ResultType model.ValueType `json:"resultType"`
	Result     json.RawMessage `json:"result"`
}

// Query runs an instant query at the current time. The returned stats carry
// whatever execution statistics the server reports; result length is always
// set and execution time falls back to the locally measured round trip.
func (c *Client) Query(ctx context.Context, query string) (*Result, *queryeditor.Stats, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil, ErrEmptyQuery
	}
	if c.syntaxCheck {
		if _, err := c.parser.ParseExpr(query); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
	}

	u := c.raw.URL("/api/v1/query", nil)
	params := u.Query()
	params.Set("query", query)
	params.Set("time", strconv.FormatFloat(float64(c.now().UnixMilli())/1e3, 'f', -1, 64))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build query request: %w", err)
	}

	started := time.Now()
	resp, body, err := c.raw.Do(ctx, req)
	elapsed := time.Since(started)
	if err != nil {
		return nil, nil, fmt.Errorf("query request failed: %w", err)
	}

	var decoded queryResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode/100 != 2 {
			return nil, nil, fmt.Errorf("query failed with status %d", resp.StatusCode)
		}
		return nil, nil, fmt.Errorf("failed to decode query response: %w", err)
	}
	if decoded.Status != "success" {
		return nil, nil, &APIError{Type: decoded.ErrorType, Message: decoded.Error}
	}

	value, err := decodeValue(decoded.Data)
	if err != nil {
		return nil, nil, err
	}

	result := &Result{
		Query:    query,
		Value:    value,
		Warnings: decoded.Warnings,
		Elapsed:  elapsed,
	}
	c.logWarnings("query", decoded.Warnings)

	stats := &queryeditor.Stats{
		ResultLength: lo.ToPtr(result.Len()),
		IsPartial:    decoded.IsPartial,
	}
	if decoded.Stats != nil {
		stats.SeriesFetched = rawString(decoded.Stats.SeriesFetched)
		stats.ExecutionTimeMsec = decoded.Stats.ExecutionTimeMsec
	}
	if stats.ExecutionTimeMsec == nil {
		stats.ExecutionTimeMsec = lo.ToPtr(int(elapsed.Milliseconds()))
	}

	c.logger.Debug("backend query finished",
		zap.String("query", query),
		zap.Int("resultLength", result.Len()),
		zap.Duration("elapsed", elapsed))

	return result, stats, nil
}

func decodeValue(raw json.RawMessage) (model.Value, error) {
	var data queryData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode query data: %w", err)
	}

	var (
		value model.Value
		err   error
	)
	switch data.ResultType {
	case model.ValVector:
		var v model.Vector
		err = json.Unmarshal(data.Result, &v)
		value = v
	case model.ValMatrix:
		var m model.Matrix
		err = json.Unmarshal(data.Result, &m)
		value = m
	case model.ValScalar:
		var s model.Scalar
		err = json.Unmarshal(data.Result, &s)
		value = &s
	case model.ValString:
		var s model.String
		err = json.Unmarshal(data.Result, &s)
		value = &s
	default:
		return nil, fmt.Errorf("unexpected result type %q", data.ResultType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", data.ResultType, err)
	}
	return value, nil
}

// rawString accepts both "12" and 12.
func rawString(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	return lo.ToPtr(string(raw))
}
