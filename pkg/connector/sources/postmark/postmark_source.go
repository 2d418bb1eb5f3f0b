// Package postmark implements the Postmark API client used as the tap's
// only source. Every call covers a single UTC day.
package postmark

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-postmark/pkg/clients"
	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/daterange"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-postmark/pkg/json"
	"github.com/ajitpratap0/tap-postmark/pkg/metrics"
	"github.com/ajitpratap0/tap-postmark/pkg/schema"
)

const (
	// TokenHeader carries the server token.
	TokenHeader = "X-Postmark-Server-Token"

	// maxWindow is the API limit on count+offset for message searches.
	maxWindow = 10000

	snippetLen   = 256
	maxBodyBytes = 64 << 20
)

// Source fetches one stream's payload for one day.
type Source struct {
	baseURL  string
	headers  map[string]string
	pageSize int
	client   *clients.HTTPClient
	logger   *zap.Logger
}

// apiError is the error envelope Postmark returns with 4xx answers.
type apiError struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// NewSource builds a source from the tap configuration.
func NewSource(cfg *config.TapConfig, logger *zap.Logger) (*Source, error) {
	if cfg.ServerToken == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "postmark_server_token is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pageSize := cfg.Performance.PageSize
	if pageSize <= 0 || pageSize > config.MaxPageSize {
		pageSize = config.MaxPageSize
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}

	httpCfg := clients.DefaultHTTPConfig()
	if cfg.Timeouts.Request > 0 {
		httpCfg.RequestTimeout = cfg.Timeouts.Request
		httpCfg.ResponseHeaderTimeout = cfg.Timeouts.Request
	}
	if cfg.Timeouts.Connection > 0 {
		httpCfg.DialTimeout = cfg.Timeouts.Connection
		httpCfg.TLSHandshakeTimeout = cfg.Timeouts.Connection
	}
	if cfg.Timeouts.Idle > 0 {
		httpCfg.IdleConnTimeout = cfg.Timeouts.Idle
	}
	if cfg.Reliability.IsRateLimited() {
		httpCfg.RateLimit = cfg.Reliability.RateLimitPerSec
		logger.Debug("throttling api calls", zap.Float64("per_sec", httpCfg.RateLimit))
	}
	httpCfg.CircuitBreakerEnabled = cfg.Reliability.CircuitBreaker

	return &Source{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{
			TokenHeader: cfg.ServerToken,
			"Accept":    "application/json",
		},
		pageSize: pageSize,
		client:   clients.NewHTTPClient(httpCfg, logger),
		logger:   logger.With(zap.String("component", "postmark_source")),
	}, nil
}

// Fetch returns the raw payload of stream for day. Paged endpoints are
// read to the end and merged into one payload under their list key.
func (s *Source) Fetch(ctx context.Context, stream string, day daterange.Day) (schema.RawRecord, error) {
	ep, ok := EndpointFor(stream)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "no endpoint for stream %q", stream)
	}
	s.logger.Debug("fetching", zap.String("stream", stream), zap.Stringer("day", day))

	if !ep.Paged() {
		return s.get(ctx, stream, ep.Path, dayQuery(day))
	}
	return s.fetchPaged(ctx, stream, ep, day)
}

func (s *Source) fetchPaged(ctx context.Context, stream string, ep Endpoint, day daterange.Day) (schema.RawRecord, error) {
	var (
		items   = []any{}
		payload schema.RawRecord
		offset  int
	)
	for {
		count := min(s.pageSize, maxWindow-offset)
		q := dayQuery(day)
		q.Set("count", strconv.Itoa(count))
		q.Set("offset", strconv.Itoa(offset))

		page, err := s.get(ctx, stream, ep.Path, q)
		if err != nil {
			return nil, err
		}
		list, err := pageItems(page, ep.ListKey)
		if err != nil {
			return nil, err
		}
		if payload == nil {
			payload = page
		}
		items = append(items, list...)
		offset += len(list)

		total, hasTotal := totalCount(page)
		if len(list) < count || (hasTotal && offset >= total) {
			break
		}
		if offset >= maxWindow {
			s.logger.Warn("message search window exhausted, remaining items skipped",
				zap.String("stream", stream),
				zap.Stringer("day", day),
				zap.Int("fetched", offset),
				zap.Int("total", total))
			break
		}
	}
	payload[ep.ListKey] = items
	return payload, nil
}

func (s *Source) get(ctx context.Context, stream, path string, q url.Values) (schema.RawRecord, error) {
	u := s.baseURL + path + "?" + q.Encode()

	timer := metrics.NewTimer()
	resp, err := s.client.Get(ctx, u, s.headers)
	metrics.APIRequestDuration.WithLabelValues(stream).Observe(timer.Stop().Seconds())
	if err != nil {
		metrics.APIRequests.WithLabelValues(stream, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()
	metrics.APIRequests.WithLabelValues(stream, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read response body")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, httpError(resp.StatusCode, path, body)
	}

	payload, err := jsonpool.DecodeObject(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeMalformedResponse, "response is not a JSON object").
			WithDetail("path", path).
			WithDetail("body", clients.Snippet(body, snippetLen))
	}
	if payload == nil {
		return nil, errors.New(errors.ErrorTypeMalformedResponse, "response is JSON null").
			WithDetail("path", path)
	}
	return payload, nil
}

// Close releases idle connections.
func (s *Source) Close() error {
	return s.client.Close()
}

func httpError(status int, path string, body []byte) error {
	msg := fmt.Sprintf("%s returned %d %s", path, status, http.StatusText(status))
	var envelope apiError
	if err := jsonpool.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		msg = fmt.Sprintf("%s: %s (error code %d)", msg, clients.RedactSecrets(envelope.Message), envelope.ErrorCode)
	}
	return errors.New(errors.ErrorTypeHTTP, msg).
		WithDetail(errors.DetailStatusCode, status).
		WithDetail("body", clients.Snippet(body, snippetLen))
}

func dayQuery(day daterange.Day) url.Values {
	d := day.String()
	return url.Values{"fromdate": {d}, "todate": {d}}
}

func pageItems(page schema.RawRecord, key string) ([]any, error) {
	raw, ok := page[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeMalformedResponse, "%q is %T, not a list", key, raw)
	}
	return list, nil
}

func totalCount(page schema.RawRecord) (int, bool) {
	switch v := page["TotalCount"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}
