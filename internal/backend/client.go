// Package backend is the gateway's HTTP client for the upstream product and auth API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopfront-dev/shopfront/internal/logger"
	"github.com/shopfront-dev/shopfront/internal/metrics"
)

const tracerName = "github.com/shopfront-dev/shopfront/internal/backend"

// Client forwards gateway requests to the backend API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// New creates a client for the API rooted at baseURL (e.g. http://localhost:8080/api)
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer(tracerName),
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// Request describes one upstream call
type Request struct {
	Method        string
	Path          string     // relative to the base URL, e.g. "/products/42"
	Endpoint      string     // low-cardinality name for metrics and spans
	Query         url.Values // omitted when empty
	Authorization string     // full header value, e.g. "Bearer abc"
	ContentType   string
	Body          io.Reader
}

// Response is a fully read upstream response
type Response struct {
	StatusCode int
	StatusText string
	Body       []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the body as a string
func (r *Response) Text() string {
	return string(r.Body)
}

// ErrorField extracts the "error" string from a JSON error body, or "" if absent
func (r *Response) ErrorField() string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return ""
	}
	return body.Error
}

// JSONBody encodes v for a Request body
func JSONBody(v any) (io.Reader, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(raw), nil
}

// Do sends req upstream and reads the whole response. A non-2xx status is not an error;
// callers decide how to relay it. Errors are transport failures only.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.Path
	}

	ctx, span := c.tracer.Start(ctx, "backend "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("backend.endpoint", endpoint),
		),
	)
	defer span.End()

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, req.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Authorization != "" {
		httpReq.Header.Set("Authorization", req.Authorization)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.ObserveUpstream(req.Method, endpoint, 0, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.ObserveUpstream(req.Method, endpoint, resp.StatusCode, start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Status)
	}

	logger.FromContext(ctx).Debug().
		Str("method", req.Method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Backend call")

	return &Response{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Body:       body,
	}, nil
}

// statusText returns the reason phrase the backend sent, e.g. "Not Found"
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}
