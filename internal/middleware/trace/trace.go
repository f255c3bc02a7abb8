// Package trace tags HTTP traffic with request IDs and logs it, both for
// outbound calls to the remote API and for the worker's own endpoints.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	HeaderRequestID = "X-Request-ID"
)

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests       int64
	FailedRequests      int64
	AverageResponseTime int64 // in microseconds
}

type counters struct {
	total       atomic.Int64
	failed      atomic.Int64
	totalMicros atomic.Int64
}

func (c *counters) record(d time.Duration, failed bool) {
	c.total.Add(1)
	c.totalMicros.Add(d.Microseconds())
	if failed {
		c.failed.Add(1)
	}
}

func (c *counters) snapshot() Metrics {
	m := Metrics{
		TotalRequests:  c.total.Load(),
		FailedRequests: c.failed.Load(),
	}
	if m.TotalRequests > 0 {
		m.AverageResponseTime = c.totalMicros.Load() / m.TotalRequests
	}
	return m
}

// Transport is an http.RoundTripper that propagates the request ID of the
// context (or a new one) in X-Request-ID and logs every call.
type Transport struct {
	base    http.RoundTripper
	logger  *slog.Logger
	metrics counters
}

// NewTransport wraps base, or http.DefaultTransport when base is nil.
func NewTransport(base http.RoundTripper, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{base: base, logger: logger}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	requestID := GetRequestID(ctx)
	if requestID == "" {
		requestID = GenerateRequestID()
	}
	// RoundTrippers must not modify the caller's request.
	req = req.Clone(ctx)
	req.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.metrics.record(duration, true)
		t.logger.WarnContext(ctx, "HTTP call failed",
			"request_id", requestID,
			"method", req.Method,
			"url", req.URL.Redacted(),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, err
	}

	t.metrics.record(duration, resp.StatusCode >= 500)
	t.logger.Log(ctx, levelForStatus(resp.StatusCode), "HTTP call completed",
		"request_id", requestID,
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds())
	return resp, nil
}

// GetMetrics returns current metrics
func (t *Transport) GetMetrics() Metrics {
	return t.metrics.snapshot()
}

// Middleware handles request tracing and logging for inbound requests.
type Middleware struct {
	logger  *slog.Logger
	metrics counters
}

func NewMiddleware(logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{logger: logger}
}

// Middleware returns HTTP middleware for request tracing. An incoming
// X-Request-ID is kept.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = GenerateRequestID()
		}
		ctx := WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		w.Header().Set(HeaderRequestID, requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		m.metrics.record(duration, rw.statusCode >= 500)

		m.logger.Log(ctx, levelForStatus(rw.statusCode), "HTTP request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"remote_addr", r.RemoteAddr)
	})
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	return m.metrics.snapshot()
}

// Successful calls are debug noise; client and server errors are not.
func levelForStatus(code int) slog.Level {
	switch {
	case code >= 500:
		return slog.LevelError
	case code >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
