package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mcoot/scopa-go/internal/metrics"
)

// RoundTripperFunc adapts a function to http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(r)
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Middleware wraps a round tripper
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain applies middlewares so the first one listed is outermost
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

// Logging logs every request sent to the game server
func Logging(logger *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			resp, err := next.RoundTrip(r)

			duration := time.Since(start)

			if err != nil {
				logger.Warn("http request failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Duration("duration", duration),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", duration),
			)
			return resp, nil
		})
	}
}

// Counting records each request in m.HTTPRequests by method and status class
func Counting(m *metrics.Metrics) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(r)
			status := "error"
			if err == nil {
				status = strconv.Itoa(resp.StatusCode/100) + "xx"
			}
			m.HTTPRequests.WithLabelValues(r.Method, status).Inc()
			return resp, err
		})
	}
}
