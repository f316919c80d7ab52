package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery turns a panic in the wrapped transport into a request error
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (resp *http.Response, err error) {
			defer func() {
				if p := recover(); p != nil {
					logger.Error("panic recovered",
						slog.Any("error", p),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					resp = nil
					err = fmt.Errorf("panic in transport: %v", p)
				}
			}()

			return next.RoundTrip(r)
		})
	}
}

// Recover runs fn, logging and swallowing any panic. It reports whether fn panicked.
func Recover(logger *slog.Logger, name string, fn func()) (panicked bool) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic recovered",
				slog.Any("error", p),
				slog.String("stack", string(debug.Stack())),
				slog.String("callback", name),
			)
			panicked = true
		}
	}()

	fn()
	return false
}
