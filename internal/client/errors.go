package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches any 404 from the server
	ErrNotFound = errors.New("not found")
	// ErrUnavailable wraps transport failures: connection refused, timeouts, bad bodies
	ErrUnavailable = errors.New("server unavailable")
)

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	// Detail is the server-supplied reason, shown to the player verbatim
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return e.Detail
}

// Is makes errors.Is(err, ErrNotFound) true for 404 responses
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Reason extracts the text to show the player for any client error
func Reason(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, ErrUnavailable) {
		return "Connection error, please try again."
	}
	return err.Error()
}

// detailBody covers both error shapes: FastAPI {"detail": ...}
// and {"error": {"code", "message"}}
type detailBody struct {
	Detail any `json:"detail"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (b detailBody) reason() string {
	switch d := b.Detail.(type) {
	case string:
		return d
	case nil:
	default:
		// FastAPI validation errors carry a list here
		return fmt.Sprint(d)
	}
	if b.Error != nil {
		if b.Error.Code != "" {
			return fmt.Sprintf("%s (%s)", b.Error.Message, b.Error.Code)
		}
		return b.Error.Message
	}
	return ""
}
