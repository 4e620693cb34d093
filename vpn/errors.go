package vpn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrBlocked indicates the site served a blocking page (403/503 or a
// captcha/bot-detection marker in the body).
type ErrBlocked struct {
	Err error
}

func (e ErrBlocked) Error() string {
	return fmt.Errorf("blocked: %w", e.Err).Error()
}

func (e ErrBlocked) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the target rate-limited the request (HTTP 429).
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

// ErrExhausted indicates every retry, proxy, and fallback failed.
type ErrExhausted struct {
	URL      string
	Attempts int
	Last     error
}

func (e ErrExhausted) Error() string {
	return fmt.Sprintf("exhausted %d attempts for %s: %v", e.Attempts, e.URL, e.Last)
}

func (e ErrExhausted) Unwrap() error {
	return e.Last
}

// Classify wraps an error (or bare status code) into the retry taxonomy.
func Classify(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden, http.StatusServiceUnavailable:
			return ErrBlocked{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
	}

	return err
}

// ErrorLabel buckets an error for logging and metrics.
func ErrorLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var blocked ErrBlocked
	if errors.As(err, &blocked) {
		return "blocked"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	var exhausted ErrExhausted
	if errors.As(err, &exhausted) {
		return "exhausted"
	}
	return "other"
}
