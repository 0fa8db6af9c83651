package gemini

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Error definitions for the gemini package.
var (
	// ErrNilLogger is returned when the generator is constructed without a logger.
	ErrNilLogger = errors.New("logger cannot be nil")
)

// apiErrorCode extracts the HTTP status code from a genai API error.
func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

// isTransient reports whether a failed call is worth retrying. parent is the
// caller's context: a deadline on the per-attempt context is transient, a
// cancelled caller is not.
func isTransient(parent context.Context, err error) bool {
	if err == nil || parent.Err() != nil {
		return false
	}

	if code, ok := apiErrorCode(err); ok {
		switch {
		case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
			return true
		case code >= 500:
			return true
		default:
			return false
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	for _, fragment := range []string{"connection refused", "connection reset", "EOF", "temporary failure"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
