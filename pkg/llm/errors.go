package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrMissingAPIKey = errors.New("llm api key is not set")

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsRateLimit reports whether err means the provider is throttling us:
// a 429 status, or an error text mentioning 429, rate_limit or Too Many Requests.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "Too Many Requests")
}
