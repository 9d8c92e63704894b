package parser

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError indicates the model provider answered with a non-success HTTP status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	// RetryAfter is the provider's backoff hint, zero when none was sent.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// NewStatusError builds a StatusError, truncating the response body.
func NewStatusError(provider string, statusCode int, body []byte) *StatusError {
	return &StatusError{
		Provider:   provider,
		StatusCode: statusCode,
		Body:       truncate(string(body), 500),
	}
}

// RateLimited reports whether the provider rejected the call for quota reasons.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Unauthorized reports whether the provider rejected the API key.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// ParseRetryAfterHeader parses the Retry-After header value as seconds.
// Returns 0 if the header is empty or not a positive integer.
func ParseRetryAfterHeader(val string) int {
	secs, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}
