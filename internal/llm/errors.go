package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel causes that callers branch on. ErrContextTooLarge triggers
// the chunked-retry fallback upstream; ErrRateLimited maps to a
// retryable client response.
var (
	ErrRateLimited     = errors.New("upstream rate limit exceeded")
	ErrContextTooLarge = errors.New("prompt exceeds model context window")
	ErrAuthentication  = errors.New("upstream authentication failed")
	ErrUpstream        = errors.New("upstream service unavailable")
)

// TransientError marks a failure worth retrying with backoff.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a failure that retrying cannot fix.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("fatal: %v", e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classifyHTTPError maps an upstream status code and error body to the
// transient/fatal taxonomy.
func classifyHTTPError(status int, body string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &TransientError{Err: ErrRateLimited}
	case status == http.StatusRequestEntityTooLarge:
		return &FatalError{Err: ErrContextTooLarge}
	case status == http.StatusBadRequest && looksLikeContextOverflow(body):
		return &FatalError{Err: ErrContextTooLarge}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &FatalError{Err: ErrAuthentication}
	case status >= 500:
		return &TransientError{Err: fmt.Errorf("%w: status %d", ErrUpstream, status)}
	default:
		return &FatalError{Err: fmt.Errorf("unexpected status %d: %s", status, truncateBody(body))}
	}
}

// looksLikeContextOverflow sniffs the error body since providers report
// context-window overflows as plain 400s.
func looksLikeContextOverflow(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "context_length") ||
		strings.Contains(lower, "context length") ||
		strings.Contains(lower, "maximum context") ||
		strings.Contains(lower, "too many tokens")
}

func truncateBody(body string) string {
	const max = 200
	if len(body) <= max {
		return body
	}
	return body[:max] + "..."
}
