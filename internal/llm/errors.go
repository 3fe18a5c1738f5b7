package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrAuthentication indicates the provider rejected the credentials
// (401/403). It is never retried and must be surfaced to operators.
type ErrAuthentication struct {
	Err error
}

func (e *ErrAuthentication) Error() string {
	return fmt.Sprintf("LLM provider rejected credentials: %v", e.Err)
}

func (e *ErrAuthentication) Unwrap() error { return e.Err }

// ErrTimeout indicates a single attempt exceeded its deadline.
type ErrTimeout struct {
	After time.Duration
	Err   error
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("LLM request timed out after %s: %v", e.After, e.Err)
}

func (e *ErrTimeout) Unwrap() error { return e.Err }

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers every other provider failure: outages,
// network errors, unexpected status codes.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// Kind classifies err into one of the log-friendly failure kinds:
// "auth", "timeout", "rate_limit", "invalid_response", "max_tokens",
// "unavailable" or "unknown".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var (
		auth    *ErrAuthentication
		timeout *ErrTimeout
		rl      *ErrRateLimit
		inv     *ErrInvalidResponse
		maxTok  *ErrMaxTokensExceeded
		unavail *ErrProviderUnavailable
	)
	switch {
	case errors.As(err, &auth):
		return "auth"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &rl):
		return "rate_limit"
	case errors.As(err, &inv):
		return "invalid_response"
	case errors.As(err, &maxTok):
		return "max_tokens"
	case errors.As(err, &unavail):
		return "unavailable"
	default:
		return "unknown"
	}
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var auth *ErrAuthentication
	return errors.As(err, &auth)
}

// fromStatus classifies a vendor API failure by its HTTP status. Every
// vendor adapter funnels through here so the retry policy sees the same
// error types regardless of which SDK produced them.
func fromStatus(status int, retryAfter time.Duration, err error) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ErrAuthentication{Err: err}
	case http.StatusTooManyRequests:
		return &ErrRateLimit{RetryAfter: retryAfter, Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// retryAfterHeader reads a Retry-After value in seconds or HTTP-date form.
func retryAfterHeader(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
