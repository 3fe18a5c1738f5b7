package llm

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestFromStatus(t *testing.T) {
	cause := errors.New("vendor said no")
	tests := []struct {
		status int
		kind   string
	}{
		{http.StatusUnauthorized, "auth"},
		{http.StatusForbidden, "auth"},
		{http.StatusTooManyRequests, "rate_limit"},
		{http.StatusBadRequest, "unavailable"},
		{http.StatusInternalServerError, "unavailable"},
		{http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		err := fromStatus(tt.status, 0, cause)
		if got := Kind(err); got != tt.kind {
			t.Errorf("fromStatus(%d) kind = %q, want %q", tt.status, got, tt.kind)
		}
		if !errors.Is(err, cause) {
			t.Errorf("fromStatus(%d) lost the cause", tt.status)
		}
	}

	var rl *ErrRateLimit
	if !errors.As(fromStatus(http.StatusTooManyRequests, 3*time.Second, cause), &rl) || rl.RetryAfter != 3*time.Second {
		t.Errorf("rate limit should carry RetryAfter, got %+v", rl)
	}
}

func TestRetryAfterHeader(t *testing.T) {
	header := func(v string) http.Header {
		h := http.Header{}
		if v != "" {
			h.Set("Retry-After", v)
		}
		return h
	}

	if got := retryAfterHeader(header("12")); got != 12*time.Second {
		t.Errorf("seconds form = %v, want 12s", got)
	}
	for _, v := range []string{"", "0", "-3", "soon"} {
		if got := retryAfterHeader(header(v)); got != 0 {
			t.Errorf("retryAfterHeader(%q) = %v, want 0", v, got)
		}
	}

	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	if got := retryAfterHeader(header(future)); got <= 60*time.Second || got > 90*time.Second {
		t.Errorf("date form = %v, want roughly 90s", got)
	}
	past := time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)
	if got := retryAfterHeader(header(past)); got != 0 {
		t.Errorf("past date = %v, want 0", got)
	}
}
