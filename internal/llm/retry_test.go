package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func down() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
}

func TestRetry_RecoversFromOutage(t *testing.T) {
	mock := NewMockProvider(down(), down(), TextResponse("ok"))
	p := WithRetry(mock, fastRetry(3))

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "ok" {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if mock.CallCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	mock := NewMockProvider(down(), down(), down(), TextResponse("never"))
	p := WithRetry(mock, fastRetry(2))

	_, err := p.Generate(context.Background(), Request{})
	var unavailable *ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_ZeroAttemptsMeansOne(t *testing.T) {
	mock := NewMockProvider(down(), TextResponse("ok"))
	p := WithRetry(mock, RetryConfig{})

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_NonRetryableErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"authentication", &ErrAuthentication{Err: errors.New("401")}},
		{"max tokens", &ErrMaxTokensExceeded{Content: json.RawMessage(`{}`)}},
		{"caller cancelled", context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(MockResponse{Err: tt.err}, TextResponse("unreached"))
			p := WithRetry(mock, fastRetry(3))

			_, err := p.Generate(context.Background(), Request{})
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if mock.CallCount() != 1 {
				t.Fatalf("expected 1 call, got %d", mock.CallCount())
			}
		})
	}
}

func TestRetry_TimeoutIsRetried(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrTimeout{After: time.Second, Err: context.DeadlineExceeded}},
		TextResponse("ok"),
	)
	p := WithRetry(mock, fastRetry(3))

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "ok" || mock.CallCount() != 2 {
		t.Fatalf("expected recovery on second call, got %q after %d calls", resp.Text(), mock.CallCount())
	}
}

func TestRetry_InvalidResponseRetriedOnlyOnce(t *testing.T) {
	bad := MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`nope`), Err: errors.New("bad")}}
	mock := NewMockProvider(bad, bad, TextResponse("unreached"))
	p := WithRetry(mock, fastRetry(5))

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_StopsWhenCallerCancels(t *testing.T) {
	mock := NewMockProvider(down(), down(), TextResponse("ok"))
	p := WithRetry(mock, fastRetry(3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_BackoffHonoursRetryAfterCap(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: time.Millisecond, MaxWait: 50 * time.Millisecond}}

	got := r.backoff(0, &ErrRateLimit{RetryAfter: time.Minute})
	if got != 50*time.Millisecond {
		t.Fatalf("expected capped wait, got %v", got)
	}

	got = r.backoff(0, &ErrRateLimit{RetryAfter: 10 * time.Millisecond})
	if got != 10*time.Millisecond {
		t.Fatalf("expected RetryAfter, got %v", got)
	}
}

func TestRetry_BackoffGrowsWithinJitter(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: 100 * time.Millisecond, MaxWait: time.Second, Multiplier: 2}}

	for attempt, base := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond} {
		got := r.backoff(attempt, errors.New("boom"))
		lo, hi := time.Duration(float64(base)*0.8), time.Duration(float64(base)*1.2)
		if got < lo || got > hi {
			t.Fatalf("attempt %d: wait %v outside [%v, %v]", attempt, got, lo, hi)
		}
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	p := WithRetry(NewMockProvider(), fastRetry(1))
	if p.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", p.ModelID())
	}
}
