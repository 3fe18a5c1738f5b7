package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimeout_SlowAttemptBecomesErrTimeout(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: []byte("late"), Delay: time.Second})
	p := WithTimeout(mock, 20*time.Millisecond)

	_, err := p.Generate(context.Background(), Request{})
	var timeout *ErrTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if Kind(err) != "timeout" {
		t.Fatalf("expected kind timeout, got %q", Kind(err))
	}
}

func TestTimeout_FastAttemptPassesThrough(t *testing.T) {
	mock := NewMockProvider(TextResponse("quick"))
	p := WithTimeout(mock, time.Second)

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "quick" {
		t.Fatalf("unexpected content %q", resp.Text())
	}
}

func TestTimeout_CallerCancellationIsNotATimeout(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: []byte("late"), Delay: time.Second})
	p := WithTimeout(mock, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var timeout *ErrTimeout
	if errors.As(err, &timeout) {
		t.Fatal("caller cancellation must not be reported as a timeout")
	}
}

func TestTimeout_RetriedWithFreshDeadline(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: []byte("late"), Delay: time.Second},
		TextResponse("second try"),
	)
	p := WithRetry(WithTimeout(mock, 20*time.Millisecond), fastRetry(2))

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "second try" {
		t.Fatalf("unexpected content %q", resp.Text())
	}
}

func TestTimeout_DisabledReturnsInner(t *testing.T) {
	mock := NewMockProvider()
	if p := WithTimeout(mock, 0); p != Provider(mock) {
		t.Fatal("expected inner provider for zero timeout")
	}
}
