package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestMockProvider_FIFOAndRecordedCalls(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: []byte("first"), Usage: Usage{InputTokens: 12, OutputTokens: 4, TotalTokens: 16}},
		TextResponse("second"),
	)

	resp, err := mock.Generate(context.Background(), Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "a"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "first" || resp.Usage.TotalTokens != 16 || resp.StopReason != "end" {
		t.Fatalf("unexpected first response: %+v", resp)
	}

	resp, err = mock.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "second" {
		t.Fatalf("expected second, got %q", resp.Text())
	}
	if mock.CallCount() != 2 || mock.Calls[0].System != "sys" {
		t.Fatalf("calls not recorded: %+v", mock.Calls)
	}
}

func TestMockProvider_EmptyQueueIsUnavailable(t *testing.T) {
	_, err := NewMockProvider().Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_AddResponse(t *testing.T) {
	mock := NewMockProvider()
	mock.AddResponse(TextResponse("late"))
	resp, err := mock.Generate(context.Background(), Request{})
	if err != nil || resp.Text() != "late" {
		t.Fatalf("got %v, %v", resp, err)
	}
}

func TestResponseText_Nil(t *testing.T) {
	var r *Response
	if r.Text() != "" {
		t.Fatal("nil response should have empty text")
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	ctx = WithPurpose(ctx, PurposeScoring)
	if p := PurposeFrom(ctx); p != "answer-scoring" {
		t.Fatalf("expected 'answer-scoring', got %q", p)
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ErrAuthentication{Err: errors.New("401")}, "auth"},
		{fmt.Errorf("wrapped: %w", &ErrTimeout{After: time.Second}), "timeout"},
		{&ErrRateLimit{}, "rate_limit"},
		{&ErrInvalidResponse{Err: errors.New("x")}, "invalid_response"},
		{&ErrMaxTokensExceeded{}, "max_tokens"},
		{&ErrProviderUnavailable{Err: errors.New("x")}, "unavailable"},
		{errors.New("mystery"), "unknown"},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	withProvider := func(name string, mutate func(*Config)) Config {
		cfg := DefaultConfig()
		cfg.Provider = name
		if mutate != nil {
			mutate(&cfg)
		}
		return cfg
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"anthropic without key", withProvider("anthropic", nil), true},
		{"anthropic with key", withProvider("anthropic", func(c *Config) { c.Anthropic.APIKey = "sk-test" }), false},
		{"openai without key", withProvider("openai", nil), true},
		{"gemini with key", withProvider("gemini", func(c *Config) { c.Gemini.APIKey = "g" }), false},
		{"openrouter without key", withProvider("openrouter", nil), true},
		{"mock needs no key", withProvider("mock", nil), false},
		{"unknown provider", withProvider("unknown", nil), true},
		{"zero attempts", withProvider("none", func(c *Config) { c.Retry.MaxAttempts = 0 }), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func clearKeyEnv(t *testing.T) {
	for _, k := range []string{
		"MOCKVIEW_LLM_PROVIDER", "MOCKVIEW_LLM_TIMEOUT", "MOCKVIEW_OPENAI_API_KEY", "MOCKVIEW_OPENAI_MODEL",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestApplyEnv_ExplicitProvider(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("MOCKVIEW_LLM_PROVIDER", "openai")
	t.Setenv("MOCKVIEW_OPENAI_API_KEY", "sk-env")
	t.Setenv("MOCKVIEW_OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("MOCKVIEW_LLM_TIMEOUT", "5s")

	cfg := ApplyEnv(DefaultConfig())
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-env" || cfg.OpenAI.Model != "gpt-4.1-mini" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.Timeout)
	}
}

func TestApplyEnv_DiscoversVendorKey(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	base := DefaultConfig()
	base.Timeout = 7 * time.Second
	cfg := ApplyEnv(base)
	if cfg.Provider != "anthropic" || cfg.Anthropic.APIKey != "sk-ant" {
		t.Fatalf("expected anthropic discovery, got %+v", cfg)
	}
	if cfg.Timeout != 7*time.Second {
		t.Fatalf("discovery should keep the configured timeout, got %v", cfg.Timeout)
	}
}

func TestApplyEnv_NothingSet(t *testing.T) {
	clearKeyEnv(t)
	cfg := ApplyEnv(DefaultConfig())
	if cfg.Enabled() {
		t.Fatalf("expected generation disabled, got provider %q", cfg.Provider)
	}
}

func TestNewProvider_DisabledReturnsNil(t *testing.T) {
	p, err := NewProvider(context.Background(), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil provider, got %T", p)
	}
}

func TestNewProvider_WrapsWithMiddleware(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"
	cfg.OpenAI.APIKey = "sk-test"

	p, err := NewProvider(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*RetryProvider); !ok {
		t.Fatalf("expected retry wrapper outermost, got %T", p)
	}
	if p.ModelID() != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", p.ModelID())
	}
}

func TestNewProvider_UnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "carrier-pigeon"
	if _, err := NewProvider(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	if c == nil {
		t.Fatal("expected pricing for gpt-4o-mini")
	}
	if got := c.Cost(1_000_000, 1_000_000); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
	if LookupCost("unknown-model") != nil {
		t.Fatal("expected nil for unknown model")
	}
}
