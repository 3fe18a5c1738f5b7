package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  "gpt-4o-mini",
	}
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func serveCompletion(content, finish string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(content, finish))
	}
}

func TestOpenAIProvider_StructuredTurn(t *testing.T) {
	var gotReq map[string]any
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		serveCompletion(`{"reply":"How does the event loop schedule timers?","kind":"question"}`, "stop")(w, r)
	})

	resp, err := p.Generate(context.Background(), Request{
		System:    "You are a technical interviewer.",
		Messages:  []Message{{Role: RoleUser, Content: "Continue the interview."}},
		Schema:    turnSchema(),
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 {
		t.Errorf("input tokens = %d, want 40", resp.Usage.InputTokens)
	}
	if resp.StopReason != StopEnd {
		t.Errorf("stop reason = %q, want %q", resp.StopReason, StopEnd)
	}

	format, _ := gotReq["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Errorf("response_format type = %v, want json_schema", format["type"])
	}
	if name := format["json_schema"].(map[string]any)["name"]; name != "test-turn" {
		t.Errorf("schema name = %v, want test-turn", name)
	}
	msgs := gotReq["messages"].([]any)
	if role := msgs[0].(map[string]any)["role"]; role != "system" {
		t.Errorf("first message role = %v, want system", role)
	}
}

func TestOpenAIProvider_SchemaViolation(t *testing.T) {
	p := newTestOpenAIProvider(t, serveCompletion(`{"reply":"missing kind"}`, "stop"))

	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
		Schema:   turnSchema(),
	})
	if got := Kind(err); got != "invalid_response" {
		t.Errorf("Kind = %q, want invalid_response (err %v)", got, err)
	}
}

func TestOpenAIProvider_LengthStop(t *testing.T) {
	p := newTestOpenAIProvider(t, serveCompletion("The answer shows", "length"))

	resp, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if err != nil {
		t.Fatalf("free text should survive truncation: %v", err)
	}
	if resp.StopReason != StopMaxTokens {
		t.Errorf("stop reason = %q, want %q", resp.StopReason, StopMaxTokens)
	}
}

func TestOpenAIProvider_LengthStopWithSchema(t *testing.T) {
	p := newTestOpenAIProvider(t, serveCompletion(`{"reply":"How does`, "length"))

	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
		Schema:   turnSchema(),
	})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %v", err)
	}
}

func TestOpenAIProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   string
	}{
		{http.StatusUnauthorized, "auth"},
		{http.StatusTooManyRequests, "rate_limit"},
		{http.StatusBadGateway, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "nope", "type": "error", "code": tt.status},
				})
			})
			_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := Kind(err); got != tt.kind {
				t.Errorf("Kind = %q, want %q", got, tt.kind)
			}
		})
	}
}

func TestOpenAIProvider_PlainTextErrorBody(t *testing.T) {
	// Gateways in front of OpenAI-compatible APIs often answer with HTML or
	// plain text, which go-openai reports as a RequestError.
	p := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("forbidden"))
	})

	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if !IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestNewOpenRouterProvider(t *testing.T) {
	if _, err := NewOpenRouterProvider(OpenRouterConfig{}); err == nil {
		t.Fatal("expected error without an API key")
	}

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "or-key", Model: "google/gemini-2.0-flash-exp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "google/gemini-2.0-flash-exp" {
		t.Errorf("model = %q", p.ModelID())
	}
}

func TestOpenRouterProvider_UsesBaseURL(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		serveCompletion("hello", "stop")(w, r)
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "or-key", Model: "meta/llama", BaseURL: server.URL + "/api/v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "hello" {
		t.Errorf("text = %q, want hello", resp.Text())
	}
	if path != "/api/v1/chat/completions" {
		t.Errorf("path = %q, want /api/v1/chat/completions", path)
	}
}
