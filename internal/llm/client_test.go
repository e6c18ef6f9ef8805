package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/askdb/askdb/internal/config"
)

func TestNewSelectsProvider(t *testing.T) {
	base := config.LLMConfig{
		BaseURL: "https://llm.example.com",
		APIKey:  "key",
		Model:   "m",
		Timeout: time.Second,
	}

	base.Provider = "anthropic"
	client, err := New(base)
	if err != nil {
		t.Fatalf("New(anthropic) error = %v", err)
	}
	if _, ok := client.(*Anthropic); !ok {
		t.Fatalf("New(anthropic) = %T", client)
	}

	base.Provider = "openai"
	client, err = New(base)
	if err != nil {
		t.Fatalf("New(openai) error = %v", err)
	}
	if _, ok := client.(*OpenAI); !ok {
		t.Fatalf("New(openai) = %T", client)
	}

	base.Provider = "parrot"
	if _, err := New(base); err == nil {
		t.Fatal("New(parrot) expected error")
	}
}

func TestNewAnthropicRequiresAPIKey(t *testing.T) {
	_, err := NewAnthropic(AnthropicConfig{BaseURL: "https://api.anthropic.com", Model: "m"})
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestAnthropicCompleteSendsMessagesRequest(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "secret" {
			t.Fatalf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Fatal("missing anthropic-version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": "SELECT COUNT(*) FROM client;"}},
		})
	}))
	defer server.Close()

	client, err := NewAnthropic(AnthropicConfig{BaseURL: server.URL, APIKey: "secret", Model: "claude-sonnet-4-20250514"})
	if err != nil {
		t.Fatalf("NewAnthropic() error = %v", err)
	}

	got, err := client.Complete(context.Background(), Request{Prompt: "p", Temperature: 0, MaxTokens: 1024})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "SELECT COUNT(*) FROM client;" {
		t.Fatalf("Complete() = %q", got)
	}
	if captured["model"] != "claude-sonnet-4-20250514" {
		t.Fatalf("model = %v", captured["model"])
	}
	if captured["temperature"] != float64(0) {
		t.Fatalf("temperature = %v", captured["temperature"])
	}
	if captured["max_tokens"] != float64(1024) {
		t.Fatalf("max_tokens = %v", captured["max_tokens"])
	}
}

func TestAnthropicCompleteSurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewAnthropic(AnthropicConfig{BaseURL: server.URL, APIKey: "secret", Model: "m"})
	if err != nil {
		t.Fatalf("NewAnthropic() error = %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestOpenAICompleteReturnsFirstChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Fatalf("authorization = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "SELECT 1;"}},
			},
		})
	}))
	defer server.Close()

	client, err := NewOpenAI(OpenAIConfig{BaseURL: server.URL, APIKey: "secret", Model: "gpt-4.1-mini"})
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	got, err := client.Complete(context.Background(), Request{Prompt: "p", Temperature: 0.1, MaxTokens: 64})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "SELECT 1;" {
		t.Fatalf("Complete() = %q", got)
	}
}

func TestOpenAICompleteRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client, err := NewOpenAI(OpenAIConfig{BaseURL: server.URL, APIKey: "secret", Model: "m"})
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
