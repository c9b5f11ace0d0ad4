package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Nyukimin/tabitenki/internal/domain/llm"
)

func mustProvider(t *testing.T, baseURL string) *OllamaProvider {
	t.Helper()
	provider, err := NewOllamaProvider(baseURL, "test-model")
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}
	return provider
}

func decodeChatRequest(t *testing.T, r *http.Request) chatRequest {
	t.Helper()
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Errorf("failed to decode request: %v", err)
	}
	return req
}

func TestNewOllamaProvider(t *testing.T) {
	provider := mustProvider(t, "http://localhost:11434/")

	if provider.Name() != "ollama-test-model" {
		t.Errorf("Expected name 'ollama-test-model', got '%s'", provider.Name())
	}

	if provider.baseURL != "http://localhost:11434" {
		t.Errorf("Expected trailing slash trimmed, got '%s'", provider.baseURL)
	}
}

func TestNewOllamaProvider_DefaultModel(t *testing.T) {
	provider, err := NewOllamaProvider("http://localhost:11434", "")
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}
	if provider.Name() != "ollama-"+DefaultModel {
		t.Errorf("Expected default model, got '%s'", provider.Name())
	}
}

func TestNewOllamaProvider_MissingBaseURL(t *testing.T) {
	_, err := NewOllamaProvider("  ", "test-model")
	if !errors.Is(err, ErrMissingBaseURL) {
		t.Errorf("Expected ErrMissingBaseURL, got %v", err)
	}
}

func TestOllamaProviderGenerate_TranslationPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Expected path '/api/chat', got '%s'", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got '%s'", r.Method)
		}

		req := decodeChatRequest(t, r)
		if req.Model != "test-model" || req.Stream {
			t.Errorf("Unexpected model/stream: %+v", req)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Fatalf("Expected a single user message, got %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[0].Content, "京都の天気") {
			t.Errorf("Prompt not forwarded verbatim: %q", req.Messages[0].Content)
		}
		if req.Options.Temperature != 0.3 || req.Options.NumPredict != 0 {
			t.Errorf("Unexpected options: %+v", req.Options)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"message":           map[string]string{"role": "assistant", "content": "TRANSLATION: Weather in Kyoto"},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        8,
		})
	}))
	defer server.Close()

	provider := mustProvider(t, server.URL)

	req := llm.Prompt("Translate: 京都の天気")
	req.Temperature = 0.3

	resp, err := provider.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Content != "TRANSLATION: Weather in Kyoto" {
		t.Errorf("Unexpected content '%s'", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("Expected finish reason 'stop', got '%s'", resp.FinishReason)
	}
	if resp.TokensUsed != 20 {
		t.Errorf("Expected 20 tokens used, got %d", resp.TokensUsed)
	}
}

func TestOllamaProviderGenerate_SystemPromptAndMaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeChatRequest(t, r)

		if len(req.Messages) != 3 {
			t.Fatalf("Expected 3 messages, got %+v", req.Messages)
		}
		if req.Messages[0].Role != "system" || req.Messages[0].Content != "You are a travel assistant" {
			t.Errorf("System prompt should be the first message, got %+v", req.Messages[0])
		}
		if req.Messages[1].Role != "assistant" || req.Messages[2].Role != "user" {
			t.Errorf("Roles not preserved: %+v", req.Messages)
		}
		if req.Options.NumPredict != 256 {
			t.Errorf("Expected num_predict 256, got %d", req.Options.NumPredict)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"message":     map[string]string{"role": "assistant", "content": "ok"},
			"done":        true,
			"done_reason": "length",
		})
	}))
	defer server.Close()

	provider := mustProvider(t, server.URL)

	resp, err := provider.Generate(context.Background(), llm.GenerateRequest{
		SystemPrompt: "You are a travel assistant",
		Messages: []llm.Message{
			{Role: "assistant", Content: "こんにちは！"},
			{Role: "user", Content: "元気ですか？"},
		},
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.FinishReason != "length" {
		t.Errorf("Expected finish reason 'length', got '%s'", resp.FinishReason)
	}
}

func TestOllamaProviderGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"test-model\" not found"}`))
	}))
	defer server.Close()

	provider := mustProvider(t, server.URL)

	_, err := provider.Generate(context.Background(), llm.Prompt("テスト"))
	if err == nil {
		t.Fatal("Expected error when server returns 404")
	}
	if !strings.Contains(err.Error(), "status=404") || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestOllamaProviderGenerate_ServerErrorWithoutJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>secret stack trace</html>"))
	}))
	defer server.Close()

	provider := mustProvider(t, server.URL)

	_, err := provider.Generate(context.Background(), llm.Prompt("テスト"))
	if err == nil {
		t.Fatal("Expected error when server returns 500")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Errorf("Raw body should not leak into the error: %v", err)
	}
}

func TestOllamaProviderGenerate_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 応答を返さずに待機する
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	provider := mustProvider(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := provider.Generate(ctx, llm.Prompt("テスト"))
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Generate should return at the deadline, took %s", elapsed)
	}
}
