package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIClientComplete(t *testing.T) {
	var got openaiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-1" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "hi there"}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "key-1", "gpt-4.1-nano", srv.Client())
	out, err := c.Complete(context.Background(), "be brief", []string{"hello", "how are you"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "hi there" {
		t.Fatalf("unexpected response %q", out)
	}
	if len(got.Messages) != 3 || got.Messages[0].Role != "system" {
		t.Fatalf("expected system + 2 user messages, got %+v", got.Messages)
	}
	if got.Messages[2].Content != "how are you" {
		t.Fatalf("expected last user message preserved, got %q", got.Messages[2].Content)
	}
}

func TestOpenAIClientComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "k", "m", srv.Client())
	if _, err := c.Complete(context.Background(), "p", []string{"hola"}); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}

func TestOpenAIClientComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "k", "m", srv.Client())
	if _, err := c.Complete(context.Background(), "p", []string{"hola"}); err == nil {
		t.Fatalf("expected error on http 429")
	}
}
