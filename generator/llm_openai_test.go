package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestNewOpenAILLMFromConfig_Validation(t *testing.T) {
	if _, err := NewOpenAILLMFromConfig(nil, nil); err == nil {
		t.Error("nil config accepted")
	}
	if _, err := NewOpenAILLMFromConfig(&LLMSettings{Model: "m"}, nil); err == nil {
		t.Error("missing key accepted")
	}
	if _, err := NewOpenAILLMFromConfig(&LLMSettings{APIKey: "k"}, nil); err == nil {
		t.Error("missing model accepted")
	}
}

func TestOpenAILLM_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Model != "gpt-3.5-turbo" || len(body.Messages) != 2 {
			t.Errorf("request = %+v", body)
		}
		if body.Messages[0].Role != "system" || body.Messages[1].Content != "write" {
			t.Errorf("messages = %+v", body.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-3.5-turbo",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"done"}}],
			"usage":{"prompt_tokens":7,"completion_tokens":5,"total_tokens":12}}`))
	}))
	defer srv.Close()

	llm, err := NewOpenAILLMFromConfig(&LLMSettings{Model: "gpt-3.5-turbo", APIKey: "k", BaseURL: srv.URL + "/v1/"}, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	out, err := llm.Complete(context.Background(), Prompt{System: SystemPrompt, User: "write"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Text != "done" || out.TotalTokens != 12 {
		t.Errorf("completion = %+v", out)
	}
}

func TestOpenAILLM_NoRetryOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	llm, _ := NewOpenAILLMFromConfig(&LLMSettings{Model: "m", APIKey: "k", BaseURL: srv.URL + "/v1/"}, srv.Client())
	if _, err := llm.Complete(context.Background(), Prompt{User: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}
