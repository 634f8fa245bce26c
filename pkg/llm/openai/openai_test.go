package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"llmbridge/pkg/llm"
)

func TestModeForModel(t *testing.T) {
	tests := map[string]Mode{
		"gpt-4":              ModeChat,
		"gpt-3.5-turbo":      ModeChat,
		"GPT-4o":             ModeChat,
		"chatgpt-4o-latest":  ModeChat,
		"o1-preview":         ModeChat,
		"text-davinci-003":   ModeCompletion,
		"davinci-002":        ModeCompletion,
		"babbage-002":        ModeCompletion,
		"some-unknown-model": ModeChat,
		"":                   ModeChat,
	}
	for model, want := range tests {
		if got := ModeForModel(model); got != want {
			t.Errorf("ModeForModel(%q) = %s, want %s", model, got, want)
		}
	}
}

func newServer(t *testing.T, captured *map[string]any, gotPath, gotAuth *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotPath = r.URL.Path
		*gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if strings.HasSuffix(r.URL.Path, "/chat/completions") {
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"chat reply"}}],"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}`))
			return
		}
		w.Write([]byte(`{"choices":[{"text":"legacy reply"}],"usage":{"prompt_tokens":2,"completion_tokens":2}}`))
	}))
}

func TestGenerateText_Dispatch(t *testing.T) {
	tests := []struct {
		model    string
		wantPath string
		wantText string
		wantKey  string
	}{
		{"gpt-4", "/chat/completions", "chat reply", "messages"},
		{"text-davinci-003", "/completions", "legacy reply", "prompt"},
		{"some-unknown-model", "/chat/completions", "chat reply", "messages"},
	}
	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			var body map[string]any
			var path, auth string
			srv := newServer(t, &body, &path, &auth)
			defer srv.Close()

			p := New(llm.ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL})
			res, err := p.GenerateText(context.Background(), "hi", llm.Params{llm.ParamModel: tc.model})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !res.Success || res.Text != tc.wantText {
				t.Fatalf("unexpected result: %+v", res)
			}
			if path != tc.wantPath {
				t.Errorf("path = %q, want %q", path, tc.wantPath)
			}
			if auth != "Bearer sk-test" {
				t.Errorf("authorization = %q", auth)
			}
			if _, ok := body[tc.wantKey]; !ok {
				t.Errorf("request body missing %q: %v", tc.wantKey, body)
			}
			if body["model"] != tc.model {
				t.Errorf("model = %v", body["model"])
			}
		})
	}
}

func TestGenerateText_Usage(t *testing.T) {
	var body map[string]any
	var path, auth string
	srv := newServer(t, &body, &path, &auth)
	defer srv.Close()

	p := New(llm.ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	res, _ := p.GenerateText(context.Background(), "hi", llm.Params{llm.ParamModel: "text-davinci-003"})
	if res.Usage.TotalTokens != 4 {
		t.Errorf("missing total should be computed, got %+v", res.Usage)
	}
	res, _ = p.GenerateText(context.Background(), "hi", nil)
	if res.Usage != (llm.Usage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7}) {
		t.Errorf("usage = %+v", res.Usage)
	}
}

func TestGenerateText_OptionalParams(t *testing.T) {
	var body map[string]any
	var path, auth string
	srv := newServer(t, &body, &path, &auth)
	defer srv.Close()

	p := New(llm.ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	if _, err := p.GenerateText(context.Background(), "hi", nil); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"top_p", "frequency_penalty", "presence_penalty", "stop"} {
		if _, ok := body[key]; ok {
			t.Errorf("%s should be omitted when unset", key)
		}
	}
	if body["model"] != DefaultModel || body["max_tokens"] != float64(1000) || body["temperature"] != 0.7 {
		t.Errorf("defaults not applied: %v", body)
	}

	body = nil
	params := llm.Params{llm.ParamTopP: 0.5, llm.ParamPresencePenalty: 0.1, llm.ParamStop: "END", llm.ParamTemperature: 0.2}
	if _, err := p.GenerateText(context.Background(), "hi", params); err != nil {
		t.Fatal(err)
	}
	if body["top_p"] != 0.5 || body["presence_penalty"] != 0.1 || body["temperature"] != 0.2 {
		t.Errorf("params not forwarded: %v", body)
	}
	if stop, ok := body["stop"].([]any); !ok || len(stop) != 1 || stop[0] != "END" {
		t.Errorf("stop = %v", body["stop"])
	}
}

func TestGenerateText_MissingAPIKey(t *testing.T) {
	p := New(llm.ProviderConfig{})
	_, err := p.GenerateText(context.Background(), "hi", nil)
	if !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestGenerateText_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := New(llm.ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	res, err := p.GenerateText(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("HTTP failures belong in the result, got %v", err)
	}
	if res.Success || !strings.HasPrefix(res.Error, "OpenAI API error (HTTP 401)") {
		t.Errorf("unexpected result: %+v", res)
	}
	var apiErr *llm.APIError
	if !errors.As(res.Err(), &apiErr) || !apiErr.IsAuthError() {
		t.Errorf("expected auth APIError cause, got %v", res.Err())
	}
}

func TestGenerateText_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := New(llm.ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	res, _ := p.GenerateText(context.Background(), "hi", nil)
	if res.Success || !errors.Is(res.Err(), llm.ErrEmptyResponse) {
		t.Errorf("expected empty response failure, got %+v", res)
	}
}

func TestCapabilities(t *testing.T) {
	caps := New(llm.ProviderConfig{}).Capabilities()
	if caps.Len() != 6 {
		t.Errorf("expected 6 capabilities, got %v", caps.List())
	}
	if caps.Has(llm.CapabilityMathSolving) || caps.Has(llm.CapabilityReasoning) {
		t.Error("openai should not advertise math or reasoning")
	}
}
