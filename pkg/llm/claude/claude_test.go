package claude

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"llmbridge/pkg/llm"
)

func TestGenerateText_Success(t *testing.T) {
	var gotKey, gotVersion, gotPath string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "Hello"},
				{"type": "tool_use", "text": "ignored"},
				{"type": "text", "text": ", world"}
			],
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	p := New(llm.ProviderConfig{APIKey: "ant-key", BaseURL: srv.URL})
	res, err := p.GenerateText(context.Background(), "greet", llm.Params{llm.ParamStop: []string{"\n\nHuman:"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Text != "Hello, world" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Usage != (llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}) {
		t.Errorf("usage = %+v", res.Usage)
	}
	if gotKey != "ant-key" || gotVersion != DefaultAPIVersion || gotPath != "/messages" {
		t.Errorf("headers/path: key=%q version=%q path=%q", gotKey, gotVersion, gotPath)
	}
	if body["model"] != DefaultModel {
		t.Errorf("model = %v", body["model"])
	}
	if _, ok := body["stop_sequences"]; !ok {
		t.Errorf("stop should be sent as stop_sequences: %v", body)
	}
}

func TestGenerateText_CustomAPIVersion(t *testing.T) {
	var gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("anthropic-version")
		w.Write([]byte(`{"content":[{"type":"text","text":"ok"}],"usage":{}}`))
	}))
	defer srv.Close()

	p := New(llm.ProviderConfig{APIKey: "k", BaseURL: srv.URL, APIVersion: "2024-01-01"})
	if _, err := p.GenerateText(context.Background(), "x", nil); err != nil {
		t.Fatal(err)
	}
	if gotVersion != "2024-01-01" {
		t.Errorf("anthropic-version = %q", gotVersion)
	}
}

func TestGenerateText_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[],"usage":{"input_tokens":1,"output_tokens":0}}`))
	}))
	defer srv.Close()

	p := New(llm.ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	res, err := p.GenerateText(context.Background(), "x", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || !errors.Is(res.Err(), llm.ErrEmptyResponse) {
		t.Errorf("expected empty response failure, got %+v", res)
	}
}

func TestGenerateText_MissingAPIKey(t *testing.T) {
	_, err := New(llm.ProviderConfig{}).GenerateText(context.Background(), "x", nil)
	var cfgErr *llm.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Provider != Name || cfgErr.Field != "api_key" {
		t.Fatalf("expected api_key ConfigError, got %v", err)
	}
}

func TestGenerateText_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	res, err := New(llm.ProviderConfig{APIKey: "k", BaseURL: srv.URL}).GenerateText(context.Background(), "x", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.Error != "Claude API error (HTTP 503): overloaded" {
		t.Errorf("unexpected result: %+v", res)
	}
}
