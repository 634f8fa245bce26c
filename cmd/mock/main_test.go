package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"llmbridge/pkg/llm"
	"llmbridge/pkg/llm/claude"
	"llmbridge/pkg/llm/openai"
)

func newMock(t *testing.T, latency time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer((&MockVendor{Latency: latency}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestMockVendor_OpenAIChat(t *testing.T) {
	srv := newMock(t, 0)
	p := openai.New(llm.ProviderConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})

	res, err := p.GenerateText(context.Background(), "say hi", llm.Params{llm.ParamModel: "gpt-4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Text != mockReply {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Usage.PromptTokens != 2 || res.Usage.TotalTokens != 2+len(strings.Fields(mockReply)) {
		t.Errorf("unexpected usage: %+v", res.Usage)
	}
}

func TestMockVendor_OpenAICompletion(t *testing.T) {
	srv := newMock(t, 0)
	p := openai.New(llm.ProviderConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})

	res, err := p.GenerateText(context.Background(), "legacy", llm.Params{llm.ParamModel: "text-davinci-003"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Text != mockReply {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestMockVendor_ClaudeMessages(t *testing.T) {
	srv := newMock(t, 0)
	p := claude.New(llm.ProviderConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})

	res, err := p.GenerateText(context.Background(), "one two three", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Text != mockReply {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Usage.PromptTokens != 3 {
		t.Errorf("expected 3 prompt tokens, got %d", res.Usage.PromptTokens)
	}
}

func TestMockVendor_MessagesRequiresKey(t *testing.T) {
	srv := newMock(t, 0)
	resp, err := http.Post(srv.URL+"/v1/messages", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMockVendor_LatencyHonoursCancellation(t *testing.T) {
	srv := newMock(t, time.Minute)
	p := openai.New(llm.ProviderConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res, err := p.GenerateText(ctx, "slow", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Error("expected failure after context deadline")
	}
}
