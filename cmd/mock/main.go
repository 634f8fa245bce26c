package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	"llmbridge/pkg/logger"
)

const mockReply = "Hello! this is a mock non-streaming response."

// MockVendor fakes the OpenAI and Anthropic HTTP APIs so the bridge can be
// exercised without real credentials. Point a provider's base_url at it.
type MockVendor struct {
	Latency time.Duration
}

type mockUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Handler routes the vendor endpoints.
func (m *MockVendor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", m.handleChat)
	mux.HandleFunc("POST /v1/completions", m.handleCompletion)
	mux.HandleFunc("POST /v1/messages", m.handleMessages)
	return mux
}

func (m *MockVendor) wait(r *http.Request) bool {
	if m.Latency <= 0 {
		return true
	}
	select {
	case <-time.After(m.Latency): // simulate network latency
		return true
	case <-r.Context().Done():
		return false
	}
}

func (m *MockVendor) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid JSON"}}`, http.StatusBadRequest)
		return
	}
	if !m.wait(r) {
		return
	}
	prompt := ""
	if len(req.Messages) > 0 {
		prompt = req.Messages[len(req.Messages)-1].Content
	}
	writeMock(w, map[string]any{
		"id":      "chatcmpl-mock",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": mockReply},
			"finish_reason": "stop",
		}},
		"usage": usageFor(prompt),
	})
}

func (m *MockVendor) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid JSON"}}`, http.StatusBadRequest)
		return
	}
	if !m.wait(r) {
		return
	}
	writeMock(w, map[string]any{
		"id":      "cmpl-mock",
		"object":  "text_completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]any{{"index": 0, "text": mockReply, "finish_reason": "stop"}},
		"usage":   usageFor(req.Prompt),
	})
}

func (m *MockVendor) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("x-api-key") == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"missing x-api-key"}}`))
		return
	}
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid JSON"}}`, http.StatusBadRequest)
		return
	}
	if !m.wait(r) {
		return
	}
	prompt := ""
	if len(req.Messages) > 0 {
		prompt = req.Messages[0].Content
	}
	u := usageFor(prompt)
	writeMock(w, map[string]any{
		"id":          "msg_mock",
		"type":        "message",
		"role":        "assistant",
		"model":       req.Model,
		"content":     []map[string]string{{"type": "text", "text": mockReply}},
		"stop_reason": "end_turn",
		"usage":       map[string]int{"input_tokens": u.PromptTokens, "output_tokens": u.CompletionTokens},
	})
}

// usageFor approximates tokens as whitespace separated words.
func usageFor(prompt string) mockUsage {
	in := len(strings.Fields(prompt))
	out := len(strings.Fields(mockReply))
	return mockUsage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}
}

func writeMock(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode mock response", "error", err)
	}
}

func main() {
	addr := flag.String("addr", ":8081", "Listen address")
	latency := flag.Duration("latency", 500*time.Millisecond, "Simulated response latency")
	flag.Parse()

	m := &MockVendor{Latency: *latency}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	fmt.Printf("[Mock] Starting mock vendor API on %s (base_url http://localhost%s/v1)\n", *addr, *addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("Mock Server stopped: %v", err)
	}
}
