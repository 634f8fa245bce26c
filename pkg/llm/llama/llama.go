package llama

import (
	"context"
	"strings"

	"llmbridge/pkg/llm"
)

const (
	// Name is the provider identifier used in configuration.
	Name = "llama"

	// DefaultModel is used when neither the request nor the configuration
	// specifies one.
	DefaultModel = "llama-3-8b-instruct"

	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

// Provider talks to a Llama model behind an OpenAI-compatible
// chat-completions endpoint. base_url is mandatory since there is no
// canonical host.
type Provider struct {
	*llm.Base
}

// New creates a Llama provider from cfg.
func New(cfg llm.ProviderConfig) *Provider {
	return &Provider{Base: llm.NewBase(llm.BaseSpec{
		Name:        Name,
		DisplayName: "Llama",
		Config:      cfg,
		Capabilities: []llm.Capability{
			llm.CapabilityTextGeneration,
			llm.CapabilityTranslation,
			llm.CapabilityCodeGeneration,
			llm.CapabilitySummarization,
		},
		DefaultModel:       DefaultModel,
		DefaultMaxTokens:   defaultMaxTokens,
		DefaultTemperature: defaultTemperature,
		RequireBaseURL:     true,
	})}
}

// FormatPrompt adapts prompt to the conventions of model: chat-tuned models
// take it as is, instruct-tuned models get [INST] delimiters.
func FormatPrompt(model, prompt string) string {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "chat"):
		return prompt
	case strings.Contains(m, "instruct"):
		return "[INST] " + prompt + " [/INST]"
	default:
		return prompt
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
	TopP        *float64  `json:"top_p,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

type response struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateText posts the formatted prompt to /chat/completions.
func (p *Provider) GenerateText(ctx context.Context, prompt string, params llm.Params) (llm.Result, error) {
	if err := p.Validate(); err != nil {
		return llm.Result{}, err
	}
	merged := p.Merge(params)
	model := merged.Model()
	temperature, _ := merged.Float(llm.ParamTemperature)
	maxTokens, _ := merged.Int(llm.ParamMaxTokens)
	stop, _ := merged.Strings(llm.ParamStop)

	req := request{
		Model:       model,
		Messages:    []message{{Role: "user", Content: FormatPrompt(model, prompt)}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
		TopP:        merged.FloatPtr(llm.ParamTopP),
		Stop:        stop,
	}
	headers := map[string]string{"Authorization": "Bearer " + p.Config().APIKey}

	raw, err := p.PostJSON(ctx, "/chat/completions", headers, req)
	if err != nil {
		return llm.Failed(err), nil
	}
	var resp response
	if err := p.Decode(raw, &resp); err != nil {
		return llm.Failed(err), nil
	}
	if len(resp.Choices) == 0 {
		return llm.Failed(p.Empty(raw)), nil
	}

	var usage llm.Usage
	if resp.Usage != nil {
		usage = llm.NormalizeUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	}
	return llm.Succeeded(resp.Choices[0].Message.Content, usage), nil
}
