package deepseek

import (
	"context"

	"llmbridge/pkg/llm"
)

const (
	// Name is the provider identifier used in configuration.
	Name = "deepseek"

	// DefaultModel is used when neither the request nor the configuration
	// specifies one.
	DefaultModel = "deepseek-chat"

	defaultBaseURL     = "https://api.deepseek.com/v1"
	defaultMaxTokens   = 2000
	defaultTemperature = 0.7
)

// Provider implements the DeepSeek chat-completions API. It is the only
// built-in provider with math_solving and reasoning.
type Provider struct {
	*llm.Base
}

// New creates a DeepSeek provider from cfg.
func New(cfg llm.ProviderConfig) *Provider {
	return &Provider{Base: llm.NewBase(llm.BaseSpec{
		Name:               Name,
		DisplayName:        "DeepSeek",
		Config:             cfg,
		Capabilities:       llm.AllCapabilities,
		DefaultBaseURL:     defaultBaseURL,
		DefaultModel:       DefaultModel,
		DefaultMaxTokens:   defaultMaxTokens,
		DefaultTemperature: defaultTemperature,
	})}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// request omits the optional sampling fields unless the caller set them.
type request struct {
	Model            string    `json:"model"`
	Messages         []message `json:"messages"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	Stream           bool      `json:"stream"`
	TopP             *float64  `json:"top_p,omitempty"`
	FrequencyPenalty *float64  `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64  `json:"presence_penalty,omitempty"`
	Stop             []string  `json:"stop,omitempty"`
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

// GenerateText posts prompt to /chat/completions.
func (p *Provider) GenerateText(ctx context.Context, prompt string, params llm.Params) (llm.Result, error) {
	if err := p.Validate(); err != nil {
		return llm.Result{}, err
	}
	merged := p.Merge(params)
	temperature, _ := merged.Float(llm.ParamTemperature)
	maxTokens, _ := merged.Int(llm.ParamMaxTokens)
	stop, _ := merged.Strings(llm.ParamStop)

	req := request{
		Model:            merged.Model(),
		Messages:         []message{{Role: "user", Content: prompt}},
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		Stream:           false,
		TopP:             merged.FloatPtr(llm.ParamTopP),
		FrequencyPenalty: merged.FloatPtr(llm.ParamFrequencyPenalty),
		PresencePenalty:  merged.FloatPtr(llm.ParamPresencePenalty),
		Stop:             stop,
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
