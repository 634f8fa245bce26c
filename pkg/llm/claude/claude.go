package claude

import (
	"context"
	"strings"

	"llmbridge/pkg/llm"
)

const (
	// Name is the provider identifier used in configuration.
	Name = "claude"

	// DefaultModel is used when neither the request nor the configuration
	// specifies one.
	DefaultModel = "claude-3-5-sonnet-20241022"

	// DefaultAPIVersion is sent as the anthropic-version header when the
	// configuration leaves api_version unset.
	DefaultAPIVersion = "2023-06-01"

	defaultBaseURL     = "https://api.anthropic.com/v1"
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

// Provider implements the Anthropic messages API.
type Provider struct {
	*llm.Base
}

// New creates a Claude provider from cfg. An empty APIVersion is replaced
// by DefaultAPIVersion.
func New(cfg llm.ProviderConfig) *Provider {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	return &Provider{Base: llm.NewBase(llm.BaseSpec{
		Name:        Name,
		DisplayName: "Claude",
		Config:      cfg,
		Capabilities: []llm.Capability{
			llm.CapabilityTextGeneration,
			llm.CapabilityTranslation,
			llm.CapabilityCodeGeneration,
			llm.CapabilityCodeAnalysis,
			llm.CapabilityAgent,
			llm.CapabilitySummarization,
		},
		DefaultBaseURL:     defaultBaseURL,
		DefaultModel:       DefaultModel,
		DefaultMaxTokens:   defaultMaxTokens,
		DefaultTemperature: defaultTemperature,
		RequireAPIVersion:  true,
	})}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model         string    `json:"model"`
	MaxTokens     int       `json:"max_tokens"`
	Temperature   float64   `json:"temperature"`
	Messages      []message `json:"messages"`
	TopP          *float64  `json:"top_p,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// GenerateText posts prompt to /messages. Usage totals are computed locally
// because the API reports input and output tokens separately.
func (p *Provider) GenerateText(ctx context.Context, prompt string, params llm.Params) (llm.Result, error) {
	if err := p.Validate(); err != nil {
		return llm.Result{}, err
	}
	merged := p.Merge(params)
	temperature, _ := merged.Float(llm.ParamTemperature)
	maxTokens, _ := merged.Int(llm.ParamMaxTokens)
	stop, _ := merged.Strings(llm.ParamStop)

	req := request{
		Model:         merged.Model(),
		MaxTokens:     maxTokens,
		Temperature:   temperature,
		Messages:      []message{{Role: "user", Content: prompt}},
		TopP:          merged.FloatPtr(llm.ParamTopP),
		StopSequences: stop,
	}
	headers := map[string]string{
		"x-api-key":         p.Config().APIKey,
		"anthropic-version": p.Config().APIVersion,
	}

	raw, err := p.PostJSON(ctx, "/messages", headers, req)
	if err != nil {
		return llm.Failed(err), nil
	}
	var resp response
	if err := p.Decode(raw, &resp); err != nil {
		return llm.Failed(err), nil
	}

	var text strings.Builder
	found := false
	for _, block := range resp.Content {
		if block.Type != "" && block.Type != "text" {
			continue
		}
		text.WriteString(block.Text)
		found = true
	}
	if !found {
		return llm.Failed(p.Empty(raw)), nil
	}
	return llm.Succeeded(text.String(), llm.NewUsage(resp.Usage.InputTokens, resp.Usage.OutputTokens)), nil
}
