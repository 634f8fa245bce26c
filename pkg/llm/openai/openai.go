package openai

import (
	"context"
	"regexp"
	"strings"

	"llmbridge/pkg/llm"
)

const (
	// Name is the provider identifier used in configuration.
	Name = "openai"

	// DefaultModel is used when neither the request nor the configuration
	// specifies one.
	DefaultModel = "gpt-4o-mini"

	defaultBaseURL     = "https://api.openai.com/v1"
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

// Mode selects the request shape for a model.
type Mode int

const (
	// ModeChat posts to /chat/completions with a messages array.
	ModeChat Mode = iota
	// ModeCompletion posts to the legacy /completions endpoint with a prompt.
	ModeCompletion
)

func (m Mode) String() string {
	if m == ModeCompletion {
		return "completion"
	}
	return "chat"
}

var (
	chatModelRe   = regexp.MustCompile(`^(gpt-\d|chatgpt-|o1-)`)
	legacyModelRe = regexp.MustCompile(`^(text-)?(davinci|curie|babbage|ada)`)
)

// ModeForModel picks the request shape for model. Unknown names get the chat
// shape so newly released models keep working.
func ModeForModel(model string) Mode {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case chatModelRe.MatchString(m):
		return ModeChat
	case legacyModelRe.MatchString(m):
		return ModeCompletion
	default:
		return ModeChat
	}
}

// Provider implements the OpenAI API.
type Provider struct {
	*llm.Base
}

// New creates an OpenAI provider from cfg.
func New(cfg llm.ProviderConfig) *Provider {
	return &Provider{Base: llm.NewBase(llm.BaseSpec{
		Name:        Name,
		DisplayName: "OpenAI",
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
	})}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string    `json:"model"`
	Messages         []message `json:"messages"`
	Temperature      float64   `json:"temperature"`
	MaxTokens        int       `json:"max_tokens"`
	TopP             *float64  `json:"top_p,omitempty"`
	FrequencyPenalty *float64  `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64  `json:"presence_penalty,omitempty"`
	Stop             []string  `json:"stop,omitempty"`
}

type completionRequest struct {
	Model            string   `json:"model"`
	Prompt           string   `json:"prompt"`
	Temperature      float64  `json:"temperature"`
	MaxTokens        int      `json:"max_tokens"`
	TopP             *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	Stop             []string `json:"stop,omitempty"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Usage *usage `json:"usage"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
	Usage *usage `json:"usage"`
}

// GenerateText sends prompt as a chat or legacy completion request depending
// on the resolved model.
func (p *Provider) GenerateText(ctx context.Context, prompt string, params llm.Params) (llm.Result, error) {
	if err := p.Validate(); err != nil {
		return llm.Result{}, err
	}
	merged := p.Merge(params)
	if ModeForModel(merged.Model()) == ModeCompletion {
		return p.complete(ctx, prompt, merged), nil
	}
	return p.chat(ctx, prompt, merged), nil
}

func (p *Provider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.Config().APIKey}
}

func (p *Provider) chat(ctx context.Context, prompt string, params llm.Params) llm.Result {
	temperature, _ := params.Float(llm.ParamTemperature)
	maxTokens, _ := params.Int(llm.ParamMaxTokens)
	stop, _ := params.Strings(llm.ParamStop)

	req := chatRequest{
		Model:            params.Model(),
		Messages:         []message{{Role: "user", Content: prompt}},
		Temperature:      temperature,
		MaxTokens:        maxTokens,
		TopP:             params.FloatPtr(llm.ParamTopP),
		FrequencyPenalty: params.FloatPtr(llm.ParamFrequencyPenalty),
		PresencePenalty:  params.FloatPtr(llm.ParamPresencePenalty),
		Stop:             stop,
	}

	raw, err := p.PostJSON(ctx, "/chat/completions", p.headers(), req)
	if err != nil {
		return llm.Failed(err)
	}
	var resp chatResponse
	if err := p.Decode(raw, &resp); err != nil {
		return llm.Failed(err)
	}
	if len(resp.Choices) == 0 {
		return llm.Failed(p.Empty(raw))
	}
	return llm.Succeeded(resp.Choices[0].Message.Content, toUsage(resp.Usage))
}

func (p *Provider) complete(ctx context.Context, prompt string, params llm.Params) llm.Result {
	temperature, _ := params.Float(llm.ParamTemperature)
	maxTokens, _ := params.Int(llm.ParamMaxTokens)
	stop, _ := params.Strings(llm.ParamStop)

	req := completionRequest{
		Model:            params.Model(),
		Prompt:           prompt,
		Temperature:      temperature,
		MaxTokens:        maxTokens,
		TopP:             params.FloatPtr(llm.ParamTopP),
		FrequencyPenalty: params.FloatPtr(llm.ParamFrequencyPenalty),
		PresencePenalty:  params.FloatPtr(llm.ParamPresencePenalty),
		Stop:             stop,
	}

	raw, err := p.PostJSON(ctx, "/completions", p.headers(), req)
	if err != nil {
		return llm.Failed(err)
	}
	var resp completionResponse
	if err := p.Decode(raw, &resp); err != nil {
		return llm.Failed(err)
	}
	if len(resp.Choices) == 0 {
		return llm.Failed(p.Empty(raw))
	}
	return llm.Succeeded(resp.Choices[0].Text, toUsage(resp.Usage))
}

func toUsage(u *usage) llm.Usage {
	if u == nil {
		return llm.Usage{}
	}
	return llm.NormalizeUsage(u.PromptTokens, u.CompletionTokens, u.TotalTokens)
}
