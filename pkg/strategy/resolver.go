package strategy

import (
	"unicode/utf8"

	"llmbridge/pkg/config"
)

// Request describes a call being routed. It is flattened into the
// environment rule expressions are evaluated against.
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
	Operation   string // "generate", "translate", "math", ...
}

// Env returns the expression environment for r.
func (r Request) Env() map[string]any {
	return map[string]any{
		"prompt":        r.Prompt,
		"prompt_length": utf8.RuneCountInString(r.Prompt),
		"model":         r.Model,
		"temperature":   r.Temperature,
		"max_tokens":    r.MaxTokens,
		"operation":     r.Operation,
	}
}

// Resolver defines the unified interface for provider routing strategies
type Resolver interface {
	// Name returns the unique identifier for the strategy
	Name() string
	// Resolve returns the target provider name for req.
	// Returns an empty string if it cannot resolve, yielding to the fallback.
	Resolve(req Request) string
}

// NewResolver initializes a resolver from the routing.* keys. routing.type
// defaults to "expression".
func NewResolver(src config.Source) Resolver {
	switch config.String(src, "routing.type", "expression") {
	case "expression":
		return NewExpressionResolver(RulesFromConfig(src), config.String(src, "routing.default_provider", ""))
	case "length":
		return NewLengthResolver(
			config.Int(src, "routing.length.threshold", DefaultLengthThreshold),
			config.String(src, "routing.length.short_provider", ""),
			config.String(src, "routing.default_provider", ""),
		)
	default:
		return nil
	}
}
