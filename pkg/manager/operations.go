package manager

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"llmbridge/pkg/llm"
	"llmbridge/pkg/logger"
	"llmbridge/pkg/strategy"
)

// aliasedProvider resolves model aliases before delegating, so derived
// operations see the same aliasing as direct calls.
type aliasedProvider struct {
	llm.Provider
	resolve func(string) string
}

func (a aliasedProvider) GenerateText(ctx context.Context, prompt string, params llm.Params) (llm.Result, error) {
	model := params.Model()
	if model == "" {
		model = a.DefaultParams().Model()
	}
	if resolved := a.resolve(model); resolved != model {
		params = params.Clone()
		if params == nil {
			params = llm.Params{}
		}
		params[llm.ParamModel] = resolved
		model = resolved
	}
	annotateModel(ctx, model)
	return a.Provider.GenerateText(ctx, prompt, params)
}

// route turns the name a caller passed into a provider name. An empty name
// means the default provider and "auto" consults the routing rules.
func (m *Manager) route(provider string, req strategy.Request) string {
	switch provider {
	case "":
		return m.DefaultProvider()
	case AutoProvider:
		if m.resolver != nil {
			if name := m.resolver.Resolve(req); name != "" && m.IsValidProvider(name) {
				logger.Debug("routing rules picked provider", "provider", name, "operation", req.Operation)
				return name
			}
		}
		return m.DefaultProvider()
	default:
		return provider
	}
}

// run resolves the provider for one call and wraps call in a span.
func (m *Manager) run(ctx context.Context, provider string, req strategy.Request, call func(context.Context, llm.Provider) (llm.Outcome, error)) error {
	name := m.route(provider, req)
	p, err := m.GetProvider(name)
	if err != nil {
		return err
	}

	ctx, rec := m.telemetry.start(ctx, req.Operation, name)
	out, err := call(ctx, aliasedProvider{Provider: p, resolve: m.ResolveModel})
	rec.end(out, err)
	if err == nil && !out.Success {
		logger.Debug("provider call failed", "provider", name, "operation", req.Operation, "error", out.Error)
	}
	return err
}

// GenerateText sends prompt to provider ("" for the default, "auto" for the
// routing rules). A model alias in params is resolved first.
func (m *Manager) GenerateText(ctx context.Context, prompt string, params llm.Params, provider string) (llm.Result, error) {
	req := strategy.Request{Prompt: prompt, Model: m.ResolveModel(params.Model()), Operation: "generate"}
	req.Temperature, _ = params.Float(llm.ParamTemperature)
	req.MaxTokens, _ = params.Int(llm.ParamMaxTokens)

	var res llm.Result
	err := m.run(ctx, provider, req, func(ctx context.Context, p llm.Provider) (llm.Outcome, error) {
		var err error
		res, err = p.GenerateText(ctx, prompt, params)
		return res.Outcome, err
	})
	return res, err
}

// TranslateText runs llm.TranslateText on provider.
func (m *Manager) TranslateText(ctx context.Context, text, target, source, provider string) (llm.TranslationResult, error) {
	req := strategy.Request{Prompt: text, Temperature: llm.TranslationTemperature, Operation: "translate"}
	var res llm.TranslationResult
	err := m.run(ctx, provider, req, func(ctx context.Context, p llm.Provider) (llm.Outcome, error) {
		var err error
		res, err = llm.TranslateText(ctx, p, text, target, source)
		return res.Outcome, err
	})
	return res, err
}

// GenerateCode runs llm.GenerateCode on provider.
func (m *Manager) GenerateCode(ctx context.Context, description, language, provider string) (llm.CodeResult, error) {
	req := strategy.Request{Prompt: description, Temperature: llm.CodeTemperature, Operation: "code"}
	var res llm.CodeResult
	err := m.run(ctx, provider, req, func(ctx context.Context, p llm.Provider) (llm.Outcome, error) {
		var err error
		res, err = llm.GenerateCode(ctx, p, description, language)
		return res.Outcome, err
	})
	return res, err
}

// ActAsAgent runs llm.ActAsAgent on provider.
func (m *Manager) ActAsAgent(ctx context.Context, role, task string, contextData map[string]any, provider string) (llm.AgentResult, error) {
	req := strategy.Request{Prompt: task, Temperature: llm.AgentTemperature, Operation: "agent"}
	var res llm.AgentResult
	err := m.run(ctx, provider, req, func(ctx context.Context, p llm.Provider) (llm.Outcome, error) {
		var err error
		res, err = llm.ActAsAgent(ctx, p, role, task, contextData)
		return res.Outcome, err
	})
	return res, err
}

// ExplainCode runs llm.ExplainCode on provider.
func (m *Manager) ExplainCode(ctx context.Context, code, language, provider string) (llm.ExplanationResult, error) {
	req := strategy.Request{Prompt: code, Temperature: llm.ExplainTemperature, Operation: "explain"}
	var res llm.ExplanationResult
	err := m.run(ctx, provider, req, func(ctx context.Context, p llm.Provider) (llm.Outcome, error) {
		var err error
		res, err = llm.ExplainCode(ctx, p, code, language)
		return res.Outcome, err
	})
	return res, err
}

// SummarizeText runs llm.SummarizeText on provider.
func (m *Manager) SummarizeText(ctx context.Context, text string, maxLength int, provider string) (llm.SummaryResult, error) {
	req := strategy.Request{Prompt: text, Temperature: llm.SummaryTemperature, Operation: "summarize"}
	var res llm.SummaryResult
	err := m.run(ctx, provider, req, func(ctx context.Context, p llm.Provider) (llm.Outcome, error) {
		var err error
		res, err = llm.SummarizeText(ctx, p, text, maxLength)
		return res.Outcome, err
	})
	return res, err
}

// SolveMath runs llm.SolveMath on provider.
func (m *Manager) SolveMath(ctx context.Context, problem, provider string) (llm.MathResult, error) {
	req := strategy.Request{Prompt: problem, Temperature: llm.MathTemperature, Operation: "math"}
	var res llm.MathResult
	err := m.run(ctx, provider, req, func(ctx context.Context, p llm.Provider) (llm.Outcome, error) {
		var err error
		res, err = llm.SolveMath(ctx, p, problem)
		return res.Outcome, err
	})
	return res, err
}

// PerformReasoning runs llm.PerformReasoning on provider.
func (m *Manager) PerformReasoning(ctx context.Context, question string, contextData map[string]any, provider string) (llm.ReasoningResult, error) {
	req := strategy.Request{Prompt: question, Temperature: llm.ReasoningTemperature, Operation: "reasoning"}
	var res llm.ReasoningResult
	err := m.run(ctx, provider, req, func(ctx context.Context, p llm.Provider) (llm.Outcome, error) {
		var err error
		res, err = llm.PerformReasoning(ctx, p, question, contextData)
		return res.Outcome, err
	})
	return res, err
}

// Comparison is one provider's answer in a Compare call.
type Comparison struct {
	Provider string     `json:"provider"`
	Result   llm.Result `json:"result"`
}

// Compare sends the same prompt to several providers concurrently and
// returns their results in the order given. Every provider is resolved
// before any request is sent; a fatal error for one name aborts the whole
// call.
func (m *Manager) Compare(ctx context.Context, prompt string, params llm.Params, providers ...string) ([]Comparison, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no providers to compare", ErrInvalidProvider)
	}
	for _, name := range providers {
		if name == AutoProvider {
			continue
		}
		if _, err := m.GetProvider(name); err != nil {
			return nil, err
		}
	}

	out := make([]Comparison, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	if m.compareLimit > 0 {
		g.SetLimit(m.compareLimit)
	}
	for i, name := range providers {
		g.Go(func() error {
			res, err := m.GenerateText(gctx, prompt, params, name)
			if err != nil {
				return fmt.Errorf("compare %s: %w", name, err)
			}
			if name == "" {
				name = m.DefaultProvider()
			}
			out[i] = Comparison{Provider: name, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
