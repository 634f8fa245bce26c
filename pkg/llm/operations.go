package llm

import (
	"context"
	"strings"
	"unicode/utf8"
)

const (
	autoLanguage    = "auto"
	genericLanguage = "generic"

	// DefaultSummaryLength is used when SummarizeText gets a non-positive maximum.
	DefaultSummaryLength = 200
)

// Sampling temperatures forced by the derived operations.
const (
	TranslationTemperature = 0.3
	CodeTemperature        = 0.2
	AgentTemperature       = 0.7
	ExplainTemperature     = 0.4
	SummaryTemperature     = 0.3
	MathTemperature        = 0.1
	ReasoningTemperature   = 0.3
)

// derive checks capability c and, when present, delegates prompt to
// GenerateText with the given temperature. A missing capability returns
// the Unsupported failure without touching the network.
func derive(ctx context.Context, p Provider, c Capability, prompt string, temperature float64) (Result, error) {
	if !p.Capabilities().Has(c) {
		return Unsupported(c), nil
	}
	return p.GenerateText(ctx, prompt, Params{ParamTemperature: temperature})
}

// TranslateText translates text into target. An empty source lets the model
// detect the language and is reported as "auto".
func TranslateText(ctx context.Context, p Provider, text, target, source string) (TranslationResult, error) {
	if source == "" {
		source = autoLanguage
	}
	res, err := derive(ctx, p, CapabilityTranslation, buildTranslationPrompt(text, target, source), TranslationTemperature)
	if err != nil || !res.Success {
		return TranslationResult{Outcome: res.Outcome}, err
	}
	return TranslationResult{
		Outcome:        res.Outcome,
		Text:           strings.TrimSpace(res.Text),
		SourceLanguage: source,
		TargetLanguage: target,
	}, nil
}

// GenerateCode writes code for description. The language defaults to "generic".
func GenerateCode(ctx context.Context, p Provider, description, language string) (CodeResult, error) {
	if language == "" {
		language = genericLanguage
	}
	res, err := derive(ctx, p, CapabilityCodeGeneration, buildCodePrompt(description, language), CodeTemperature)
	if err != nil || !res.Success {
		return CodeResult{Outcome: res.Outcome}, err
	}
	return CodeResult{
		Outcome:  res.Outcome,
		Code:     unwrapCode(res.Text),
		Language: language,
	}, nil
}

// ActAsAgent asks the model to perform task in the given role. contextData is
// rendered as a JSON block and left out when empty.
func ActAsAgent(ctx context.Context, p Provider, role, task string, contextData map[string]any) (AgentResult, error) {
	res, err := derive(ctx, p, CapabilityAgent, buildAgentPrompt(role, task, contextData), AgentTemperature)
	if err != nil || !res.Success {
		return AgentResult{Outcome: res.Outcome}, err
	}
	return AgentResult{
		Outcome:  res.Outcome,
		Response: strings.TrimSpace(res.Text),
		Role:     role,
	}, nil
}

// ExplainCode explains code. The language defaults to "auto".
func ExplainCode(ctx context.Context, p Provider, code, language string) (ExplanationResult, error) {
	if language == "" {
		language = autoLanguage
	}
	res, err := derive(ctx, p, CapabilityCodeAnalysis, buildExplainPrompt(code, language), ExplainTemperature)
	if err != nil || !res.Success {
		return ExplanationResult{Outcome: res.Outcome}, err
	}
	return ExplanationResult{
		Outcome:     res.Outcome,
		Explanation: strings.TrimSpace(res.Text),
		Language:    language,
	}, nil
}

// SummarizeText summarizes text in at most maxLength characters (200 when
// maxLength <= 0). Lengths in the result are character counts.
func SummarizeText(ctx context.Context, p Provider, text string, maxLength int) (SummaryResult, error) {
	if maxLength <= 0 {
		maxLength = DefaultSummaryLength
	}
	res, err := derive(ctx, p, CapabilitySummarization, buildSummaryPrompt(text, maxLength), SummaryTemperature)
	if err != nil || !res.Success {
		return SummaryResult{Outcome: res.Outcome}, err
	}
	summary := strings.TrimSpace(res.Text)
	return SummaryResult{
		Outcome:        res.Outcome,
		Summary:        summary,
		OriginalLength: utf8.RuneCountInString(text),
		SummaryLength:  utf8.RuneCountInString(summary),
	}, nil
}

// SolveMath solves problem and extracts the worked steps when it can.
func SolveMath(ctx context.Context, p Provider, problem string) (MathResult, error) {
	res, err := derive(ctx, p, CapabilityMathSolving, buildMathPrompt(problem), MathTemperature)
	if err != nil || !res.Success {
		return MathResult{Outcome: res.Outcome}, err
	}
	solution := strings.TrimSpace(res.Text)
	return MathResult{
		Outcome:  res.Outcome,
		Solution: solution,
		Steps:    extractSteps(solution),
	}, nil
}

// PerformReasoning reasons about question and extracts a concluding sentence
// when it can.
func PerformReasoning(ctx context.Context, p Provider, question string, contextData map[string]any) (ReasoningResult, error) {
	res, err := derive(ctx, p, CapabilityReasoning, buildReasoningPrompt(question, contextData), ReasoningTemperature)
	if err != nil || !res.Success {
		return ReasoningResult{Outcome: res.Outcome}, err
	}
	reasoning := strings.TrimSpace(res.Text)
	return ReasoningResult{
		Outcome:    res.Outcome,
		Reasoning:  reasoning,
		Conclusion: extractConclusion(reasoning),
	}, nil
}
