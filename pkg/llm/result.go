package llm

import "errors"

// Usage reports token accounting for a single call. Fields are zero when the
// vendor does not report them.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewUsage builds a Usage whose total is prompt + completion.
func NewUsage(prompt, completion int) Usage {
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// NormalizeUsage keeps a vendor reported total and fills it in from the
// parts when the vendor left it out.
func NormalizeUsage(prompt, completion, total int) Usage {
	if total == 0 {
		total = prompt + completion
	}
	return Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}
}

// Outcome is the success/failure envelope shared by every result type.
type Outcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Usage   Usage  `json:"usage"`

	// Cause is the underlying error of a failure, usually an *APIError.
	Cause error `json:"-"`
}

// Err returns nil for a success and the failure cause otherwise.
func (o Outcome) Err() error {
	if o.Success {
		return nil
	}
	if o.Cause != nil {
		return o.Cause
	}
	if o.Error != "" {
		return errors.New(o.Error)
	}
	return ErrGenerationFailed
}

// Result is the outcome of GenerateText.
type Result struct {
	Outcome
	Text string `json:"text,omitempty"`
}

// Succeeded builds a successful Result.
func Succeeded(text string, usage Usage) Result {
	return Result{Outcome: Outcome{Success: true, Usage: usage}, Text: text}
}

// Failed builds a failed Result carrying err.
func Failed(err error) Result {
	if err == nil {
		err = ErrGenerationFailed
	}
	return Result{Outcome: Outcome{Error: err.Error(), Cause: err}}
}

// Unsupported builds the failure returned when a provider lacks capability c.
func Unsupported(c Capability) Result {
	return Failed(&UnsupportedError{Capability: c})
}

// TranslationResult is returned by TranslateText.
type TranslationResult struct {
	Outcome
	Text           string `json:"text,omitempty"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
}

// CodeResult is returned by GenerateCode.
type CodeResult struct {
	Outcome
	Code     string `json:"code,omitempty"`
	Language string `json:"language,omitempty"`
}

// AgentResult is returned by ActAsAgent.
type AgentResult struct {
	Outcome
	Response string `json:"response,omitempty"`
	Role     string `json:"role,omitempty"`
}

// ExplanationResult is returned by ExplainCode.
type ExplanationResult struct {
	Outcome
	Explanation string `json:"explanation,omitempty"`
	Language    string `json:"language,omitempty"`
}

// SummaryResult is returned by SummarizeText. Lengths count characters.
type SummaryResult struct {
	Outcome
	Summary        string `json:"summary,omitempty"`
	OriginalLength int    `json:"original_length"`
	SummaryLength  int    `json:"summary_length"`
}

// MathResult is returned by SolveMath. Steps is empty when none could be
// recognised in the answer.
type MathResult struct {
	Outcome
	Solution string   `json:"solution,omitempty"`
	Steps    []string `json:"steps,omitempty"`
}

// ReasoningResult is returned by PerformReasoning. Conclusion is empty when
// the answer has no recognisable concluding sentence.
type ReasoningResult struct {
	Outcome
	Reasoning  string `json:"reasoning,omitempty"`
	Conclusion string `json:"conclusion,omitempty"`
}
