// Package llm defines the provider contract shared by every LLM backend and
// the operations derived from it.
//
// A Provider only has to implement GenerateText. Translation, code
// generation, code explanation, summarization, agent role-play, math solving
// and reasoning are implemented once in this package by building a
// specialised prompt and delegating to GenerateText, gated by the provider's
// CapabilitySet.
//
// Errors come in two classes:
//   - Result-carried failures (network errors, vendor errors, unsupported
//     capabilities) are reported through Outcome.Success / Outcome.Error.
//   - Configuration errors (*ConfigError) are returned as a Go error and
//     never folded into a Result.
//
// Example usage:
//
//	p := deepseek.New(llm.ProviderConfig{APIKey: os.Getenv("DEEPSEEK_API_KEY")})
//	res, err := llm.SolveMath(ctx, p, "2x + 3 = 11")
//	if err != nil {
//	    var cfgErr *llm.ConfigError
//	    if errors.As(err, &cfgErr) {
//	        // fix configuration
//	    }
//	}
//	if !res.Success {
//	    log.Println(res.Error)
//	}
package llm
