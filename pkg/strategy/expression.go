package strategy

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"llmbridge/pkg/config"
	"llmbridge/pkg/logger"
)

// Rule is a routing rule as written in configuration.
type Rule struct {
	Condition string
	Provider  string
}

// RulesFromConfig reads routing.rules. Entries without a condition or
// provider are skipped.
func RulesFromConfig(src config.Source) []Rule {
	var rules []Rule
	for i, raw := range config.Slice(src, "routing.rules") {
		m, ok := raw.(map[string]any)
		if !ok {
			logger.Warn("routing rule is not a mapping", "index", i)
			continue
		}
		entry := config.NewStore(m)
		rule := Rule{
			Condition: config.String(entry, "condition", ""),
			Provider:  config.String(entry, "provider", ""),
		}
		if rule.Condition == "" || rule.Provider == "" {
			logger.Warn("routing rule needs condition and provider", "index", i)
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

// ExpressionResolver dynamically parses logical expressions
type ExpressionResolver struct {
	rules           []CompiledRule
	defaultProvider string
}

// CompiledRule caches the byte code of the parsed condition
type CompiledRule struct {
	Program  *vm.Program
	Provider string
}

// NewExpressionResolver compiles rules once. Rules that fail to compile are
// dropped.
func NewExpressionResolver(rules []Rule, defaultProvider string) *ExpressionResolver {
	var compiledRules []CompiledRule

	for _, rule := range rules {
		program, err := expr.Compile(rule.Condition, expr.AllowUndefinedVariables(), expr.AsBool())
		if err != nil {
			logger.Warn("failed to compile routing rule", "condition", rule.Condition, "error", err)
			continue
		}

		compiledRules = append(compiledRules, CompiledRule{
			Program:  program,
			Provider: rule.Provider,
		})
	}

	return &ExpressionResolver{
		rules:           compiledRules,
		defaultProvider: defaultProvider,
	}
}

func (e *ExpressionResolver) Name() string {
	return "expression"
}

// Len returns the number of compiled rules.
func (e *ExpressionResolver) Len() int { return len(e.rules) }

// Resolve returns the provider of the first rule that evaluates to true.
func (e *ExpressionResolver) Resolve(req Request) string {
	env := req.Env()

	for _, rule := range e.rules {
		matched, err := expr.Run(rule.Program, env)
		if err != nil {
			// Evaluation errors fall through to the next rule.
			logger.Debug("routing rule evaluation failed", "provider", rule.Provider, "error", err)
			continue
		}
		if b, ok := matched.(bool); ok && b {
			return rule.Provider
		}
	}

	return e.defaultProvider
}
