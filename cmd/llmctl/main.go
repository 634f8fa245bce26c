package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"llmbridge/pkg/config"
	"llmbridge/pkg/llm"
	"llmbridge/pkg/logger"
	"llmbridge/pkg/manager"
)

var errUsage = errors.New("usage")

type options struct {
	configPath  string
	provider    string
	op          string
	prompt      string
	target      string
	source      string
	language    string
	role        string
	contextJSON string
	compare     string
	model       string
	temperature float64
	maxTokens   int
	maxLength   int
	timeout     time.Duration
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		logger.Fatalf("llmctl: %v", err)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("llmctl", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Path to config file (defaults to LLMBRIDGE_CONFIG_PATH or ~/.config/llmbridge/config.yaml)")
	fs.StringVar(&o.provider, "provider", "", `Provider name, empty for the default, "auto" for routing rules`)
	fs.StringVar(&o.op, "op", "generate", "Operation: generate|translate|code|explain|summarize|math|reason|agent|compare|providers")
	fs.StringVar(&o.prompt, "prompt", "", "Prompt, text, description, code, problem, question or task depending on -op")
	fs.StringVar(&o.target, "target", "", "Target language for translate")
	fs.StringVar(&o.source, "source", "", "Source language for translate")
	fs.StringVar(&o.language, "language", "", "Programming language for code and explain")
	fs.StringVar(&o.role, "role", "", "Agent role")
	fs.StringVar(&o.contextJSON, "context", "", "JSON object passed as context to reason and agent")
	fs.StringVar(&o.compare, "compare", "", "Comma separated providers for compare")
	fs.StringVar(&o.model, "model", "", "Model name or alias")
	fs.Float64Var(&o.temperature, "temperature", -1, "Sampling temperature, negative to use the provider default")
	fs.IntVar(&o.maxTokens, "max-tokens", 0, "Max tokens, 0 to use the provider default")
	fs.IntVar(&o.maxLength, "max-length", 0, "Max summary length in characters")
	fs.DurationVar(&o.timeout, "timeout", 2*time.Minute, "Overall deadline")
	if err := fs.Parse(args); err != nil {
		return o, errUsage
	}
	if o.prompt == "" && o.op != "providers" {
		return o, fmt.Errorf("%w: -prompt is required for -op %s", errUsage, o.op)
	}
	return o, nil
}

func (o options) params() llm.Params {
	p := llm.Params{}
	if o.model != "" {
		p[llm.ParamModel] = o.model
	}
	if o.temperature >= 0 {
		p[llm.ParamTemperature] = o.temperature
	}
	if o.maxTokens > 0 {
		p[llm.ParamMaxTokens] = o.maxTokens
	}
	return p
}

func (o options) contextData() (map[string]any, error) {
	if o.contextJSON == "" {
		return nil, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(o.contextJSON), &data); err != nil {
		return nil, fmt.Errorf("parse -context: %w", err)
	}
	return data, nil
}

func run(args []string, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}

	var cfg *config.Store
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.LoadLocalConfig()
	}
	if err != nil {
		return err
	}
	logger.SetLogger(logger.New(os.Stderr, "text", config.String(cfg, "log.level", "warn")))

	mgr := manager.New(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	out, err := execute(ctx, mgr, o)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	// Failures carried in a result are printed, then reported via the exit code.
	if r, ok := out.(interface{ Err() error }); ok {
		return r.Err()
	}
	return nil
}

func execute(ctx context.Context, mgr *manager.Manager, o options) (any, error) {
	switch o.op {
	case "providers":
		return map[string]any{
			"default":   mgr.DefaultProvider(),
			"providers": mgr.AvailableProviders(),
			"aliases":   mgr.Aliases(),
		}, nil
	case "generate":
		return mgr.GenerateText(ctx, o.prompt, o.params(), o.provider)
	case "translate":
		return mgr.TranslateText(ctx, o.prompt, o.target, o.source, o.provider)
	case "code":
		return mgr.GenerateCode(ctx, o.prompt, o.language, o.provider)
	case "explain":
		return mgr.ExplainCode(ctx, o.prompt, o.language, o.provider)
	case "summarize":
		return mgr.SummarizeText(ctx, o.prompt, o.maxLength, o.provider)
	case "math":
		return mgr.SolveMath(ctx, o.prompt, o.provider)
	case "reason", "agent":
		data, err := o.contextData()
		if err != nil {
			return nil, err
		}
		if o.op == "agent" {
			return mgr.ActAsAgent(ctx, o.role, o.prompt, data, o.provider)
		}
		return mgr.PerformReasoning(ctx, o.prompt, data, o.provider)
	case "compare":
		var names []string
		for _, n := range strings.Split(o.compare, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		return mgr.Compare(ctx, o.prompt, o.params(), names...)
	default:
		return nil, fmt.Errorf("%w: unknown -op %q", errUsage, o.op)
	}
}
