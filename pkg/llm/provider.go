package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"llmbridge/pkg/logger"
)

// DefaultTimeout bounds a provider request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a vendor response body is read.
const maxResponseBytes = 8 << 20

// Provider abstracts a single LLM vendor.
type Provider interface {
	// Name returns the provider's identifier (e.g. "openai", "deepseek")
	Name() string

	// Capabilities returns the fixed set of features the provider supports.
	Capabilities() CapabilitySet

	// DefaultParams returns a copy of the provider's default parameters.
	DefaultParams() Params

	// GenerateText sends prompt to the vendor. params override the defaults
	// key by key. Request failures are reported in the Result; the error is
	// reserved for configuration problems.
	GenerateText(ctx context.Context, prompt string, params Params) (Result, error)
}

// Validator is implemented by providers that can check their configuration
// before first use.
type Validator interface {
	Validate() error
}

// ProviderConfig configures a specific upstream provider
type ProviderConfig struct {
	APIKey             string
	BaseURL            string
	DefaultModel       string
	DefaultMaxTokens   int
	DefaultTemperature *float64 // nil means the provider's built-in default
	TimeoutSeconds     int
	APIVersion         string // vendor protocol version header (Claude)
}

// Timeout returns the configured request timeout or DefaultTimeout.
func (c ProviderConfig) Timeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return DefaultTimeout
}

// BaseSpec describes a provider built on Base.
type BaseSpec struct {
	Name               string // identifier, e.g. "openai"
	DisplayName        string // prefix for error messages, e.g. "OpenAI"
	Config             ProviderConfig
	Capabilities       []Capability
	DefaultBaseURL     string
	DefaultModel       string
	DefaultMaxTokens   int
	DefaultTemperature float64
	RequireBaseURL     bool
	RequireAPIVersion  bool
}

// Base carries the state and HTTP plumbing shared by the built-in providers.
type Base struct {
	name        string
	displayName string
	cfg         ProviderConfig
	baseURL     string
	caps        CapabilitySet
	defaults    Params
	client      *http.Client

	requireBaseURL    bool
	requireAPIVersion bool
}

// NewBase resolves spec against its config and returns a ready Base.
func NewBase(spec BaseSpec) *Base {
	cfg := spec.Config

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = spec.DefaultBaseURL
	}

	model := cfg.DefaultModel
	if model == "" {
		model = spec.DefaultModel
	}
	maxTokens := cfg.DefaultMaxTokens
	if maxTokens <= 0 {
		maxTokens = spec.DefaultMaxTokens
	}
	temperature := spec.DefaultTemperature
	if cfg.DefaultTemperature != nil {
		temperature = *cfg.DefaultTemperature
	}

	return &Base{
		name:        spec.Name,
		displayName: spec.DisplayName,
		cfg:         cfg,
		baseURL:     strings.TrimRight(baseURL, "/"),
		caps:        NewCapabilitySet(spec.Capabilities...),
		defaults: Params{
			ParamModel:       model,
			ParamMaxTokens:   maxTokens,
			ParamTemperature: temperature,
		},
		client:            &http.Client{Timeout: cfg.Timeout()},
		requireBaseURL:    spec.RequireBaseURL,
		requireAPIVersion: spec.RequireAPIVersion,
	}
}

// Name returns the provider identifier.
func (b *Base) Name() string { return b.name }

// DisplayName returns the name used to prefix error messages.
func (b *Base) DisplayName() string { return b.displayName }

// Capabilities returns the provider's capability set.
func (b *Base) Capabilities() CapabilitySet { return b.caps }

// DefaultParams returns a copy of the default parameters.
func (b *Base) DefaultParams() Params { return b.defaults.Clone() }

// Config returns the provider configuration.
func (b *Base) Config() ProviderConfig { return b.cfg }

// BaseURL returns the resolved base URL without a trailing slash.
func (b *Base) BaseURL() string { return b.baseURL }

// SetHTTPClient replaces the HTTP client used for outbound requests.
func (b *Base) SetHTTPClient(c *http.Client) {
	if c != nil {
		b.client = c
	}
}

// Validate checks the fields this provider requires.
func (b *Base) Validate() error {
	if strings.TrimSpace(b.cfg.APIKey) == "" {
		return &ConfigError{Provider: b.name, Field: "api_key", Err: ErrMissingAPIKey}
	}
	if b.requireBaseURL && strings.TrimSpace(b.cfg.BaseURL) == "" {
		return &ConfigError{Provider: b.name, Field: "base_url", Err: ErrMissingBaseURL}
	}
	if b.requireAPIVersion && strings.TrimSpace(b.cfg.APIVersion) == "" {
		return &ConfigError{Provider: b.name, Field: "api_version", Err: ErrMissingAPIVersion}
	}
	return nil
}

// Merge overlays params on the provider defaults.
func (b *Base) Merge(params Params) Params {
	return MergeParams(b.defaults, params)
}

// PostJSON marshals body, POSTs it to baseURL+endpoint and returns the raw
// response body. Transport failures and non-2xx statuses come back as
// *APIError.
func (b *Base) PostJSON(ctx context.Context, endpoint string, headers map[string]string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, NewAPIError(b.displayName, 0, "encode request", err)
	}

	url := b.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, NewAPIError(b.displayName, 0, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		logger.Error("provider network request failed", "provider", b.name, "endpoint", endpoint, "error", err)
		return nil, NewAPIError(b.displayName, 0, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logger.Error("provider response read failed", "provider", b.name, "endpoint", endpoint, "error", err)
		return nil, NewAPIError(b.displayName, 0, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error("provider request failed with status", "provider", b.name, "endpoint", endpoint, "status", resp.StatusCode)
		return nil, NewAPIError(b.displayName, resp.StatusCode, strings.TrimSpace(string(raw)), nil)
	}
	return raw, nil
}

// Decode unmarshals a vendor response, reporting malformed bodies as an
// *APIError that quotes the body.
func (b *Base) Decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return NewAPIError(b.displayName, 0, fmt.Sprintf("invalid response %q", truncate(string(raw), 200)),
			fmt.Errorf("%w: %v", ErrInvalidResponse, err))
	}
	return nil
}

// Empty reports a response that parsed but carried no content.
func (b *Base) Empty(raw []byte) error {
	return NewAPIError(b.displayName, 0, fmt.Sprintf("no content in response %q", truncate(string(raw), 200)), ErrEmptyResponse)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
