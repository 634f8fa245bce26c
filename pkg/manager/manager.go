// Package manager resolves provider names to cached llm.Provider instances
// and runs generation and derived operations against them.
//
// A Manager is built from a config.Source. Providers listed under
// "providers" are constructed lazily on first use, validated, and cached
// for the lifetime of the Manager. Custom providers can be registered at
// runtime with RegisterProvider and take precedence over the built-ins of
// the same name.
package manager

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"llmbridge/pkg/config"
	"llmbridge/pkg/llm"
	"llmbridge/pkg/llm/claude"
	"llmbridge/pkg/llm/deepseek"
	"llmbridge/pkg/llm/llama"
	"llmbridge/pkg/llm/openai"
	"llmbridge/pkg/logger"
	"llmbridge/pkg/strategy"
)

var (
	// ErrInvalidProvider is wrapped by errors about provider names that are
	// neither configured nor registered.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidRegistration is wrapped by RegisterProvider errors.
	ErrInvalidRegistration = errors.New("invalid provider registration")
)

// DefaultProviderName is used when the configuration has no "default" key.
const DefaultProviderName = openai.Name

// AutoProvider asks the routing rules to pick the provider.
const AutoProvider = "auto"

// DefaultCompareLimit bounds how many providers Compare queries at once.
const DefaultCompareLimit = 4

// Factory builds a provider from its configuration. It runs outside the
// Manager's lock and may call Manager methods, but calling GetProvider for
// its own name deadlocks.
type Factory func(cfg llm.ProviderConfig) (llm.Provider, error)

var builtins = map[string]Factory{
	openai.Name: func(cfg llm.ProviderConfig) (llm.Provider, error) {
		return openai.New(cfg), nil
	},
	claude.Name: func(cfg llm.ProviderConfig) (llm.Provider, error) {
		return claude.New(cfg), nil
	},
	llama.Name: func(cfg llm.ProviderConfig) (llm.Provider, error) {
		return llama.New(cfg), nil
	},
	deepseek.Name: func(cfg llm.ProviderConfig) (llm.Provider, error) {
		return deepseek.New(cfg), nil
	},
}

// Option configures a Manager.
type Option func(*Manager)

// WithResolver replaces the routing strategy built from routing.*.
func WithResolver(r strategy.Resolver) Option {
	return func(m *Manager) { m.resolver = r }
}

// WithHTTPClient makes every provider that supports it use c.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithTracerProvider sets the tracer provider used for call spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) { m.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider used for token and failure
// counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(m *Manager) { m.meterProvider = mp }
}

// WithCompareLimit bounds Compare's concurrency. n <= 0 means no limit.
func WithCompareLimit(n int) Option {
	return func(m *Manager) { m.compareLimit = n }
}

// Manager resolves provider names to instances. It is safe for concurrent
// use.
type Manager struct {
	src config.Source

	mu          sync.Mutex // guards instances, custom, versions and defaultName
	instances   map[string]llm.Provider
	custom      map[string]Factory
	versions    map[string]int // bumped by RegisterProvider
	defaultName string
	building    singleflight.Group

	aliasMu sync.RWMutex
	aliases map[string]string

	resolver       strategy.Resolver
	httpClient     *http.Client
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	compareLimit   int
	telemetry      *telemetry
}

// New creates a Manager reading provider settings, the default provider and
// model aliases from src.
func New(src config.Source, opts ...Option) *Manager {
	if src == nil {
		src = config.NewStore(nil)
	}
	m := &Manager{
		src:          src,
		instances:    make(map[string]llm.Provider),
		custom:       make(map[string]Factory),
		versions:     make(map[string]int),
		defaultName:  config.String(src, "default", DefaultProviderName),
		aliases:      config.StringMap(src, "model_aliases"),
		compareLimit: DefaultCompareLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.resolver == nil {
		m.resolver = strategy.NewResolver(src)
	}
	m.telemetry = newTelemetry(m.tracerProvider, m.meterProvider)
	return m
}

// GetProvider returns the cached provider for name, constructing and
// validating it on first use. Concurrent first calls construct once.
func (m *Manager) GetProvider(name string) (llm.Provider, error) {
	if name == "" {
		name = m.DefaultProvider()
	}

	m.mu.Lock()
	p, ok := m.instances[name]
	m.mu.Unlock()
	if ok {
		return p, nil
	}

	v, err, _ := m.building.Do(name, func() (any, error) {
		return m.construct(name)
	})
	if err != nil {
		return nil, err
	}
	return v.(llm.Provider), nil
}

// construct runs the factory for name without holding m.mu, so factories
// may call back into the Manager. The instance is cached only if name was
// not re-registered meanwhile.
func (m *Manager) construct(name string) (llm.Provider, error) {
	m.mu.Lock()
	if p, ok := m.instances[name]; ok {
		m.mu.Unlock()
		return p, nil
	}
	factory, err := m.factoryFor(name)
	version := m.versions[name]
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	p, err := factory(m.providerConfig(name))
	if err != nil {
		return nil, fmt.Errorf("create provider %q: %w", name, err)
	}
	if isNil(p) {
		return nil, fmt.Errorf("%w: factory for %q returned nil", ErrInvalidRegistration, name)
	}
	if v, ok := p.(llm.Validator); ok {
		if err := v.Validate(); err != nil {
			logger.Warn("provider configuration invalid", "provider", name, "error", err)
			return nil, err
		}
	}
	if m.httpClient != nil {
		if hc, ok := p.(interface{ SetHTTPClient(*http.Client) }); ok {
			hc.SetHTTPClient(m.httpClient)
		}
	}

	m.mu.Lock()
	if m.versions[name] == version {
		m.instances[name] = p
	}
	m.mu.Unlock()

	logger.Info("provider initialised", "provider", name, "capabilities", p.Capabilities().Len())
	return p, nil
}

// factoryFor must be called with m.mu held.
func (m *Manager) factoryFor(name string) (Factory, error) {
	if factory, ok := m.custom[name]; ok {
		return factory, nil
	}
	if !m.configured(name) {
		return nil, fmt.Errorf("%w: %q is not configured", ErrInvalidProvider, name)
	}
	factory, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no implementation; register one with RegisterProvider", ErrInvalidProvider, name)
	}
	return factory, nil
}

// isNil also catches typed nil pointers wrapped in the interface.
func isNil(p llm.Provider) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// OpenAI returns the "openai" provider.
func (m *Manager) OpenAI() (llm.Provider, error) { return m.GetProvider(openai.Name) }

// Claude returns the "claude" provider.
func (m *Manager) Claude() (llm.Provider, error) { return m.GetProvider(claude.Name) }

// Llama returns the "llama" provider.
func (m *Manager) Llama() (llm.Provider, error) { return m.GetProvider(llama.Name) }

// DeepSeek returns the "deepseek" provider.
func (m *Manager) DeepSeek() (llm.Provider, error) { return m.GetProvider(deepseek.Name) }

// AvailableProviders lists configured and custom provider names, sorted.
func (m *Manager) AvailableProviders() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	var names []string
	for _, name := range config.Keys(m.src, "providers") {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range m.custom {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// IsValidProvider reports whether name is configured or registered.
func (m *Manager) IsValidProvider(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.custom[name]; ok {
		return true
	}
	return m.configured(name)
}

// SetDefaultProvider changes the provider used when a call names none. An
// invalid name leaves the current default in place.
func (m *Manager) SetDefaultProvider(name string) error {
	if !m.IsValidProvider(name) {
		return fmt.Errorf("%w: cannot set default to %q", ErrInvalidProvider, name)
	}
	m.mu.Lock()
	m.defaultName = name
	m.mu.Unlock()
	logger.Info("default provider changed", "provider", name)
	return nil
}

// DefaultProvider returns the current default provider name.
func (m *Manager) DefaultProvider() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defaultName
}

// RegisterProvider installs factory under name, replacing any built-in or
// earlier registration. A cached instance of name is dropped so the next
// call uses the new factory.
func (m *Manager) RegisterProvider(name string, factory Factory) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRegistration)
	}
	if name == AutoProvider {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidRegistration, name)
	}
	if factory == nil {
		return fmt.Errorf("%w: nil factory for %q", ErrInvalidRegistration, name)
	}

	m.mu.Lock()
	m.custom[name] = factory
	m.versions[name]++
	delete(m.instances, name)
	m.mu.Unlock()

	logger.Info("custom provider registered", "provider", name)
	return nil
}

// CustomProviders lists the names registered with RegisterProvider, sorted.
func (m *Manager) CustomProviders() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.custom))
	for name := range m.custom {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveModel maps an alias to its model. Unknown names are returned
// unchanged and resolution is not transitive.
func (m *Manager) ResolveModel(model string) string {
	m.aliasMu.RLock()
	defer m.aliasMu.RUnlock()
	if resolved, ok := m.aliases[model]; ok && resolved != "" {
		return resolved
	}
	return model
}

// SetAlias adds or replaces an alias. It satisfies config.AliasSetter.
func (m *Manager) SetAlias(alias, model string) {
	m.aliasMu.Lock()
	defer m.aliasMu.Unlock()
	m.aliases[alias] = model
}

// Aliases returns a copy of the alias table.
func (m *Manager) Aliases() map[string]string {
	m.aliasMu.RLock()
	defer m.aliasMu.RUnlock()
	out := make(map[string]string, len(m.aliases))
	for k, v := range m.aliases {
		out[k] = v
	}
	return out
}

func (m *Manager) configured(name string) bool {
	if name == "" || name == AutoProvider {
		return false
	}
	_, ok := m.src.Lookup("providers." + name)
	return ok
}

func (m *Manager) providerConfig(name string) llm.ProviderConfig {
	prefix := "providers." + name + "."
	cfg := llm.ProviderConfig{
		APIKey:           config.String(m.src, prefix+"api_key", ""),
		BaseURL:          config.String(m.src, prefix+"base_url", ""),
		DefaultModel:     config.String(m.src, prefix+"default_model", ""),
		DefaultMaxTokens: config.Int(m.src, prefix+"default_max_tokens", 0),
		TimeoutSeconds:   config.Int(m.src, prefix+"timeout_seconds", 0),
		APIVersion:       config.String(m.src, prefix+"api_version", ""),
	}
	if config.Has(m.src, prefix+"default_temperature") {
		t := config.Float(m.src, prefix+"default_temperature", 0)
		cfg.DefaultTemperature = &t
	}
	return cfg
}

var _ config.AliasSetter = (*Manager)(nil)
