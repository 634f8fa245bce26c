package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"llmbridge/pkg/logger"
)

const DefaultConfigTemplate = `default: openai

providers:
  openai:
    api_key: "${OPENAI_API_KEY}"
    default_model: gpt-4o-mini
  claude:
    api_key: "${ANTHROPIC_API_KEY}"
    api_version: "2023-06-01"
  llama:
    api_key: "${LLAMA_API_KEY}"
    base_url: "${LLAMA_BASE_URL:-http://127.0.0.1:8000/v1}"
  deepseek:
    api_key: "${DEEPSEEK_API_KEY}"
    default_max_tokens: 2000

model_aliases:
  gpt4: gpt-4o
  sonnet: claude-3-5-sonnet-20241022

routing:
  default_provider: openai
  rules:
    - condition: 'operation in ["math", "reasoning"]'
      provider: deepseek

remote:
  url: ""
  poll_interval: 60s

server:
  host: "127.0.0.1"
  port: 8080

log:
  level: info
  format: text
`

var envRefRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ConfigPath returns LLMBRIDGE_CONFIG_PATH or ~/.config/llmbridge/config.yaml.
func ConfigPath() (string, error) {
	if p := os.Getenv("LLMBRIDGE_CONFIG_PATH"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "llmbridge", "config.yaml"), nil
}

// LoadLocalConfig loads configuration from ConfigPath. If the file doesn't
// exist, it writes a template there and returns an error asking the user to
// fill it in.
func LoadLocalConfig() (*Store, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Warn("config file missing, creating default template", "path", configPath)
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate), 0644); err != nil {
			return nil, fmt.Errorf("failed to write default config template: %w", err)
		}
		return nil, fmt.Errorf("generated default config at %s. Please update it and restart", configPath)
	}

	return LoadFile(configPath)
}

// LoadFile reads a YAML config file. A .env file next to it (or the file
// named by LLMBRIDGE_DOTENV) is loaded first without overriding variables
// already set, then ${VAR} references in string values are expanded.
func LoadFile(path string) (*Store, error) {
	loadDotenv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	store, err := Parse(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", "path", path, "providers", Keys(store, "providers"))
	return store, nil
}

// Parse decodes a YAML document and expands environment references.
func Parse(data []byte) (*Store, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yaml config: %w", err)
	}
	store := NewStore(raw)
	store.data = expandTree(store.data).(map[string]any)
	return store, nil
}

func loadDotenv(configPath string) {
	envFile := os.Getenv("LLMBRIDGE_DOTENV")
	if envFile == "" {
		envFile = filepath.Join(filepath.Dir(configPath), ".env")
	}
	if _, err := os.Stat(envFile); err != nil {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		logger.Warn("failed to load env file", "path", envFile, "error", err)
	}
}

// ExpandEnv replaces ${VAR} and ${VAR:-fallback} in s. Unset variables
// without a fallback expand to the empty string.
func ExpandEnv(s string) string {
	return envRefRe.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRefRe.FindStringSubmatch(ref)
		if v, ok := os.LookupEnv(m[1]); ok && v != "" {
			return v
		}
		return m[2]
	})
}

func expandTree(v any) any {
	switch t := v.(type) {
	case string:
		return ExpandEnv(t)
	case map[string]any:
		for k, val := range t {
			t[k] = expandTree(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = expandTree(val)
		}
		return t
	default:
		return v
	}
}
