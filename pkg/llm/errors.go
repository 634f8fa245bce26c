package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey indicates the provider has no api_key configured.
	ErrMissingAPIKey = errors.New("API key not configured")

	// ErrMissingBaseURL indicates a provider that needs a base_url has none.
	ErrMissingBaseURL = errors.New("base URL not configured")

	// ErrMissingAPIVersion indicates the vendor protocol version is empty.
	ErrMissingAPIVersion = errors.New("API version not configured")

	// ErrInvalidResponse indicates the API returned an unparseable response.
	ErrInvalidResponse = errors.New("invalid response from API")

	// ErrEmptyResponse indicates the API returned no choices or content.
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrGenerationFailed is the cause of a failure with no better description.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrCapabilityNotSupported matches every *UnsupportedError.
	ErrCapabilityNotSupported = errors.New("capability not supported")
)

// ConfigError reports invalid provider configuration. It is returned as a Go
// error from GenerateText and is never folded into a Result.
type ConfigError struct {
	Provider string // provider name, e.g. "openai"
	Field    string // config key, e.g. "api_key"
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s provider: %s (providers.%s.%s)", e.Provider, e.Err, e.Provider, e.Field)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// APIError represents a failed call to a vendor API.
type APIError struct {
	Provider   string // display name: OpenAI, Claude, Llama, DeepSeek
	StatusCode int    // HTTP status code, 0 for transport failures
	Message    string // response body or short description
	Err        error  // underlying error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s API error: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsRateLimited checks if the error indicates rate limiting
func (e *APIError) IsRateLimited() bool { return e.StatusCode == 429 }

// IsAuthError checks if the error indicates authentication failure
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsTransient checks if the error is temporary and the request can be retried
func (e *APIError) IsTransient() bool {
	switch e.StatusCode {
	case 0:
		return e.Err != nil && !errors.Is(e.Err, ErrInvalidResponse) && !errors.Is(e.Err, ErrEmptyResponse)
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// NewAPIError creates a new APIError with the given parameters
func NewAPIError(provider string, statusCode int, message string, err error) *APIError {
	return &APIError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// UnsupportedError is the failure cause when a provider lacks a capability.
// Its message uses the capability label; use errors.As to read the raw
// Capability identifier.
type UnsupportedError struct {
	Capability Capability
}

func (e *UnsupportedError) Error() string {
	return e.Capability.Label() + " capability not supported by this provider"
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrCapabilityNotSupported
}
