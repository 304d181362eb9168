package llm

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrInvalidAPIKey indicates a required API key is missing or rejected.
	ErrInvalidAPIKey = errors.New("llm: invalid API key")

	// ErrRateLimited indicates the provider's rate limit has been exceeded.
	ErrRateLimited = errors.New("llm: rate limit exceeded")

	// ErrProviderUnavailable indicates the provider is down or unreachable.
	ErrProviderUnavailable = errors.New("llm: provider unavailable")

	// ErrNoProvider indicates no provider factory or override was configured.
	ErrNoProvider = errors.New("llm: no provider configured")
)

// ConfigError is a fatal, non-retryable misconfiguration: a prompt that
// cannot be trimmed to its token budget, or a schema that cannot be compiled
// into a validator.
type ConfigError struct {
	Field  string // the configuration aspect at fault, e.g. "max_prompt_tokens"
	Reason string // human-readable explanation
	Err    error  // wrapped cause, if any
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ProviderError is a transport or provider-reported failure during a
// streaming call.
type ProviderError struct {
	Provider   string // the provider name
	StatusCode int    // HTTP status code, if applicable
	Message    string // error message from the provider
	Retryable  bool   // whether the retry orchestrator may restart the attempt
	Err        error  // wrapped sentinel or underlying error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider '%s' error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider '%s' error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// SchemaValidationError reports that the accumulated LLM output does not
// adhere to the requested output schema. It is terminal: the provider has
// already produced its final answer, so re-asking is a caller decision, not
// a retry at this layer.
type SchemaValidationError struct {
	Reason     string
	Schema     OutputSchema
	Data       any // the offending candidate data (or raw output)
	Violations []FieldViolation
	Err        error
}

// FieldViolation is one field-level schema violation.
type FieldViolation struct {
	Field  string // dotted path, e.g. "address.city"
	Reason string
}

func (e *SchemaValidationError) Error() string {
	msg := "LLM output does not adhere to output schema: " + e.Reason
	for _, v := range e.Violations {
		msg += fmt.Sprintf("; %s: %s", v.Field, v.Reason)
	}
	return msg
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the retry orchestrator may restart the whole
// attempt after this error. Only transient provider/network failures
// qualify; configuration and finalization errors never do.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}

	if errors.Is(err, ErrRateLimited) {
		return true
	}

	if errors.Is(err, ErrProviderUnavailable) {
		return true
	}

	return false
}
