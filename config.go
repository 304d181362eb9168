package llm

// ModelConfig is the resolved model configuration consumed read-only by the
// invocation core. The model identifier determines provider routing; see
// Route. Sampling parameters are optional pointers so that "not set" never
// overrides a provider's own default.
type ModelConfig struct {
	// Model is the model identifier, e.g. "claude-sonnet-4-5",
	// "ollama/llama3.1", "gpt-4o".
	Model string

	// APIBase overrides the provider endpoint where supported. Ignored with
	// a warning on the native Anthropic path.
	APIBase string

	// AuthToken, when set, is passed through as a bearer Authorization
	// header on providers that accept one.
	AuthToken string

	Temperature      *float64
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64

	// MaxOutputTokens caps completion length. Zero means the provider
	// default (4096 where the provider requires an explicit cap).
	MaxOutputTokens int

	// MaxPromptTokens is the prompt token budget enforced by the assembler.
	// Zero disables budget enforcement.
	MaxPromptTokens int
}

const defaultMaxOutputTokens = 4096

// EffectiveMaxOutputTokens returns MaxOutputTokens with the default fallback.
func (c ModelConfig) EffectiveMaxOutputTokens() int {
	if c.MaxOutputTokens > 0 {
		return c.MaxOutputTokens
	}
	return defaultMaxOutputTokens
}

// Float returns a pointer to v. Useful for optional sampling parameters.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
