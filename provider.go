package llm

import (
	"context"
	"log/slog"
	"strings"
)

// ProviderID identifies one of the closed set of invocation strategies.
type ProviderID string

const (
	// ProviderAnthropic is the native Anthropic streaming path.
	ProviderAnthropic ProviderID = "anthropic"

	// ProviderOllama is the native Ollama NDJSON streaming path.
	ProviderOllama ProviderID = "ollama"

	// ProviderOpenAICompat is the generic OpenAI-compatible adapter used for
	// every other model, and for any schema-constrained request.
	ProviderOpenAICompat ProviderID = "openai_compat"

	// ProviderLorem is the mock provider for development and tests. It is
	// never selected by Route; use WithProvider to install it.
	ProviderLorem ProviderID = "lorem"
)

func (p ProviderID) String() string {
	return string(p)
}

// Provider streams a model response as incremental events. The returned
// channel is closed when the stream completes or after an in-band error.
// Implementations must honor ctx cancellation on every send and release the
// underlying connection on all exit paths.
type Provider interface {
	Stream(ctx context.Context, messages []ChatMessage, cfg ModelConfig, schema OutputSchema) (<-chan StreamEvent, error)
	Name() ProviderID
}

// ProviderFactory constructs the provider for a routed strategy. It receives
// the invoker's secret resolver and logger so adapters can pull API keys and
// warn consistently.
type ProviderFactory func(id ProviderID, secrets SecretResolver, log *slog.Logger) (Provider, error)

// Route selects the invocation strategy for a model, once per call:
// "claude*" and "ollama/*" get their native paths, everything else the
// generic adapter. A schema request always forces the generic adapter, since
// the native paths do not drive tool calling.
func Route(model string, schemaRequested bool) ProviderID {
	if !schemaRequested {
		if strings.HasPrefix(model, "claude") {
			return ProviderAnthropic
		}
		if strings.HasPrefix(model, "ollama/") {
			return ProviderOllama
		}
	}
	return ProviderOpenAICompat
}

// UsesToolCalling reports whether a schema-constrained request is driven via
// a synthetic forced tool. Models identified as unable to use tool calling
// ("gpt*") instead get the provider-native strict JSON-schema response
// format.
func UsesToolCalling(model string) bool {
	return !strings.HasPrefix(model, "gpt")
}
