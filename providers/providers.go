// Package providers wires the concrete provider adapters into an
// llm.ProviderFactory. The root package routes by strategy identifier only;
// this package owns the construction so the core never imports an SDK.
package providers

import (
	"fmt"
	"log/slog"

	llm "github.com/aijson/aijson-ml"
	"github.com/aijson/aijson-ml/providers/anthropic"
	"github.com/aijson/aijson-ml/providers/lorem"
	"github.com/aijson/aijson-ml/providers/ollama"
	"github.com/aijson/aijson-ml/providers/openaicompat"
)

// Factory constructs the provider for a routed strategy.
func Factory(id llm.ProviderID, secrets llm.SecretResolver, log *slog.Logger) (llm.Provider, error) {
	switch id {
	case llm.ProviderAnthropic:
		return anthropic.New(secrets, log)
	case llm.ProviderOllama:
		return ollama.New(secrets, log)
	case llm.ProviderOpenAICompat:
		return openaicompat.New(secrets, log)
	case llm.ProviderLorem:
		return lorem.New(), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", llm.ErrNoProvider, id)
	}
}

// NewInvoker builds an Invoker with the default provider factory installed.
func NewInvoker(opts ...llm.Option) *llm.Invoker {
	return llm.New(append([]llm.Option{llm.WithProviderFactory(Factory)}, opts...)...)
}
