package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Invoker runs full model invocations: it assembles messages, routes to a
// provider strategy, accumulates the stream, retries transient failures, and
// finalizes structured output. A zero-option Invoker resolves secrets from
// the environment and estimates costs from the embedded pricing table; it
// still needs a provider factory (or a WithProvider override) to reach a
// model.
type Invoker struct {
	secrets  SecretResolver
	counter  TokenCounter
	pricing  *PricingRegistry
	log      *slog.Logger
	factory  ProviderFactory
	override Provider
	backoff  backoffPolicy
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithSecretResolver replaces the environment-backed secret resolver.
func WithSecretResolver(secrets SecretResolver) Option {
	return func(inv *Invoker) { inv.secrets = secrets }
}

// WithTokenCounter replaces the heuristic token counter used for prompt
// trimming and cost estimation.
func WithTokenCounter(counter TokenCounter) Option {
	return func(inv *Invoker) { inv.counter = counter }
}

// WithPricingRegistry replaces the global pricing registry.
func WithPricingRegistry(pricing *PricingRegistry) Option {
	return func(inv *Invoker) { inv.pricing = pricing }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(inv *Invoker) { inv.log = log }
}

// WithProviderFactory installs the factory that constructs routed providers.
func WithProviderFactory(factory ProviderFactory) Option {
	return func(inv *Invoker) { inv.factory = factory }
}

// WithProvider bypasses routing entirely and sends every invocation to the
// given provider. Intended for tests and the lorem mock.
func WithProvider(p Provider) Option {
	return func(inv *Invoker) { inv.override = p }
}

func New(opts ...Option) *Invoker {
	inv := &Invoker{
		secrets: &EnvResolver{},
		counter: HeuristicCounter{},
		pricing: GetPricingRegistry(),
		log:     slog.Default(),
		backoff: defaultBackoff(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// InvokeRequest describes one model invocation.
type InvokeRequest struct {
	// Prompt is the prompt to send, either bare text or typed elements.
	Prompt Prompt

	// Model configures the target model and sampling parameters.
	Model ModelConfig

	// QuoteStyle overrides how context elements are fenced. Empty selects
	// the model-family default.
	QuoteStyle QuoteStyle

	// Schema, when non-nil, requests structured output validated against it.
	Schema OutputSchema
}

// Invoke runs the invocation and returns a channel of Output emissions: one
// per accumulated delta, then a terminal emission with the validated data and
// cost estimate. Configuration failures (bad schema, untrimmable prompt) are
// returned synchronously; everything after that is delivered in-band and the
// channel is always closed.
//
// Transient provider failures are retried with jittered exponential backoff
// until the context is done. Each retry restarts the response from empty;
// emissions already delivered are not retracted.
func (inv *Invoker) Invoke(ctx context.Context, req InvokeRequest) (<-chan Output, error) {
	if err := req.Schema.Check(); err != nil {
		return nil, err
	}

	style := req.QuoteStyle
	if style == "" {
		style = DefaultQuoteStyle(req.Model.Model)
	}

	messages, err := BuildMessages(req.Prompt, req.Model, style, inv.counter)
	if err != nil {
		return nil, err
	}

	if inv.override == nil && inv.factory == nil {
		return nil, ErrNoProvider
	}

	out := make(chan Output, 10)
	go inv.run(ctx, req, messages, out)
	return out, nil
}

func (inv *Invoker) run(ctx context.Context, req InvokeRequest, messages []ChatMessage, out chan<- Output) {
	defer close(out)

	routed := Route(req.Model.Model, req.Schema != nil)
	log := inv.log.With(
		"invocation_id", uuid.NewString(),
		"model", req.Model.Model,
		"provider", routed.String(),
	)

	emit := func(o Output) bool {
		select {
		case out <- o:
			return true
		case <-ctx.Done():
			return false
		}
	}

	started := time.Now()
	var acc *Accumulator

	for attempt := 0; ; attempt++ {
		var attemptErr error
		acc, attemptErr = inv.attempt(ctx, req, messages, routed, log, emit)
		if attemptErr == nil {
			break
		}

		if !IsRetryable(attemptErr) || ctx.Err() != nil {
			log.Error("invocation failed", "error", attemptErr, "attempts", attempt+1)
			emit(Output{Err: attemptErr})
			return
		}

		log.Warn("retrying after transient failure",
			"error", attemptErr,
			"attempt", attempt+1,
		)
		if err := inv.backoff.sleep(ctx, attempt); err != nil {
			emit(Output{Err: err})
			return
		}
	}

	state := acc.State()
	data, finalErr := inv.finalizeStructured(req.Schema, state, log)
	cost := inv.pricing.EstimateCost(req.Model.Model, messages, state.Output, inv.counter)

	log.Info("invocation complete",
		"duration", time.Since(started),
		"response_len", len(state.Output),
	)

	emit(Output{
		Result:           state.Output,
		Response:         state.Output,
		Data:             data,
		EstimatedCostUSD: cost,
		Err:              finalErr,
	})
}

// attempt runs one provider streaming call to completion, emitting an Output
// per delta. It returns the accumulator on success, or the error that aborted
// the stream.
func (inv *Invoker) attempt(ctx context.Context, req InvokeRequest, messages []ChatMessage, routed ProviderID, log *slog.Logger, emit func(Output) bool) (*Accumulator, error) {
	provider := inv.override
	if provider == nil {
		var err error
		provider, err = inv.factory(routed, inv.secrets, inv.log)
		if err != nil {
			return nil, err
		}
	}

	// The generic adapter may route through gateways that read ambient
	// credentials, so scope them to this call.
	var release func()
	if provider.Name() == ProviderOpenAICompat {
		var err error
		release, err = acquireCredentialScope(inv.secrets, log)
		if err != nil {
			return nil, err
		}
	}
	if release != nil {
		defer release()
	}

	events, err := provider.Stream(ctx, messages, req.Model, req.Schema)
	if err != nil {
		return nil, err
	}

	acc := NewAccumulator()
	first := true
	started := time.Now()

	for ev := range events {
		if ev.Err != nil {
			return nil, ev.Err
		}
		if first {
			log.Debug("first delta received", "latency", time.Since(started))
			first = false
		}

		state := acc.Feed(ev)
		o := Output{Result: state.Output, Response: state.Output}
		if req.Schema != nil && len(state.PartialData) > 0 {
			o.Data = state.PartialData
		}
		if !emit(o) {
			return nil, ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return acc, nil
}

// finalizeStructured turns the accumulated state into the validated
// structured object. With tool buffers present they are decoded and merged in
// first-seen slot order, later slots winning on key collisions; otherwise the
// plain text output must itself be a JSON object. Validation failures are
// terminal, never retried: the provider already gave its final answer.
func (inv *Invoker) finalizeStructured(schema OutputSchema, state AccumulatedState, log *slog.Logger) (map[string]any, error) {
	if schema == nil {
		return nil, nil
	}

	data := make(map[string]any)

	if len(state.SlotOrder) > 0 {
		for _, slot := range state.SlotOrder {
			var decoded map[string]any
			if err := json.Unmarshal([]byte(state.ToolBuffers[slot]), &decoded); err != nil {
				log.Warn("skipping undecodable tool buffer", "slot", slot, "error", err)
				continue
			}
			for k, v := range decoded {
				data[k] = v
			}
		}
		if len(data) == 0 {
			return nil, &SchemaValidationError{
				Reason: "no tool call produced decodable arguments",
				Schema: schema,
				Data:   state.ToolBuffers,
			}
		}
	} else {
		if err := json.Unmarshal([]byte(state.Output), &data); err != nil {
			return nil, &SchemaValidationError{
				Reason: "response is not a JSON object",
				Schema: schema,
				Data:   state.Output,
				Err:    err,
			}
		}
	}

	if err := schema.Validate(data); err != nil {
		return data, err
	}
	return data, nil
}
