// Package anthropic implements the native Anthropic streaming strategy for
// Claude models.
package anthropic

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	llm "github.com/aijson/aijson-ml"
)

// Provider streams Claude responses over the Anthropic Messages API.
type Provider struct {
	client anthropic.Client
	log    *slog.Logger
}

// New creates the Anthropic provider, pulling the API key from the secret
// resolver.
func New(secrets llm.SecretResolver, log *slog.Logger) (*Provider, error) {
	apiKey, ok := secrets.Get(llm.SecretAnthropicAPIKey)
	if !ok {
		return nil, llm.ErrInvalidAPIKey
	}

	return &Provider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		log:    log,
	}, nil
}

func (p *Provider) Name() llm.ProviderID {
	return llm.ProviderAnthropic
}

// buildMessageParams converts messages and config into Anthropic API
// parameters. System messages are concatenated into the dedicated system
// field; roles the Messages API has no slot for are dropped with a warning.
func (p *Provider) buildMessageParams(messages []llm.ChatMessage, cfg llm.ModelConfig) anthropic.MessageNewParams {
	if cfg.APIBase != "" {
		p.log.Warn("api_base is not supported on the native Anthropic path, ignoring", "api_base", cfg.APIBase)
	}

	var system string
	var converted []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
		case llm.RoleUser:
			converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case llm.RoleAssistant:
			converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			p.log.Warn("dropping message with unsupported role", "role", msg.Role)
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(cfg.Model),
		Messages:  converted,
		MaxTokens: int64(cfg.EffectiveMaxOutputTokens()),
	}

	if system != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: system}}
	}
	if cfg.Temperature != nil {
		params.Temperature = anthropic.Float(*cfg.Temperature)
	}
	if cfg.TopP != nil {
		params.TopP = anthropic.Float(*cfg.TopP)
	}

	return params
}

// Stream starts a Messages API streaming call and pumps text deltas into the
// returned channel.
func (p *Provider) Stream(ctx context.Context, messages []llm.ChatMessage, cfg llm.ModelConfig, _ llm.OutputSchema) (<-chan llm.StreamEvent, error) {
	params := p.buildMessageParams(messages, cfg)

	eventChan := make(chan llm.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		stream := p.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()

			delta, ok := textDelta(event)
			if !ok {
				continue
			}

			select {
			case <-ctx.Done():
				eventChan <- llm.StreamEvent{Err: ctx.Err()}
				return
			case eventChan <- llm.StreamEvent{Delta: delta}:
			}
		}

		if err := stream.Err(); err != nil {
			eventChan <- llm.StreamEvent{Err: classifyError(err)}
		}
	}()

	return eventChan, nil
}

// textDelta extracts the text fragment from a streaming event, if it carries
// one. Block boundaries and metadata events carry none.
func textDelta(event anthropic.MessageStreamEventUnion) (string, bool) {
	e, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
	if !ok {
		return "", false
	}
	if e.Delta.Type != "text_delta" {
		return "", false
	}
	return e.Delta.Text, true
}

// classifyError wraps an SDK error as a ProviderError. Authentication
// failures are permanent; everything else (rate limits, overloaded, network)
// is treated as transient.
func classifyError(err error) error {
	providerErr := &llm.ProviderError{
		Provider:  llm.ProviderAnthropic.String(),
		Message:   err.Error(),
		Retryable: true,
		Err:       err,
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		providerErr.StatusCode = apiErr.StatusCode
		switch apiErr.StatusCode {
		case 401, 403:
			providerErr.Retryable = false
			providerErr.Err = llm.ErrInvalidAPIKey
		case 429:
			providerErr.Err = llm.ErrRateLimited
		}
	}

	return providerErr
}
