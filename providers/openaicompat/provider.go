// Package openaicompat implements the generic invocation strategy over the
// OpenAI-compatible chat completions protocol. It is the default route for
// models without a native path, and the forced route for every
// schema-constrained request: structured output is driven either through the
// provider's strict JSON-schema response format or through a single forced
// function tool.
package openaicompat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	llm "github.com/aijson/aijson-ml"
)

// schemaToolName is the synthetic function name used when structured output
// is driven via forced tool calling.
const schemaToolName = "function"

// Provider streams chat completions from any OpenAI-compatible endpoint.
type Provider struct {
	secrets llm.SecretResolver
	log     *slog.Logger
}

func New(secrets llm.SecretResolver, log *slog.Logger) (*Provider, error) {
	return &Provider{secrets: secrets, log: log}, nil
}

func (p *Provider) Name() llm.ProviderID {
	return llm.ProviderOpenAICompat
}

// newClient builds a client for one call. The endpoint and credentials come
// from per-request config, so the client cannot be cached across calls.
func (p *Provider) newClient(cfg llm.ModelConfig) openai.Client {
	opts := []option.RequestOption{}

	if key, ok := p.secrets.Get(llm.SecretOpenAIAPIKey); ok {
		opts = append(opts, option.WithAPIKey(key))
	} else if strings.HasPrefix(cfg.Model, "gpt") {
		p.log.Warn("no OpenAI API key configured for an OpenAI model", "model", cfg.Model)
	}

	if cfg.APIBase != "" {
		opts = append(opts, option.WithBaseURL(cfg.APIBase))
	}
	if cfg.AuthToken != "" {
		opts = append(opts, option.WithHeader("Authorization", "Bearer "+cfg.AuthToken))
	}

	return openai.NewClient(opts...)
}

func (p *Provider) buildParams(messages []llm.ChatMessage, cfg llm.ModelConfig, schema llm.OutputSchema) openai.ChatCompletionNewParams {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			converted = append(converted, openai.SystemMessage(msg.Content))
		case llm.RoleAssistant:
			converted = append(converted, openai.AssistantMessage(msg.Content))
		default:
			converted = append(converted, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(strings.TrimPrefix(cfg.Model, "openai/")),
		Messages: converted,
	}

	if cfg.Temperature != nil {
		params.Temperature = openai.Float(*cfg.Temperature)
	}
	if cfg.TopP != nil {
		params.TopP = openai.Float(*cfg.TopP)
	}
	if cfg.FrequencyPenalty != nil {
		params.FrequencyPenalty = openai.Float(*cfg.FrequencyPenalty)
	}
	if cfg.PresencePenalty != nil {
		params.PresencePenalty = openai.Float(*cfg.PresencePenalty)
	}
	if cfg.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(cfg.MaxOutputTokens))
	}

	if schema != nil {
		p.applySchema(&params, cfg, schema)
	}

	return params
}

// applySchema wires structured output. Models that honor the strict
// JSON-schema response format get it directly; everything else gets a single
// synthetic function tool with tool choice forced, so the model must answer
// through the schema.
func (p *Provider) applySchema(params *openai.ChatCompletionNewParams, cfg llm.ModelConfig, schema llm.OutputSchema) {
	if !llm.UsesToolCalling(cfg.Model) {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaToolName,
					Strict: openai.Bool(true),
					Schema: schema.JSONSchema(),
				},
			},
		}
		return
	}

	params.Tools = []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:       schemaToolName,
			Parameters: openai.FunctionParameters(schema.JSONSchema()),
		}),
	}
	params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
		OfAuto: openai.String("required"),
	}
}

func (p *Provider) Stream(ctx context.Context, messages []llm.ChatMessage, cfg llm.ModelConfig, schema llm.OutputSchema) (<-chan llm.StreamEvent, error) {
	client := p.newClient(cfg)
	params := p.buildParams(messages, cfg, schema)

	eventChan := make(chan llm.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		stream := client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		emit := func(ev llm.StreamEvent) bool {
			select {
			case <-ctx.Done():
				eventChan <- llm.StreamEvent{Err: ctx.Err()}
				return false
			case eventChan <- ev:
				return true
			}
		}

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta

			if delta.Content != "" {
				if !emit(llm.StreamEvent{Delta: delta.Content}) {
					return
				}
			}

			for _, tc := range delta.ToolCalls {
				if tc.Function.Arguments == "" {
					continue
				}
				slot := int(tc.Index)
				if !emit(llm.StreamEvent{Delta: tc.Function.Arguments, ToolSlot: &slot}) {
					return
				}
			}

			// A chunk with no content field and no tool calls means the
			// response body is over; whatever follows is trailer metadata.
			if !delta.JSON.Content.Valid() && len(delta.ToolCalls) == 0 {
				break
			}
		}

		if err := stream.Err(); err != nil {
			eventChan <- llm.StreamEvent{Err: classifyError(err)}
		}
	}()

	return eventChan, nil
}

// classifyError wraps an SDK error as a ProviderError. Authentication and
// malformed-request failures are permanent; rate limits and server errors
// are transient.
func classifyError(err error) error {
	providerErr := &llm.ProviderError{
		Provider:  llm.ProviderOpenAICompat.String(),
		Message:   err.Error(),
		Retryable: true,
		Err:       err,
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		providerErr.StatusCode = apiErr.StatusCode
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			providerErr.Retryable = false
			providerErr.Err = llm.ErrInvalidAPIKey
		case apiErr.StatusCode == 429:
			providerErr.Err = llm.ErrRateLimited
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			providerErr.Retryable = false
		}
	}

	return providerErr
}
