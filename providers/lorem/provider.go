// Package lorem is a mock provider that streams lorem ipsum text. It lets
// applications exercise the full invocation pipeline, including structured
// output finalization, without API keys or network access. Install it with
// llm.WithProvider; the router never selects it.
package lorem

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	llm "github.com/aijson/aijson-ml"
)

// Provider streams mock responses word by word.
type Provider struct {
	generator *loremgen.Lorem

	// Delay between words. Zero streams as fast as the consumer reads,
	// which is what tests want.
	Delay time.Duration
}

func New() *Provider {
	return &Provider{generator: loremgen.New()}
}

func (p *Provider) Name() llm.ProviderID {
	return llm.ProviderLorem
}

// Stream emits a few sentences of lorem ipsum word by word. When a schema is
// requested, it instead streams a schema-conforming JSON object as tool
// argument fragments on slot 0, mimicking the forced-tool path.
func (p *Provider) Stream(ctx context.Context, _ []llm.ChatMessage, cfg llm.ModelConfig, schema llm.OutputSchema) (<-chan llm.StreamEvent, error) {
	var text string
	var slot *int
	if schema != nil {
		payload, err := json.Marshal(mockDataFor(p.generator, schema))
		if err != nil {
			return nil, err
		}
		text = string(payload)
		slot = new(int)
	} else {
		text = p.generator.Paragraph(2, 4)
	}

	delay := p.Delay
	if delay == 0 && strings.Contains(cfg.Model, "slow") {
		delay = 100 * time.Millisecond
	}

	eventChan := make(chan llm.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		words := strings.SplitAfter(text, " ")
		for _, word := range words {
			if delay > 0 {
				select {
				case <-ctx.Done():
					eventChan <- llm.StreamEvent{Err: ctx.Err()}
					return
				case <-time.After(delay):
				}
			}

			select {
			case <-ctx.Done():
				eventChan <- llm.StreamEvent{Err: ctx.Err()}
				return
			case eventChan <- llm.StreamEvent{Delta: word, ToolSlot: slot}:
			}
		}
	}()

	return eventChan, nil
}

// mockDataFor fabricates a value adhering to each schema field, so the
// finalizer's validation passes on mock runs.
func mockDataFor(gen *loremgen.Lorem, schema llm.OutputSchema) map[string]any {
	data := make(map[string]any, len(schema))
	for name, field := range schema {
		data[name] = mockValue(gen, field)
	}
	return data
}

func mockValue(gen *loremgen.Lorem, field llm.SchemaField) any {
	if len(field.Enum) > 0 {
		return field.Enum[0]
	}

	switch field.Type {
	case "string", "":
		return gen.Sentence(3, 8)
	case "number":
		return 42.5
	case "integer":
		return 42
	case "boolean":
		return true
	case "array":
		item := llm.SchemaField{}
		if field.Items != nil {
			item = *field.Items
		}
		return []any{mockValue(gen, item), mockValue(gen, item)}
	case "object":
		obj := make(map[string]any, len(field.Properties))
		for name, nested := range field.Properties {
			obj[name] = mockValue(gen, nested)
		}
		return obj
	default:
		return nil
	}
}
