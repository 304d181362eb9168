package lorem

import (
	"context"
	"encoding/json"
	"testing"

	llm "github.com/aijson/aijson-ml"
)

func TestStreamPlainText(t *testing.T) {
	provider := New()

	events, err := provider.Stream(context.Background(), nil, llm.ModelConfig{Model: "lorem-fast"}, nil)
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	var text string
	count := 0
	for ev := range events {
		if ev.Err != nil {
			t.Fatalf("stream error: %v", ev.Err)
		}
		if ev.ToolSlot != nil {
			t.Fatal("plain text stream must not set ToolSlot")
		}
		text += ev.Delta
		count++
	}

	if text == "" {
		t.Fatal("no text generated")
	}
	if count < 2 {
		t.Errorf("stream arrived in %d event(s), want word-by-word delivery", count)
	}
}

func TestStreamSchemaProducesValidJSON(t *testing.T) {
	provider := New()
	schema := llm.OutputSchema{
		"title": {Type: "string"},
		"count": {Type: "integer"},
		"tags":  {Type: "array", Items: &llm.SchemaField{Type: "string"}},
		"color": {Type: "string", Enum: []any{"red", "green"}},
	}

	events, err := provider.Stream(context.Background(), nil, llm.ModelConfig{Model: "lorem-fast"}, schema)
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	var buffer string
	for ev := range events {
		if ev.Err != nil {
			t.Fatalf("stream error: %v", ev.Err)
		}
		if ev.ToolSlot == nil || *ev.ToolSlot != 0 {
			t.Fatal("schema stream must deliver fragments on tool slot 0")
		}
		buffer += ev.Delta
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(buffer), &data); err != nil {
		t.Fatalf("reassembled buffer is not JSON: %v\n%s", err, buffer)
	}
	if err := schema.Validate(data); err != nil {
		t.Fatalf("mock data does not adhere to its own schema: %v", err)
	}
}

func TestStreamCancellation(t *testing.T) {
	provider := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events, err := provider.Stream(ctx, nil, llm.ModelConfig{Model: "lorem-fast"}, nil)
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	// The channel must close promptly; events before that are fine.
	for range events {
	}
}
