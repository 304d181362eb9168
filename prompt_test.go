package llm

import "testing"

func TestDefaultQuoteStyle(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  QuoteStyle
	}{
		{"claude model", "claude-sonnet-4-5", QuoteStyleXML},
		{"claude via gateway prefix", "vertex/claude-haiku-4-5", QuoteStyleXML},
		{"openai model", "gpt-4o", QuoteStyleBackticks},
		{"ollama model", "ollama/llama3.1", QuoteStyleBackticks},
		{"empty model", "", QuoteStyleBackticks},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultQuoteStyle(tt.model); got != tt.want {
				t.Errorf("DefaultQuoteStyle(%q) = %q, want %q", tt.model, got, tt.want)
			}
		})
	}
}

func TestContextElementAsString(t *testing.T) {
	element := ContextElement{Heading: "Fruits", Value: "Apple"}

	tests := []struct {
		name  string
		style QuoteStyle
		want  string
	}{
		{"backticks", QuoteStyleBackticks, "Fruits:\n```\nApple\n```"},
		{"xml", QuoteStyleXML, "<Fruits>\nApple\n</Fruits>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := element.AsString(tt.style); got != tt.want {
				t.Errorf("AsString(%q) = %q, want %q", tt.style, got, tt.want)
			}
		})
	}
}

func TestTextElementAsStringIgnoresStyle(t *testing.T) {
	element := TextElement{Text: "hello `world`"}
	if got := element.AsString(QuoteStyleXML); got != "hello `world`" {
		t.Errorf("AsString() = %q, want text verbatim", got)
	}
}

// Role markers must not satisfy the renderer capability: the assembler
// consumes them before rendering, and nothing else may turn one into text.
func TestRoleElementIsNotRenderable(t *testing.T) {
	var element PromptElement = RoleElement{Role: RoleSystem}
	if _, ok := element.(renderer); ok {
		t.Fatal("RoleElement must not implement renderer")
	}
}
