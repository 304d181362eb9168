package anthropic

import (
	"log/slog"
	"testing"

	llm "github.com/aijson/aijson-ml"
)

type mapResolver map[string]string

func (m mapResolver) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok && v != ""
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(mapResolver{llm.SecretAnthropicAPIKey: "test-key"}, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(mapResolver{}, slog.Default())
	if err != llm.ErrInvalidAPIKey {
		t.Fatalf("New() error = %v, want ErrInvalidAPIKey", err)
	}
}

func TestBuildMessageParamsSeparatesSystem(t *testing.T) {
	provider := newTestProvider(t)

	params := provider.buildMessageParams([]llm.ChatMessage{
		{Role: llm.RoleSystem, Content: "Be terse."},
		{Role: llm.RoleSystem, Content: "Answer in English."},
		{Role: llm.RoleUser, Content: "Hi"},
		{Role: llm.RoleAssistant, Content: "Hello"},
	}, llm.ModelConfig{Model: "claude-sonnet-4-5"})

	if len(params.System) != 1 {
		t.Fatalf("System blocks = %d, want 1", len(params.System))
	}
	if got, want := params.System[0].Text, "Be terse.\n\nAnswer in English."; got != want {
		t.Errorf("System = %q, want %q", got, want)
	}
	if len(params.Messages) != 2 {
		t.Errorf("Messages = %d, want 2 (system lifted out)", len(params.Messages))
	}
	if string(params.Model) != "claude-sonnet-4-5" {
		t.Errorf("Model = %q", params.Model)
	}
}

func TestBuildMessageParamsDropsUnknownRoles(t *testing.T) {
	provider := newTestProvider(t)

	params := provider.buildMessageParams([]llm.ChatMessage{
		{Role: "tool", Content: "ignored"},
		{Role: llm.RoleUser, Content: "Hi"},
	}, llm.ModelConfig{Model: "claude-sonnet-4-5"})

	if len(params.Messages) != 1 {
		t.Errorf("Messages = %d, want 1 (unknown role dropped)", len(params.Messages))
	}
}

func TestBuildMessageParamsMaxTokens(t *testing.T) {
	provider := newTestProvider(t)

	params := provider.buildMessageParams(nil, llm.ModelConfig{Model: "claude-sonnet-4-5"})
	if params.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want default 4096", params.MaxTokens)
	}

	params = provider.buildMessageParams(nil, llm.ModelConfig{Model: "claude-sonnet-4-5", MaxOutputTokens: 100})
	if params.MaxTokens != 100 {
		t.Errorf("MaxTokens = %d, want 100", params.MaxTokens)
	}
}

func TestBuildMessageParamsOptionalSampling(t *testing.T) {
	provider := newTestProvider(t)

	params := provider.buildMessageParams(nil, llm.ModelConfig{Model: "claude-sonnet-4-5"})
	if params.Temperature.Valid() || params.TopP.Valid() {
		t.Error("unset sampling params must stay unset")
	}

	params = provider.buildMessageParams(nil, llm.ModelConfig{
		Model:       "claude-sonnet-4-5",
		Temperature: llm.Float(0.7),
		TopP:        llm.Float(0.9),
	})
	if !params.Temperature.Valid() || params.Temperature.Value != 0.7 {
		t.Errorf("Temperature = %+v, want 0.7", params.Temperature)
	}
	if !params.TopP.Valid() || params.TopP.Value != 0.9 {
		t.Errorf("TopP = %+v, want 0.9", params.TopP)
	}
}
