package llm

import (
	"strings"
	"testing"
)

func TestHeuristicCounter(t *testing.T) {
	counter := HeuristicCounter{}

	if got := counter.CountTokens("any", nil); got != 0 {
		t.Errorf("CountTokens(nil) = %d, want 0", got)
	}

	messages := []ChatMessage{{Role: RoleUser, Content: strings.Repeat("x", 40)}}
	// 40 bytes / 4 + per-message overhead.
	if got := counter.CountTokens("any", messages); got != 14 {
		t.Errorf("CountTokens() = %d, want 14", got)
	}
}

func TestTrimMessagesDropsOldestNonSystemFirst(t *testing.T) {
	messages := []ChatMessage{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: strings.Repeat("a", 100)},
		{Role: RoleAssistant, Content: "short"},
		{Role: RoleUser, Content: "latest"},
	}

	counter := HeuristicCounter{}
	budget := counter.CountTokens("m", messages) - 1

	trimmed, err := TrimMessages(messages, "m", budget, counter)
	if err != nil {
		t.Fatalf("TrimMessages() error: %v", err)
	}

	if trimmed[0].Role != RoleSystem {
		t.Errorf("system message not preserved: %+v", trimmed)
	}
	for _, m := range trimmed {
		if m.Content == strings.Repeat("a", 100) {
			t.Error("oldest non-system message should have been dropped")
		}
	}
	if trimmed[len(trimmed)-1].Content != "latest" {
		t.Errorf("newest message not preserved: %+v", trimmed)
	}
}

func TestTrimMessagesTruncatesLastNonSystem(t *testing.T) {
	messages := []ChatMessage{
		{Role: RoleUser, Content: strings.Repeat("word ", 100)},
	}

	counter := HeuristicCounter{}
	trimmed, err := TrimMessages(messages, "m", 30, counter)
	if err != nil {
		t.Fatalf("TrimMessages() error: %v", err)
	}

	if got := counter.CountTokens("m", trimmed); got > 30 {
		t.Errorf("trimmed list counts %d tokens, budget 30", got)
	}
	if trimmed[0].Content == "" {
		t.Error("content truncated to nothing")
	}
	if !strings.HasPrefix(messages[0].Content, trimmed[0].Content) {
		t.Error("truncation must keep a prefix of the original content")
	}
}

func TestTrimMessagesSystemOnlyOverBudget(t *testing.T) {
	messages := []ChatMessage{
		{Role: RoleSystem, Content: strings.Repeat("x", 200)},
	}

	_, err := TrimMessages(messages, "m", 10, HeuristicCounter{})
	if err == nil {
		t.Fatal("TrimMessages() = nil error, want failure")
	}
}

func TestTrimMessagesNoTrimNeeded(t *testing.T) {
	messages := []ChatMessage{{Role: RoleUser, Content: "hi"}}
	trimmed, err := TrimMessages(messages, "m", 100, HeuristicCounter{})
	if err != nil {
		t.Fatalf("TrimMessages() error: %v", err)
	}
	if len(trimmed) != 1 || trimmed[0] != messages[0] {
		t.Errorf("messages changed without need: %+v", trimmed)
	}
}
