package llm

import (
	"strings"
)

// BuildMessages folds a prompt into an ordered list of chat messages and
// enforces the model's prompt token budget.
//
// A bare string prompt becomes a single verbatim user message. An element
// sequence is walked in order: role-bearing elements (RoleElement, or a
// TextElement with a role override) flush the text accumulated under the
// previous role into one message, joined by blank lines, then switch the
// active role (default "user").
//
// If the assembled list exceeds cfg.MaxPromptTokens, it is trimmed exactly
// to budget via TrimMessages; failure to fit is a *ConfigError, not a
// retryable condition.
func BuildMessages(prompt Prompt, cfg ModelConfig, style QuoteStyle, counter TokenCounter) ([]ChatMessage, error) {
	if style == "" {
		style = DefaultQuoteStyle(cfg.Model)
	}
	if counter == nil {
		counter = HeuristicCounter{}
	}

	var messages []ChatMessage
	if !prompt.typed {
		messages = []ChatMessage{{Role: RoleUser, Content: prompt.text}}
	} else {
		messages = foldElements(prompt.elements, style)
	}

	if cfg.MaxPromptTokens > 0 && counter.CountTokens(cfg.Model, messages) > cfg.MaxPromptTokens {
		trimmed, err := TrimMessages(messages, cfg.Model, cfg.MaxPromptTokens, counter)
		if err != nil {
			return nil, err
		}
		messages = trimmed
	}

	return messages, nil
}

func foldElements(elements []PromptElement, style QuoteStyle) []ChatMessage {
	var messages []ChatMessage
	role := RoleUser
	var buffer []string

	flush := func(next string) {
		if len(buffer) > 0 {
			messages = append(messages, ChatMessage{
				Role:    role,
				Content: strings.Join(buffer, "\n\n"),
			})
		}
		buffer = nil
		role = next
	}

	for _, element := range elements {
		switch e := element.(type) {
		case RoleElement:
			// Pure role marker: consumed here, never rendered.
			flush(e.Role)
			continue
		case TextElement:
			if e.Role != "" {
				flush(e.Role)
			}
		}

		// Every remaining element carries text.
		if r, ok := element.(renderer); ok {
			buffer = append(buffer, r.AsString(style))
		}
	}
	flush(role)

	return messages
}
