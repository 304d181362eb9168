package llm

// TokenCounter estimates the prompt token count for a message list.
// Callers can plug in an exact tokenizer; the default is HeuristicCounter.
type TokenCounter interface {
	CountTokens(model string, messages []ChatMessage) int
}

// HeuristicCounter approximates tokens as one per four bytes of content,
// plus a small per-message wrapping overhead. Good enough for budget
// enforcement; not suitable for billing.
type HeuristicCounter struct{}

const perMessageOverheadTokens = 4

func (HeuristicCounter) CountTokens(model string, messages []ChatMessage) int {
	total := 0
	for _, m := range messages {
		total += perMessageOverheadTokens
		total += (len(m.Content) + 3) / 4
	}
	return total
}

// TrimMessages trims a message list to fit maxTokens, preserving system
// messages and dropping the oldest non-system messages first. If a single
// remaining non-system message still exceeds the budget, its content is
// truncated to the largest prefix that fits. Returns an error when the list
// cannot be made to fit at all.
func TrimMessages(messages []ChatMessage, model string, maxTokens int, counter TokenCounter) ([]ChatMessage, error) {
	trimmed := make([]ChatMessage, len(messages))
	copy(trimmed, messages)

	for counter.CountTokens(model, trimmed) > maxTokens {
		idx := oldestNonSystem(trimmed)
		if idx < 0 {
			// Only system messages left and still over budget.
			return nil, errCannotTrim()
		}
		if countNonSystem(trimmed) > 1 {
			trimmed = append(trimmed[:idx], trimmed[idx+1:]...)
			continue
		}

		// Last non-system message: truncate its content to fit.
		fitted, ok := truncateToFit(trimmed, idx, model, maxTokens, counter)
		if !ok {
			return nil, errCannotTrim()
		}
		return fitted, nil
	}

	return trimmed, nil
}

func errCannotTrim() error {
	return &ConfigError{
		Field:  "max_prompt_tokens",
		Reason: "failed to trim messages to token budget",
	}
}

func oldestNonSystem(messages []ChatMessage) int {
	for i, m := range messages {
		if m.Role != RoleSystem {
			return i
		}
	}
	return -1
}

func countNonSystem(messages []ChatMessage) int {
	n := 0
	for _, m := range messages {
		if m.Role != RoleSystem {
			n++
		}
	}
	return n
}

// truncateToFit binary-searches the longest content prefix of messages[idx]
// that keeps the whole list within maxTokens.
func truncateToFit(messages []ChatMessage, idx int, model string, maxTokens int, counter TokenCounter) ([]ChatMessage, bool) {
	content := messages[idx].Content

	lo, hi := 0, len(content)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		messages[idx].Content = content[:mid]
		if counter.CountTokens(model, messages) <= maxTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	messages[idx].Content = content[:lo]
	if lo == 0 || counter.CountTokens(model, messages) > maxTokens {
		return nil, false
	}
	return messages, true
}
