package llm

import (
	"fmt"
	"strings"
)

// QuoteStyle selects the fencing convention used when a ContextElement is
// rendered into prompt text.
type QuoteStyle string

const (
	QuoteStyleBackticks QuoteStyle = "backticks"
	QuoteStyleXML       QuoteStyle = "xml"
)

// DefaultQuoteStyle returns the quote style used when none is supplied:
// XML-style tags for Claude models, backtick fences for everything else.
func DefaultQuoteStyle(model string) QuoteStyle {
	if strings.Contains(model, "claude") {
		return QuoteStyleXML
	}
	return QuoteStyleBackticks
}

// PromptElement is one typed unit of a structured prompt: a role marker, a
// text block, or a headed context block.
//
// Only text-bearing elements implement the renderer capability. RoleElement
// deliberately does not: role markers are consumed by the assembler as
// control elements before any rendering happens, so "rendering a role
// marker" is impossible by construction rather than a runtime error.
type PromptElement interface {
	promptElement()
}

// renderer is the capability of prompt elements that can be turned into text.
type renderer interface {
	AsString(style QuoteStyle) string
}

// RoleElement switches the role of subsequent elements. It carries no text.
type RoleElement struct {
	Role string // RoleUser, RoleSystem, or RoleAssistant
}

func (RoleElement) promptElement() {}

// TextElement is literal prompt text, optionally starting a new message
// under a different role.
type TextElement struct {
	Text string

	// Role, when non-empty, flushes the current message and switches to this
	// role before the text is appended, like a RoleElement would.
	Role string
}

func (TextElement) promptElement() {}

func (e TextElement) AsString(QuoteStyle) string {
	return e.Text
}

// ContextElement is a headed value quoted into the prompt under the active
// quote style.
type ContextElement struct {
	Heading string
	Value   string
}

func (ContextElement) promptElement() {}

func (e ContextElement) AsString(style QuoteStyle) string {
	if style == QuoteStyleBackticks {
		return fmt.Sprintf("%s:\n```\n%s\n```", e.Heading, e.Value)
	}
	return fmt.Sprintf("<%s>\n%s\n</%s>", e.Heading, e.Value, e.Heading)
}

// Text is shorthand for a TextElement with no role override.
func Text(s string) PromptElement {
	return TextElement{Text: s}
}

// Prompt is the union of the two prompt shapes a caller can send: a bare
// string (a single user message, verbatim) or an ordered element sequence.
type Prompt struct {
	text     string
	elements []PromptElement
	typed    bool
}

// TextPrompt wraps a bare string prompt.
func TextPrompt(s string) Prompt {
	return Prompt{text: s}
}

// ElementsPrompt wraps an ordered prompt element sequence.
func ElementsPrompt(elements ...PromptElement) Prompt {
	return Prompt{elements: elements, typed: true}
}
