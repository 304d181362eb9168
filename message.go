package llm

// Chat roles. Roles are not required to alternate; consecutive same-role
// elements are merged into one message by the assembler.
const (
	RoleUser      = "user"
	RoleSystem    = "system"
	RoleAssistant = "assistant"
)

// ChatMessage is one provider-agnostic chat message.
// The json tags match the wire shape of the OpenAI-style and Ollama chat APIs.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
