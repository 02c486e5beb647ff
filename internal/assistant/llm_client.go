package assistant

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn-level message in the assembled prompt.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMRequest carries the assembled message sequence to the model.
type LLMRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float32
}

// LLMResponse is the model's reply.
type LLMResponse struct {
	Text string
}

// LLMClient abstracts the inference backend.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
