package models

// Chat roles. RoleBot is the transcript name for the assistant.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleBot       = "bot"
)

// ChatTurn is one transcript entry
type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ChatMessage is one message in the completion request
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest is the body of POST /chatbot
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required,min=1,dive"`
}

// ChatResponse carries the assistant reply
type ChatResponse struct {
	Reply string `json:"reply"`
}
