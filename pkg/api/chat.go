package api

import "github.com/google/uuid"

type IdentityResponse struct {
	UserId uuid.UUID `json:"user_id"`
	IsNew  bool      `json:"is_new"`
}

type PromptMetadata struct {
	Id          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

type StartConversationRequest struct {
	PromptId uuid.UUID `json:"prompt_id"`
}

type ChatMessageItem struct {
	Id        uint   `json:"id"`
	Role      string `json:"role"` // "user" or "assistant"
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type StartConversationResponse struct {
	ConversationId uuid.UUID         `json:"conversation_id"`
	Title          string            `json:"title"`
	IsNew          bool              `json:"is_new"`
	Messages       []ChatMessageItem `json:"messages"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	UserMessage      ChatMessageItem `json:"user_message"`
	AssistantMessage ChatMessageItem `json:"assistant_message"`
}

type RelayMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type RelayRequest struct {
	Messages []RelayMessage `json:"messages"`
}

type RelayErrorResponse struct {
	Error string `json:"error"`
}
