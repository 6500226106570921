package chat

import (
	"context"

	"gorm.io/gorm"

	"promptchat-backend/internal/database"
	"promptchat-backend/internal/relay"
)

// Relayer forwards an assembled message history to the external provider and
// returns its completion.
type Relayer interface {
	Relay(ctx context.Context, history []relay.ChatMessage) (relay.Completion, error)
}

// RunTurn executes one full turn: persist the user's message, relay the
// complete history with the prompt's instruction leading as a system entry,
// then persist the assistant's reply. The system entry is synthesized per
// call and never stored.
//
// If the relay fails the user message stays persisted and no assistant
// message is written, so a resubmission continues from a consistent state.
// No partial reply is ever persisted; the assistant append happens only
// after a complete, parsed response.
func RunTurn(ctx context.Context, db *gorm.DB, relayer Relayer, conversation database.Conversation, systemPrompt, content string) (database.Message, database.Message, error) {
	userMessage, err := AppendMessage(ctx, db, conversation.Id, database.RoleUser, content)
	if err != nil {
		return database.Message{}, database.Message{}, err
	}

	history, err := LoadHistory(ctx, db, conversation.Id)
	if err != nil {
		return userMessage, database.Message{}, err
	}

	messages := make([]relay.ChatMessage, 0, len(history)+1)
	messages = append(messages, relay.ChatMessage{Role: "system", Content: systemPrompt})
	for _, msg := range history {
		messages = append(messages, relay.ChatMessage{Role: msg.Role, Content: msg.Content})
	}

	completion, err := relayer.Relay(ctx, messages)
	if err != nil {
		return userMessage, database.Message{}, err
	}

	assistantMessage, err := AppendMessage(ctx, db, conversation.Id, database.RoleAssistant, completion.Content)
	if err != nil {
		return userMessage, database.Message{}, err
	}

	return userMessage, assistantMessage, nil
}
