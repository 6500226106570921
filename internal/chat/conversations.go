package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"promptchat-backend/internal/database"
)

// GetOrCreateConversation returns the single conversation for a (user,
// prompt) pair, creating it lazily on first contact. The second return value
// reports whether the row is new.
//
// Concurrent first calls for the same pair race on the insert; the composite
// unique index decides the winner and the loser re-reads and adopts the
// winning row. The conflict is resolved here and never surfaces to callers.
func GetOrCreateConversation(ctx context.Context, db *gorm.DB, userId, promptId uuid.UUID) (database.Conversation, bool, error) {
	var existing database.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ? AND prompt_id = ?", userId, promptId).
		Order("updated_at DESC").
		First(&existing).Error
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Conversation{}, false, fmt.Errorf("error querying conversation: %w", err)
	}

	var prompt database.Prompt
	if err := db.WithContext(ctx).First(&prompt, "id = ?", promptId).Error; err != nil {
		return database.Conversation{}, false, fmt.Errorf("error loading prompt: %w", err)
	}

	now := time.Now().UTC()
	conversation := database.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		PromptId:  promptId,
		Title:     prompt.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	database.WriteMu.Lock()
	err = db.WithContext(ctx).Create(&conversation).Error
	database.WriteMu.Unlock()
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race; adopt the winner.
			var winner database.Conversation
			if err := db.WithContext(ctx).
				Where("user_id = ? AND prompt_id = ?", userId, promptId).
				First(&winner).Error; err != nil {
				return database.Conversation{}, false, fmt.Errorf("error re-reading conversation after conflict: %w", err)
			}
			return winner, false, nil
		}
		return database.Conversation{}, false, fmt.Errorf("error creating conversation: %w", err)
	}

	return conversation, true, nil
}

func GetConversation(ctx context.Context, db *gorm.DB, conversationId uuid.UUID) (database.Conversation, error) {
	var conversation database.Conversation
	err := db.WithContext(ctx).First(&conversation, "id = ?", conversationId).Error
	return conversation, err
}

// LoadHistory returns the conversation's messages in creation order. An
// empty slice is valid for a fresh conversation.
func LoadHistory(ctx context.Context, db *gorm.DB, conversationId uuid.UUID) ([]database.Message, error) {
	var history []database.Message
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Order("created_at ASC, id ASC").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("error loading message history: %w", err)
	}
	return history, nil
}
