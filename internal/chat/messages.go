package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"promptchat-backend/internal/database"
)

// AppendMessage inserts one message row with a server-assigned timestamp and
// refreshes the parent conversation's updated_at. Rows are append-only;
// nothing mutates history after the fact.
//
// Content validation (non-empty after trimming) is the caller's job. The log
// also does not serialize concurrent turns for one conversation; callers
// must await the user-turn append before relaying and await the relay before
// appending the assistant turn.
func AppendMessage(ctx context.Context, db *gorm.DB, conversationId uuid.UUID, role, content string) (database.Message, error) {
	message := database.Message{
		ConversationId: conversationId,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}

	database.WriteMu.Lock()
	defer database.WriteMu.Unlock()

	if err := db.WithContext(ctx).Create(&message).Error; err != nil {
		return database.Message{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := database.TouchConversation(ctx, db, conversationId); err != nil {
		return database.Message{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return message, nil
}
