package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TouchConversation(ctx context.Context, txn *gorm.DB, conversationId uuid.UUID) error {
	if err := txn.WithContext(ctx).
		Model(&Conversation{Id: conversationId}).
		Update("updated_at", time.Now().UTC()).Error; err != nil {
		slog.Error("error touching conversation", "conversation_id", conversationId, "error", err)
		return err
	}
	return nil
}

// GetApiSettings returns the provider settings row, or nil when none has been
// configured yet.
func GetApiSettings(ctx context.Context, db *gorm.DB) (*ApiSettings, error) {
	var settings ApiSettings
	err := db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not query api settings: %w", err)
	}
	return &settings, nil
}

// UpsertApiSettings replaces the single provider settings row. There is at
// most one row; the admin surface overwrites it wholesale. The write lock
// spans the read as well so concurrent upserts cannot both create a row.
func UpsertApiSettings(ctx context.Context, db *gorm.DB, apiUrl, apiKey, defaultModel string) (*ApiSettings, error) {
	WriteMu.Lock()
	defer WriteMu.Unlock()

	existing, err := GetApiSettings(ctx, db)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		settings := ApiSettings{
			Id:           uuid.New(),
			ApiUrl:       apiUrl,
			ApiKey:       apiKey,
			DefaultModel: defaultModel,
			UpdatedAt:    time.Now().UTC(),
		}
		if err := db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, fmt.Errorf("could not create api settings: %w", err)
		}
		return &settings, nil
	}

	updates := map[string]any{
		"api_url":       apiUrl,
		"api_key":       apiKey,
		"default_model": defaultModel,
		"updated_at":    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Model(&ApiSettings{Id: existing.Id}).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("could not update api settings: %w", err)
	}
	return GetApiSettings(ctx, db)
}
