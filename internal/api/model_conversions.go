package api

import (
	"time"

	"promptchat-backend/internal/database"
	"promptchat-backend/pkg/api"
)

func toChatMessageItem(msg database.Message) api.ChatMessageItem {
	return api.ChatMessageItem{
		Id:        msg.Id,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
	}
}

func toChatMessageItems(messages []database.Message) []api.ChatMessageItem {
	items := make([]api.ChatMessageItem, 0, len(messages))
	for _, msg := range messages {
		items = append(items, toChatMessageItem(msg))
	}
	return items
}

func toPromptMetadata(prompt database.Prompt) api.PromptMetadata {
	return api.PromptMetadata{
		Id:          prompt.Id,
		Title:       prompt.Title,
		Description: prompt.Description,
	}
}

func toPromptDetail(prompt database.Prompt) api.PromptDetail {
	return api.PromptDetail{
		Id:           prompt.Id,
		Title:        prompt.Title,
		Description:  prompt.Description,
		SystemPrompt: prompt.SystemPrompt,
		IsActive:     prompt.IsActive,
		CreatedAt:    prompt.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    prompt.UpdatedAt.Format(time.RFC3339),
	}
}
