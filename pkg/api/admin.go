package api

import "github.com/google/uuid"

type PromptRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
	IsActive     bool   `json:"is_active"`
}

type PromptDetail struct {
	Id           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	SystemPrompt string    `json:"system_prompt"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
}

type ListPromptsQuery struct {
	ActiveOnly bool `schema:"active_only"`
}

type ApiSettingsRequest struct {
	ApiUrl       string `json:"api_url"`
	ApiKey       string `json:"api_key"`
	DefaultModel string `json:"default_model"`
}

// ApiSettingsResponse masks the provider key; the full secret never crosses
// the client boundary.
type ApiSettingsResponse struct {
	Configured   bool   `json:"configured"`
	ApiUrl       string `json:"api_url,omitempty"`
	ApiKeyMasked string `json:"api_key_masked,omitempty"`
	DefaultModel string `json:"default_model,omitempty"`
}
