package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"promptchat-backend/internal/database"
	"promptchat-backend/pkg/api"
)

// AdminService is the template and provider-settings curation surface.
// Authentication of the administrator is delegated to the surrounding
// platform; nothing here keys on the anonymous visitor identity.
type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) AddRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Route("/prompts", func(r chi.Router) {
			r.Get("/", RestHandler(s.ListPrompts))
			r.Post("/", RestHandler(s.CreatePrompt))
			r.Put("/{prompt_id}", RestHandler(s.UpdatePrompt))
			r.Delete("/{prompt_id}", RestHandler(s.DeletePrompt))
		})
		r.Get("/settings", RestHandler(s.GetSettings))
		r.Put("/settings", RestHandler(s.UpdateSettings))
	})
}

func (s *AdminService) ListPrompts(r *http.Request) (any, error) {
	query, err := ParseRequestQueryParams[api.ListPromptsQuery](r)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(r.Context()).Order("created_at ASC")
	if query.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}

	var prompts []database.Prompt
	if err := tx.Find(&prompts).Error; err != nil {
		slog.Error("error listing prompts", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving prompts")
	}

	items := make([]api.PromptDetail, 0, len(prompts))
	for _, prompt := range prompts {
		items = append(items, toPromptDetail(prompt))
	}
	return items, nil
}

func (s *AdminService) CreatePrompt(r *http.Request) (any, error) {
	req, err := ParseRequest[api.PromptRequest](r)
	if err != nil {
		return nil, err
	}
	if err := validatePromptRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	prompt := database.Prompt{
		Id:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		SystemPrompt: req.SystemPrompt,
		IsActive:     req.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	database.WriteMu.Lock()
	err = s.db.WithContext(r.Context()).Create(&prompt).Error
	database.WriteMu.Unlock()
	if err != nil {
		slog.Error("error creating prompt", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create prompt")
	}

	return toPromptDetail(prompt), nil
}

func (s *AdminService) UpdatePrompt(r *http.Request) (any, error) {
	promptId, err := URLParamUUID(r, "prompt_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.PromptRequest](r)
	if err != nil {
		return nil, err
	}
	if err := validatePromptRequest(req); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"title":         req.Title,
		"description":   req.Description,
		"system_prompt": req.SystemPrompt,
		"is_active":     req.IsActive,
		"updated_at":    time.Now().UTC(),
	}

	database.WriteMu.Lock()
	result := s.db.WithContext(r.Context()).Model(&database.Prompt{}).Where("id = ?", promptId).Updates(updates)
	database.WriteMu.Unlock()
	if result.Error != nil {
		slog.Error("error updating prompt", "prompt_id", promptId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to update prompt")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "prompt not found")
	}

	var prompt database.Prompt
	if err := s.db.WithContext(r.Context()).First(&prompt, "id = ?", promptId).Error; err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving updated prompt")
	}
	return toPromptDetail(prompt), nil
}

func (s *AdminService) DeletePrompt(r *http.Request) (any, error) {
	promptId, err := URLParamUUID(r, "prompt_id")
	if err != nil {
		return nil, err
	}

	database.WriteMu.Lock()
	result := s.db.WithContext(r.Context()).Delete(&database.Prompt{}, "id = ?", promptId)
	database.WriteMu.Unlock()
	if result.Error != nil {
		slog.Error("error deleting prompt", "prompt_id", promptId, "error", result.Error)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete prompt")
	}
	if result.RowsAffected == 0 {
		return nil, CodedErrorf(http.StatusNotFound, "prompt not found")
	}

	return nil, nil
}

func (s *AdminService) GetSettings(r *http.Request) (any, error) {
	settings, err := database.GetApiSettings(r.Context(), s.db)
	if err != nil {
		slog.Error("error retrieving api settings", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving settings")
	}
	if settings == nil {
		return api.ApiSettingsResponse{Configured: false}, nil
	}

	return api.ApiSettingsResponse{
		Configured:   true,
		ApiUrl:       settings.ApiUrl,
		ApiKeyMasked: maskKey(settings.ApiKey),
		DefaultModel: settings.DefaultModel,
	}, nil
}

func (s *AdminService) UpdateSettings(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ApiSettingsRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.ApiUrl) == "" || strings.TrimSpace(req.ApiKey) == "" || strings.TrimSpace(req.DefaultModel) == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "missing required fields: api_url, api_key, default_model")
	}

	settings, err := database.UpsertApiSettings(r.Context(), s.db,
		strings.TrimRight(strings.TrimSpace(req.ApiUrl), "/"),
		strings.TrimSpace(req.ApiKey),
		strings.TrimSpace(req.DefaultModel))
	if err != nil {
		slog.Error("error saving api settings", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save settings")
	}

	return api.ApiSettingsResponse{
		Configured:   true,
		ApiUrl:       settings.ApiUrl,
		ApiKeyMasked: maskKey(settings.ApiKey),
		DefaultModel: settings.DefaultModel,
	}, nil
}

func validatePromptRequest(req api.PromptRequest) error {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.SystemPrompt) == "" {
		return CodedErrorf(http.StatusUnprocessableEntity, "missing required fields: title, system_prompt")
	}
	return nil
}

// maskKey keeps only the last four characters of the provider secret.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
