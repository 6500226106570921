package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"promptchat-backend/internal/chat"
	"promptchat-backend/internal/database"
	"promptchat-backend/internal/relay"
	"promptchat-backend/pkg/api"
)

// userCookieName is the first-party cookie carrying the opaque client token.
const userCookieName = "ai_prompt_user_id"

const userCookieMaxAge = 365 * 24 * 60 * 60

type ChatService struct {
	db      *gorm.DB
	gateway chat.Relayer
}

func NewChatService(db *gorm.DB, gateway chat.Relayer) *ChatService {
	return &ChatService{db: db, gateway: gateway}
}

func (s *ChatService) AddRoutes(r chi.Router) {
	r.Post("/identity", s.ResolveIdentity)
	r.Get("/prompts", RestHandler(s.ListPrompts))
	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", s.StartConversation)
		r.Get("/{conversation_id}/messages", RestHandler(s.GetHistory))
		r.Post("/{conversation_id}/messages", RestHandler(s.SendMessage))
	})
	r.Post("/chat", s.RelayChat)
}

// ResolveIdentity maps the client token cookie to a user, minting a fresh
// identity (and setting the cookie) on first contact. Written as a plain
// handler because it needs the response writer for Set-Cookie.
func (s *ChatService) ResolveIdentity(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.resolveUser(w, r)
	if err != nil {
		slog.Error("error resolving identity", "error", err)
		http.Error(w, "could not resolve identity", http.StatusInternalServerError)
		return
	}

	WriteJsonResponse(w, api.IdentityResponse{UserId: resolved.UserId, IsNew: resolved.IsNew})
}

func (s *ChatService) resolveUser(w http.ResponseWriter, r *http.Request) (chat.ResolvedUser, error) {
	token := ""
	if cookie, err := r.Cookie(userCookieName); err == nil {
		token = cookie.Value
	}

	resolved, err := chat.ResolveUser(r.Context(), s.db, token)
	if err != nil {
		return chat.ResolvedUser{}, err
	}

	if resolved.IsNew {
		http.SetCookie(w, &http.Cookie{
			Name:     userCookieName,
			Value:    resolved.Token,
			Path:     "/",
			MaxAge:   userCookieMaxAge,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return resolved, nil
}

func (s *ChatService) ListPrompts(r *http.Request) (any, error) {
	var prompts []database.Prompt
	err := s.db.WithContext(r.Context()).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&prompts).Error
	if err != nil {
		slog.Error("error listing prompts", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving prompts")
	}

	items := make([]api.PromptMetadata, 0, len(prompts))
	for _, prompt := range prompts {
		items = append(items, toPromptMetadata(prompt))
	}
	return items, nil
}

// StartConversation resolves the visitor's identity, then finds or creates
// the single conversation for the (user, prompt) pair and returns it with
// its history.
func (s *ChatService) StartConversation(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest[api.StartConversationRequest](r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resolved, err := s.resolveUser(w, r)
	if err != nil {
		slog.Error("error resolving identity", "error", err)
		http.Error(w, "could not resolve identity", http.StatusInternalServerError)
		return
	}

	conversation, isNew, err := chat.GetOrCreateConversation(r.Context(), s.db, resolved.UserId, req.PromptId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "prompt not found", http.StatusNotFound)
			return
		}
		slog.Error("error getting or creating conversation", "error", err)
		http.Error(w, "could not open conversation", http.StatusInternalServerError)
		return
	}

	var history []database.Message
	if !isNew {
		history, err = chat.LoadHistory(r.Context(), s.db, conversation.Id)
		if err != nil {
			slog.Error("error loading history", "conversation_id", conversation.Id, "error", err)
			http.Error(w, "could not load conversation history", http.StatusInternalServerError)
			return
		}
	}

	WriteJsonResponse(w, api.StartConversationResponse{
		ConversationId: conversation.Id,
		Title:          conversation.Title,
		IsNew:          isNew,
		Messages:       toChatMessageItems(history),
	})
}

func (s *ChatService) GetHistory(r *http.Request) (any, error) {
	conversationId, err := URLParamUUID(r, "conversation_id")
	if err != nil {
		return nil, err
	}

	history, err := chat.LoadHistory(r.Context(), s.db, conversationId)
	if err != nil {
		slog.Error("error loading history", "conversation_id", conversationId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving message history")
	}

	return toChatMessageItems(history), nil
}

// SendMessage runs one full turn: persist the user message, relay the history
// through the gateway, persist the assistant reply. A relay failure leaves
// the user message in place with no assistant half-turn, so the client can
// resubmit from a consistent state.
func (s *ChatService) SendMessage(r *http.Request) (any, error) {
	conversationId, err := URLParamUUID(r, "conversation_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SendMessageRequest](r)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "message content must not be empty")
	}

	conversation, err := chat.GetConversation(r.Context(), s.db, conversationId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "conversation not found")
		}
		slog.Error("error loading conversation", "conversation_id", conversationId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving conversation")
	}

	var prompt database.Prompt
	if err := s.db.WithContext(r.Context()).First(&prompt, "id = ?", conversation.PromptId).Error; err != nil {
		slog.Error("error loading prompt", "prompt_id", conversation.PromptId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving prompt")
	}

	userMessage, assistantMessage, err := chat.RunTurn(r.Context(), s.db, s.gateway, conversation, prompt.SystemPrompt, content)
	if err != nil {
		if relayErr := mapRelayError(err); relayErr != nil {
			return nil, relayErr
		}
		slog.Error("error running chat turn", "conversation_id", conversationId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error processing message")
	}

	return api.SendMessageResponse{
		UserMessage:      toChatMessageItem(userMessage),
		AssistantMessage: toChatMessageItem(assistantMessage),
	}, nil
}

// RelayChat is the raw passthrough contract: the caller supplies the full
// message list and receives the provider's completion JSON verbatim, or a
// json error body with a 5xx status. Caller authorization is delegated to
// the surrounding platform.
func (s *ChatService) RelayChat(w http.ResponseWriter, r *http.Request) {
	var req api.RelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRelayError(w, http.StatusBadRequest, "unable to parse request body")
		return
	}

	history := make([]relay.ChatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		history = append(history, relay.ChatMessage{Role: msg.Role, Content: msg.Content})
	}

	completion, err := s.gateway.Relay(r.Context(), history)
	if err != nil {
		relayErr := mapRelayError(err)
		if relayErr == nil {
			slog.Error("error relaying chat", "error", err)
			writeRelayError(w, http.StatusInternalServerError, "error relaying chat")
			return
		}
		var cerr *codedError
		errors.As(relayErr, &cerr)
		writeRelayError(w, cerr.code, relayErr.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(completion.Raw); err != nil {
		slog.Error("error writing relay response", "error", err)
	}
}

func writeRelayError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(api.RelayErrorResponse{Error: message}); err != nil {
		slog.Error("error writing relay error response", "error", err)
	}
}

// mapRelayError converts gateway failures to coded boundary errors with a
// stable status per kind. Messages are fixed strings; nothing from the
// provider's error bodies is echoed back.
func mapRelayError(err error) error {
	var reqErr *relay.ProviderRequestError
	switch {
	case errors.Is(err, relay.ErrConfigurationMissing):
		return CodedErrorf(http.StatusServiceUnavailable, "assistant is not configured")
	case errors.Is(err, relay.ErrProviderTimeout):
		return CodedErrorf(http.StatusGatewayTimeout, "assistant request timed out")
	case errors.As(err, &reqErr):
		return CodedErrorf(http.StatusBadGateway, "assistant request failed with status %d", reqErr.StatusCode)
	case errors.Is(err, relay.ErrProviderResponseInvalid):
		return CodedErrorf(http.StatusBadGateway, "assistant returned an invalid response")
	}
	return nil
}
