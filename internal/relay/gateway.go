package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"gorm.io/gorm"

	"promptchat-backend/internal/database"
)

// Generation parameters are fixed server-side; callers cannot override them.
const (
	temperature = 0.7
	maxTokens   = 2000
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion carries the raw provider body alongside the extracted assistant
// text. Raw is what the passthrough endpoint returns verbatim.
type Completion struct {
	Raw     json.RawMessage
	Content string
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Gateway is the server-side boundary to the external chat completions
// provider. Credentials are loaded from storage inside Relay and attached to
// the outbound request only; they never appear in errors, logs, or anything
// returned across the boundary.
type Gateway struct {
	db     *gorm.DB
	client *resty.Client
}

func NewGateway(db *gorm.DB, timeout time.Duration) *Gateway {
	return &Gateway{
		db:     db,
		client: resty.New().SetTimeout(timeout),
	}
}

// Relay issues a single synchronous request to the provider with the full
// message history and returns the first completion. There is no retry here;
// retries belong to the caller, which must not duplicate a user message.
func (g *Gateway) Relay(ctx context.Context, history []ChatMessage) (Completion, error) {
	settings, err := database.GetApiSettings(ctx, g.db)
	if err != nil {
		return Completion{}, err
	}
	if settings == nil {
		return Completion{}, ErrConfigurationMissing
	}

	body := chatCompletionRequest{
		Model:       settings.DefaultModel,
		Messages:    history,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	res, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(settings.ApiKey).
		SetBody(body).
		Post(settings.ApiUrl + "/chat/completions")
	if err != nil {
		if isTimeout(err) {
			return Completion{}, ErrProviderTimeout
		}
		return Completion{}, fmt.Errorf("error calling provider: %w", err)
	}

	if res.IsError() {
		slog.Error("provider request failed", "status", res.StatusCode())
		return Completion{}, &ProviderRequestError{StatusCode: res.StatusCode()}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		return Completion{}, ErrProviderResponseInvalid
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return Completion{}, ErrProviderResponseInvalid
	}

	return Completion{
		Raw:     json.RawMessage(res.Body()),
		Content: parsed.Choices[0].Message.Content,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
