package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"promptchat-backend/internal/database"
	"promptchat-backend/internal/relay"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	return db
}

func createPrompt(t *testing.T, db *gorm.DB, title string) database.Prompt {
	now := time.Now().UTC()
	prompt := database.Prompt{
		Id:           uuid.New(),
		Title:        title,
		SystemPrompt: "You are a helpful assistant.",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(&prompt).Error)
	return prompt
}

func TestResolveUserMintsIdentityOnce(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	first, err := ResolveUser(ctx, db, "")
	require.NoError(t, err)
	assert.True(t, first.IsNew)
	assert.NotEmpty(t, first.Token)

	// The returned token maps back to the same user on every later call.
	for i := 0; i < 3; i++ {
		again, err := ResolveUser(ctx, db, first.Token)
		require.NoError(t, err)
		assert.False(t, again.IsNew)
		assert.Equal(t, first.UserId, again.UserId)
		assert.Equal(t, first.Token, again.Token)
	}

	var count int64
	require.NoError(t, db.Model(&database.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestResolveUserUnknownTokenMintsFreshIdentity(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	resolved, err := ResolveUser(ctx, db, "stale-token-from-a-wiped-database")
	require.NoError(t, err)
	assert.True(t, resolved.IsNew)
	// A stale token is never adopted; the user gets a newly minted one.
	assert.NotEqual(t, "stale-token-from-a-wiped-database", resolved.Token)
}

func TestResolveUserTokensAreDistinct(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		resolved, err := ResolveUser(ctx, db, "")
		require.NoError(t, err)
		assert.False(t, seen[resolved.Token])
		seen[resolved.Token] = true
	}
}

func TestGetOrCreateConversation(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	prompt := createPrompt(t, db, "Trip Planner")
	user, err := ResolveUser(ctx, db, "")
	require.NoError(t, err)

	conversation, isNew, err := GetOrCreateConversation(ctx, db, user.UserId, prompt.Id)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, prompt.Title, conversation.Title)

	history, err := LoadHistory(ctx, db, conversation.Id)
	require.NoError(t, err)
	assert.Empty(t, history)

	again, isNew, err := GetOrCreateConversation(ctx, db, user.UserId, prompt.Id)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, conversation.Id, again.Id)
}

func TestGetOrCreateConversationMissingPrompt(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	user, err := ResolveUser(ctx, db, "")
	require.NoError(t, err)

	_, _, err = GetOrCreateConversation(ctx, db, user.UserId, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestConversationUniqueIndex(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	prompt := createPrompt(t, db, "Trip Planner")
	user, err := ResolveUser(ctx, db, "")
	require.NoError(t, err)

	conversation, _, err := GetOrCreateConversation(ctx, db, user.UserId, prompt.Id)
	require.NoError(t, err)

	// A raw second insert for the pair must hit the unique index.
	now := time.Now().UTC()
	duplicate := database.Conversation{
		Id:        uuid.New(),
		UserId:    user.UserId,
		PromptId:  prompt.Id,
		Title:     prompt.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = db.Create(&duplicate).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// And get-or-create resolves to the existing row instead of surfacing it.
	winner, isNew, err := GetOrCreateConversation(ctx, db, user.UserId, prompt.Id)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, conversation.Id, winner.Id)
}

func TestGetOrCreateConversationConcurrent(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	prompt := createPrompt(t, db, "Trip Planner")
	user, err := ResolveUser(ctx, db, "")
	require.NoError(t, err)

	const callers = 8

	ids := make([]uuid.UUID, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conversation, _, err := GetOrCreateConversation(ctx, db, user.UserId, prompt.Id)
			ids[i], errs[i] = conversation.Id, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int64
	require.NoError(t, db.Model(&database.Conversation{}).
		Where("user_id = ? AND prompt_id = ?", user.UserId, prompt.Id).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAppendMessageOrderingAndTouch(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	prompt := createPrompt(t, db, "Trip Planner")
	user, err := ResolveUser(ctx, db, "")
	require.NoError(t, err)
	conversation, _, err := GetOrCreateConversation(ctx, db, user.UserId, prompt.Id)
	require.NoError(t, err)

	before := conversation.UpdatedAt

	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		_, err := AppendMessage(ctx, db, conversation.Id, database.RoleUser, content)
		require.NoError(t, err)
	}

	history, err := LoadHistory(ctx, db, conversation.Id)
	require.NoError(t, err)
	require.Len(t, history, len(contents))
	for i, msg := range history {
		assert.Equal(t, contents[i], msg.Content)
		assert.Equal(t, database.RoleUser, msg.Role)
		if i > 0 {
			assert.Greater(t, msg.Id, history[i-1].Id)
		}
	}

	var touched database.Conversation
	require.NoError(t, db.First(&touched, "id = ?", conversation.Id).Error)
	assert.False(t, touched.UpdatedAt.Before(before))
}

type fakeRelayer struct {
	history []relay.ChatMessage
	reply   string
	err     error
}

func (f *fakeRelayer) Relay(ctx context.Context, history []relay.ChatMessage) (relay.Completion, error) {
	f.history = history
	if f.err != nil {
		return relay.Completion{}, f.err
	}
	return relay.Completion{Content: f.reply}, nil
}

func TestRunTurnRoundTrip(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	prompt := createPrompt(t, db, "Trip Planner")
	user, err := ResolveUser(ctx, db, "")
	require.NoError(t, err)
	conversation, _, err := GetOrCreateConversation(ctx, db, user.UserId, prompt.Id)
	require.NoError(t, err)

	relayer := &fakeRelayer{reply: "hi there"}

	userMessage, assistantMessage, err := RunTurn(ctx, db, relayer, conversation, prompt.SystemPrompt, "hello")
	require.NoError(t, err)
	assert.Equal(t, database.RoleUser, userMessage.Role)
	assert.Equal(t, "hello", userMessage.Content)
	assert.Equal(t, database.RoleAssistant, assistantMessage.Role)
	assert.Equal(t, "hi there", assistantMessage.Content)

	// The relayed history leads with a synthesized system entry that is
	// never persisted.
	require.Len(t, relayer.history, 2)
	assert.Equal(t, relay.ChatMessage{Role: "system", Content: prompt.SystemPrompt}, relayer.history[0])
	assert.Equal(t, relay.ChatMessage{Role: database.RoleUser, Content: "hello"}, relayer.history[1])

	history, err := LoadHistory(ctx, db, conversation.Id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, userMessage.Content, history[0].Content)
	assert.Equal(t, assistantMessage.Content, history[1].Content)
}

func TestRunTurnRelayFailureLeavesNoHalfTurn(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	prompt := createPrompt(t, db, "Trip Planner")
	user, err := ResolveUser(ctx, db, "")
	require.NoError(t, err)
	conversation, _, err := GetOrCreateConversation(ctx, db, user.UserId, prompt.Id)
	require.NoError(t, err)

	relayer := &fakeRelayer{err: fmt.Errorf("provider unavailable")}

	_, _, err = RunTurn(ctx, db, relayer, conversation, prompt.SystemPrompt, "hello")
	require.Error(t, err)

	// The user's message survives, no assistant message is written.
	history, err := LoadHistory(ctx, db, conversation.Id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, database.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
}
