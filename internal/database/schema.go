package database

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      string = "user"
	RoleAssistant string = "assistant"
)

// User is the durable record behind an anonymous browser identity. One row
// per distinct client token; rows are never mutated or deleted.
type User struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CookieId  string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

// Prompt is an administrator-curated conversation template.
type Prompt struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title        string    `gorm:"not null"`
	Description  string
	SystemPrompt string `gorm:"not null"`
	// No column default: a default would make gorm omit the zero value on
	// insert, silently flipping freshly created inactive prompts to active.
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Conversation binds one user to one prompt. The composite unique index is
// what makes concurrent get-or-create converge on a single row.
type Conversation struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_user_prompt"`
	User   *User     `gorm:"foreignKey:UserId"`

	PromptId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_user_prompt"`
	Prompt   *Prompt   `gorm:"foreignKey:PromptId"`

	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one half of a turn in a conversation. The auto-increment id
// preserves insertion order even when two rows land in the same clock tick.
type Message struct {
	Id             uint      `gorm:"primaryKey"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;index"`
	Role           string    `gorm:"size:20;not null"` // 'user' or 'assistant'
	Content        string    `gorm:"not null"`
	CreatedAt      time.Time
}

// ApiSettings holds the external provider endpoint and credentials. The api
// key is read only by the relay gateway and must never cross the client
// boundary.
type ApiSettings struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ApiUrl       string    `gorm:"not null"`
	ApiKey       string    `gorm:"not null"`
	DefaultModel string    `gorm:"not null"`
	UpdatedAt    time.Time
}
