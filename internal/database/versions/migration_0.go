package versions

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Frozen copies of the initial schema. The live models in the database
// package may drift; migrations must not.

type User struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CookieId  string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

type Prompt struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title        string    `gorm:"not null"`
	Description  string
	SystemPrompt string `gorm:"not null"`
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

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

type Message struct {
	Id             uint      `gorm:"primaryKey"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;index"`
	Role           string    `gorm:"size:20;not null"`
	Content        string    `gorm:"not null"`
	CreatedAt      time.Time
}

type ApiSettings struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ApiUrl       string    `gorm:"not null"`
	ApiKey       string    `gorm:"not null"`
	DefaultModel string    `gorm:"not null"`
	UpdatedAt    time.Time
}

func Migration0(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{}, &Prompt{}, &Conversation{}, &Message{}, &ApiSettings{},
	)
	if err != nil {
		return fmt.Errorf("initial migration failed: %w", err)
	}
	return nil
}
