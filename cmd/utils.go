package cmd

import (
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"promptchat-backend/internal/database"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// SeedDefaultPrompt makes sure a fresh deployment has at least one template
// to offer, so the visitor-facing picker is never empty.
func SeedDefaultPrompt(db *gorm.DB) {
	now := time.Now().UTC()

	database.WriteMu.Lock()
	defer database.WriteMu.Unlock()

	var prompt database.Prompt
	if err := db.Where(database.Prompt{Title: "General Assistant"}).Attrs(database.Prompt{
		Id:           uuid.New(),
		Description:  "Ask anything and get a helpful answer.",
		SystemPrompt: "You are a helpful assistant.",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}).FirstOrCreate(&prompt).Error; err != nil {
		log.Fatalf("Failed to create default prompt: %v", err)
	}
}
