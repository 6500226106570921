package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"promptchat-backend/cmd"
	"promptchat-backend/internal/api"
	"promptchat-backend/internal/database"
	"promptchat-backend/internal/relay"
)

type APIConfig struct {
	DatabaseURL            string `env:"DATABASE_URL" envDefault:"promptchat.db"`
	APIPort                string `env:"API_PORT" envDefault:"8080"`
	CORSAllowedOrigins     string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	ProviderTimeoutSeconds int    `env:"PROVIDER_TIMEOUT_SECONDS" envDefault:"60"`
	SeedDefaultPrompt      bool   `env:"SEED_DEFAULT_PROMPT" envDefault:"true"`
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if cfg.SeedDefaultPrompt {
		cmd.SeedDefaultPrompt(db)
	}

	gateway := relay.NewGateway(db, time.Duration(cfg.ProviderTimeoutSeconds)*time.Second)

	// --- Chi Router Setup ---
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Log requests
	r.Use(middleware.Recoverer) // Recover from panics
	r.Use(middleware.Timeout(90 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSAllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", api.RestHandler(func(r *http.Request) (any, error) { return nil, nil }))

	// API Handlers (dependency injection)
	chatService := api.NewChatService(db, gateway)
	chatService.AddRoutes(r)

	adminService := api.NewAdminService(db)
	adminService.AddRoutes(r)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
