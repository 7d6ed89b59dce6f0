package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dklimov/circles/internal/api"
	"github.com/dklimov/circles/internal/auth"
	"github.com/dklimov/circles/internal/config"
	"github.com/dklimov/circles/internal/service"
	"github.com/dklimov/circles/internal/storage/sql"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create data directory if needed (for SQLite)
	if cfg.Database.Driver == "sqlite3" {
		if dir := filepath.Dir(cfg.Database.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				log.Fatalf("Failed to create data directory: %v", err)
			}
		}
	}

	// Initialize storage
	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Initialize the token verifier
	var verifier auth.Verifier
	if cfg.Auth.OIDCIssuerURL != "" {
		verifier, err = auth.NewOIDCVerifier(context.Background(), cfg.Auth.OIDCIssuerURL, cfg.Auth.OIDCClientID)
		if err != nil {
			log.Fatalf("Failed to initialize OIDC verifier: %v", err)
		}
	} else {
		log.Printf("WARNING: using static tokens for authentication; do not use in production")
		verifier = auth.ParseStaticTokens(cfg.Auth.StaticTokens)
	}

	groups := service.NewGroupService(store)
	router := api.NewRouter(groups, verifier)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting circles on http://%s", cfg.Server.Addr())

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
