package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port           string
	BackendURL     string // backend origin, used for the CSRF cookie handshake
	APIBaseURL     string // base for all API calls, usually BackendURL + "/api"
	SessionCookie  string // name of the credential cookie set by the backend
	AllowedOrigins string
	Environment    string // development, staging, production
}

// Load loads configuration from environment variables and validates for production
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	backendURL := strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000"), "/")

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		BackendURL:     backendURL,
		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", backendURL+"/api"), "/"),
		SessionCookie:  getEnv("SESSION_COOKIE", "token"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// Validate checks configuration for security and correctness
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"BACKEND_URL":  c.BackendURL,
		"API_BASE_URL": c.APIBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL (got %q)", name, raw)
		}
		if c.IsProduction() && u.Scheme != "https" {
			log.Printf("WARNING: %s is not HTTPS in production", name)
		}
	}

	if c.SessionCookie == "" {
		return fmt.Errorf("SESSION_COOKIE must not be empty")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
