package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Deployment namespace: log entries are scoped under this identifier
	AppNamespace string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Nutrition estimation service (Gemini-style generateContent endpoint)
	GeminiAPIKey string
	GeminiAPIURL string
	GeminiModel  string
}

// LoadConfig creates a new Config instance with values from environment
// variables, falling back to a .env file when present
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		ServerHost:    getEnv("SERVER_HOST", "0.0.0.0"),
		AppNamespace:  getEnv("APP_NAMESPACE", "permanent-christmas-food-diary-v1"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        getEnv("DB_NAME", "calorbunga"),
		DBSSLMode:     getEnv("DB_SSL_MODE", "disable"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		GeminiAPIURL:  getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash-preview-09-2025"),
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			cfg.RedisDB = db
		}
	}

	apiKey, err := loadGeminiAPIKey()
	if err != nil {
		return nil, err
	}
	cfg.GeminiAPIKey = apiKey

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadGeminiAPIKey reads the estimation service key from the environment or
// from a key file (Docker secrets style, as with the other service keys)
func loadGeminiAPIKey() (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey != "" {
		return apiKey, nil
	}

	apiKeyFile := os.Getenv("GEMINI_API_KEY_FILE")
	if apiKeyFile == "" {
		return "", fmt.Errorf("GEMINI_API_KEY or GEMINI_API_KEY_FILE must be set")
	}

	apiKeyBytes, err := os.ReadFile(apiKeyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read API key file: %w", err)
	}

	apiKey = strings.TrimSpace(string(apiKeyBytes))
	if apiKey == "" {
		return "", fmt.Errorf("API key file is empty")
	}
	return apiKey, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
