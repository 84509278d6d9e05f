package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the configuration meets the requirements for
// the current environment. Development keeps working with defaults; in
// production every sensitive value must be set explicitly.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	}
	if cfg.AppNamespace == "" {
		errors = append(errors, "APP_NAMESPACE must not be empty")
	}
	if cfg.GeminiAPIURL == "" {
		errors = append(errors, "GEMINI_API_URL must not be empty")
	}

	if IsProduction() {
		if cfg.DBPassword == "" {
			errors = append(errors, "DB_PASSWORD is required in production")
		}
		if cfg.RedisPassword == "" && cfg.RedisURL == "" {
			errors = append(errors, "REDIS_PASSWORD or REDIS_URL is required in production")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
