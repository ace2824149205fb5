package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the filter backend, sourced from
// environment variables once at process start.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Identity provider / service account
	ProjectID          string
	ServiceClientEmail string
	ServicePrivateKey  string

	// Object store
	StorageEndpoint   string
	StorageAccessKey  string
	StorageSecretKey  string
	StorageBucket     string
	StoragePublicHost string
	StorageUseSSL     bool

	// Token registry
	MongoConnectionString string

	// Transform provider
	TransformAPIKey string

	// Local scratch space for uploads and transform outputs
	UploadsDir string

	// CORS
	AllowedOrigins []string
}

// Load reads configuration from environment variables, applying defaults
// and failing on missing required values.
func Load() (*Config, error) {
	cfg := &Config{}

	port, err := strconv.Atoi(getEnvOrDefault("PORT", "3000"))
	if err != nil {
		return nil, fmt.Errorf("PORT must be a number: %w", err)
	}
	cfg.Port = port
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.ProjectID = os.Getenv("FIREBASE_PROJECT_ID")
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}

	cfg.ServiceClientEmail = os.Getenv("FIREBASE_CLIENT_EMAIL")
	if cfg.ServiceClientEmail == "" {
		return nil, fmt.Errorf("FIREBASE_CLIENT_EMAIL is required")
	}

	// Deployment environments deliver the PEM key with escaped newlines.
	cfg.ServicePrivateKey = strings.ReplaceAll(os.Getenv("FIREBASE_PRIVATE_KEY"), `\n`, "\n")
	if cfg.ServicePrivateKey == "" {
		return nil, fmt.Errorf("FIREBASE_PRIVATE_KEY is required")
	}

	cfg.StorageEndpoint = os.Getenv("STORAGE_ENDPOINT")
	if cfg.StorageEndpoint == "" {
		return nil, fmt.Errorf("STORAGE_ENDPOINT is required")
	}

	cfg.StorageAccessKey = os.Getenv("STORAGE_ACCESS_KEY")
	if cfg.StorageAccessKey == "" {
		return nil, fmt.Errorf("STORAGE_ACCESS_KEY is required")
	}

	cfg.StorageSecretKey = os.Getenv("STORAGE_SECRET_KEY")
	if cfg.StorageSecretKey == "" {
		return nil, fmt.Errorf("STORAGE_SECRET_KEY is required")
	}

	cfg.StorageBucket = getEnvOrDefault("STORAGE_BUCKET", cfg.ProjectID+"-images")
	cfg.StoragePublicHost = getEnvOrDefault("STORAGE_PUBLIC_HOST", cfg.StorageEndpoint)
	cfg.StorageUseSSL = os.Getenv("STORAGE_USE_SSL") == "true"

	cfg.MongoConnectionString = os.Getenv("MONGO_CONNECTION_STRING")
	if cfg.MongoConnectionString == "" {
		return nil, fmt.Errorf("MONGO_CONNECTION_STRING is required")
	}

	cfg.TransformAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.TransformAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	cfg.UploadsDir = getEnvOrDefault("UPLOADS_DIR", filepath.Join(os.TempDir(), "pixmix"))

	cfg.AllowedOrigins = splitAndTrim(getEnvOrDefault("ALLOWED_ORIGINS", "*"))

	return cfg, nil
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
