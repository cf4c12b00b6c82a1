// Package config loads the service configuration from the environment,
// with an optional .env file for development.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the service needs to start.
type Config struct {
	Environment  string
	ListenAddr   string
	DatabaseURL  string
	JWTSecret    string
	UploadsDir   string
	MeiliHost    string
	MeiliAPIKey  string
	OTLPEndpoint string
}

// Load reads the configuration. A missing .env file is not an error;
// plain environment variables win either way.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment:  getEnv("ENV", "development"),
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		UploadsDir:   getEnv("UPLOADS_DIR", "uploads/books"),
		MeiliHost:    getEnv("MEILI_HOST", "http://localhost:7700"),
		MeiliAPIKey:  os.Getenv("MEILI_API_KEY"),
		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
