package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Amaan-N-K/suitemate/backend/internal/socialgraph"
	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	StoreEnabled  bool

	// Matching
	SchemaFile        string // Optional YAML preference schema, empty uses the built-in one
	RandomSeed        int64  // 0 seeds from the clock
	RandomSuggestions int    // Cross-community suggestions injected per seeding
	AcceptPolicy      string // always, coinflip or never
	SeedUsers         int // Generated population size when the store is disabled
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", ""),
		Neo4jURI:          getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:         getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:     getEnv("NEO4J_PASSWORD", "password"),
		StoreEnabled:      getEnvBool("STORE_ENABLED", false),
		SchemaFile:        getEnv("SCHEMA_FILE", ""),
		RandomSeed:        int64(getEnvInt("RANDOM_SEED", 0)),
		RandomSuggestions: getEnvInt("RANDOM_SUGGESTIONS", 50),
		AcceptPolicy:      strings.ToLower(getEnv("ACCEPT_POLICY", string(socialgraph.AcceptCoinFlip))),
		SeedUsers:         getEnvInt("SEED_USERS", 500),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Port == "" {
		return apperrors.NewConfigMissingRequired("PORT")
	}
	if c.StoreEnabled {
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	}
	if _, err := socialgraph.ParseAcceptPolicy(c.AcceptPolicy); err != nil {
		return err
	}
	if c.RandomSuggestions < 0 {
		return apperrors.NewConfigValidationFailed("RANDOM_SUGGESTIONS", "must not be negative")
	}
	if !c.StoreEnabled && c.SeedUsers < 1 {
		return apperrors.NewConfigValidationFailed("SEED_USERS", "must be positive when the store is disabled")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
