// Package config loads engine bootstrap configuration from the environment.
// Configuration loading itself is an external concern (spec §1 Out of
// scope); this package exists only because every wiring point (cmd/engramctl,
// tests that spin up a real store) needs a shared shape to load into.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the bootstrap configuration for a running engine instance.
type Config struct {
	// StoreDriver selects the Store backend: "sqlite" or "postgres".
	StoreDriver string
	// StoreDSN is the backend-specific connection string (file path for
	// sqlite, a libpq URL for postgres).
	StoreDSN string
	// VectorDim is the fixed embedding dimension D for this deployment.
	VectorDim int

	// EmbedderDriver selects the Embedder: "native" or "openai".
	EmbedderDriver string
	// ExtractorDriver selects the Extractor: "native" or "anthropic".
	ExtractorDriver string

	// LockDriver selects the ingestion Locker: "local" or "redis".
	LockDriver string
	RedisAddr  string

	OpenAIAPIKey    string
	AnthropicAPIKey string
}

// Load reads configuration from a .env file (if present) and the process
// environment, the way intelligencedev-manifold and haricheung-agentic-shell
// both bootstrap via godotenv + os.Getenv.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StoreDriver:     getenv("ENGRAM_STORE_DRIVER", "sqlite"),
		StoreDSN:        getenv("ENGRAM_STORE_DSN", "./engram.db"),
		VectorDim:       getenvInt("ENGRAM_VECTOR_DIM", 256),
		EmbedderDriver:  getenv("ENGRAM_EMBEDDER", "native"),
		ExtractorDriver: getenv("ENGRAM_EXTRACTOR", "native"),
		LockDriver:      getenv("ENGRAM_LOCK_DRIVER", "local"),
		RedisAddr:       getenv("ENGRAM_REDIS_ADDR", "localhost:6379"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
