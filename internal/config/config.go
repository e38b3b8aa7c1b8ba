// Package config loads the process configuration from environment
// variables into a plain struct with constructor helpers, binding those
// variables through viper's AutomaticEnv lookup rather than hand-rolled
// os.Getenv calls.
package config

import (
	"strconv"

	"github.com/spf13/viper"

	"github.com/hoofy-agent/agent-memory/internal/chunker"
	"github.com/hoofy-agent/agent-memory/internal/embedding"
	"github.com/hoofy-agent/agent-memory/internal/errs"
)

// Config is every environment-derived tunable the server needs at
// construction. Fields group by the component they configure.
type Config struct {
	// MemoryFilesPath is the root of the categorized markdown tree.
	MemoryFilesPath string

	// UseDatabase switches between full indexed mode and file-only
	// mode, where search is unavailable and sync is a no-op.
	UseDatabase bool
	DatabaseURL string

	Embedding embedding.Settings
	Chunk     chunker.Config

	SearchLimit int
	RRFK        int

	LogLevel string
}

// Load reads Config from the process environment via a viper instance
// with AutomaticEnv bound, applying the documented defaults for
// anything unset or set to an empty string.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	cfg := Config{
		MemoryFilesPath: str(v, "memory_files_path", "./memory_files"),
		UseDatabase:     boolVal(v, "use_database", true),
		DatabaseURL:     str(v, "database_url", ""),
		Embedding: embedding.Settings{
			Provider:        str(v, "embedding_provider", "openai"),
			APIKey:          embeddingAPIKey(v),
			Model:           str(v, "embedding_model", ""),
			Dimension:       intVal(v, "embedding_dimension", 0),
			OllamaBaseURL:   str(v, "ollama_base_url", ""),
			HuggingFaceBase: str(v, "huggingface_base_url", ""),
			LiteLLMBaseURL:  str(v, "litellm_base_url", ""),
		},
		Chunk: chunker.Config{
			ChunkSize:    intVal(v, "chunk_size", chunker.DefaultConfig().ChunkSize),
			ChunkOverlap: intVal(v, "chunk_overlap", chunker.DefaultConfig().ChunkOverlap),
		},
		SearchLimit: intVal(v, "search_limit", 20),
		RRFK:        intVal(v, "rrf_k", 60),
		LogLevel:    str(v, "log_level", "info"),
	}

	if cfg.MemoryFilesPath == "" {
		return Config{}, errs.New(errs.InvalidArgument, "MEMORY_FILES_PATH must not be empty")
	}
	if cfg.UseDatabase && cfg.DatabaseURL == "" {
		return Config{}, errs.New(errs.InvalidArgument, "DATABASE_URL is required when USE_DATABASE=true")
	}
	return cfg, nil
}

// embeddingAPIKey picks the provider-appropriate key env var. Ollama
// and a self-hosted LiteLLM proxy typically need none.
func embeddingAPIKey(v *viper.Viper) string {
	if k := str(v, "embedding_api_key", ""); k != "" {
		return k
	}
	switch str(v, "embedding_provider", "openai") {
	case "cohere":
		return str(v, "cohere_api_key", "")
	case "huggingface":
		return str(v, "huggingface_api_key", "")
	case "litellm":
		return str(v, "litellm_api_key", "")
	default:
		return str(v, "openai_api_key", "")
	}
}

// str reads key through v's AutomaticEnv binding (which maps
// "memory_files_path" to MEMORY_FILES_PATH), falling back when the
// variable is unset or explicitly empty.
func str(v *viper.Viper, key, fallback string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return fallback
}

func intVal(v *viper.Viper, key string, fallback int) int {
	s := v.GetString(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func boolVal(v *viper.Viper, key string, fallback bool) bool {
	s := v.GetString(key)
	if s == "" {
		return fallback
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}
