package embedding

import (
	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/rs/zerolog"
)

// Settings carries the environment-derived configuration needed to build
// any of the five provider variants.
type Settings struct {
	Provider        string
	APIKey          string
	Model           string
	Dimension       int
	OllamaBaseURL   string
	HuggingFaceBase string
	LiteLLMBaseURL  string
}

// New constructs the Provider named by Settings.Provider.
func New(s Settings, logger zerolog.Logger) (Provider, error) {
	switch s.Provider {
	case "openai", "":
		return NewOpenAIProvider(s.APIKey, defaultString(s.Model, "text-embedding-3-small"), logger), nil
	case "cohere":
		return NewCohereProvider(s.APIKey, defaultString(s.Model, "embed-english-v3.0"), defaultInt(s.Dimension, 1024), logger), nil
	case "ollama":
		return NewOllamaProvider(defaultString(s.OllamaBaseURL, "http://localhost:11434"), defaultString(s.Model, "nomic-embed-text"), defaultInt(s.Dimension, 768), logger), nil
	case "huggingface":
		return NewHuggingFaceProvider(s.HuggingFaceBase, s.APIKey, defaultString(s.Model, "sentence-transformers/all-MiniLM-L6-v2"), defaultInt(s.Dimension, 384), logger), nil
	case "litellm":
		return NewLiteLLMProvider(defaultString(s.LiteLLMBaseURL, "http://localhost:4000"), s.APIKey, s.Model, defaultInt(s.Dimension, 1536), logger), nil
	default:
		return nil, errs.New(errs.InvalidArgument, "unknown embedding provider: %s", s.Provider)
	}
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func defaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
