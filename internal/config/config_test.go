package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"MEMORY_FILES_PATH", "USE_DATABASE", "DATABASE_URL",
		"EMBEDDING_PROVIDER", "EMBEDDING_API_KEY", "EMBEDDING_MODEL", "EMBEDDING_DIMENSION",
		"OPENAI_API_KEY", "COHERE_API_KEY", "HUGGINGFACE_API_KEY", "LITELLM_API_KEY",
		"OLLAMA_BASE_URL", "HUGGINGFACE_BASE_URL", "LITELLM_BASE_URL",
		"CHUNK_SIZE", "CHUNK_OVERLAP", "SEARCH_LIMIT", "RRF_K", "LOG_LEVEL",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/agent_memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MemoryFilesPath != "./memory_files" {
		t.Errorf("MemoryFilesPath = %q", cfg.MemoryFilesPath)
	}
	if !cfg.UseDatabase {
		t.Error("expected UseDatabase to default true")
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("Provider = %q", cfg.Embedding.Provider)
	}
	if cfg.Chunk.ChunkSize != 800 || cfg.Chunk.ChunkOverlap != 200 {
		t.Errorf("Chunk = %+v", cfg.Chunk)
	}
	if cfg.SearchLimit != 20 || cfg.RRFK != 60 {
		t.Errorf("SearchLimit/RRFK = %d/%d", cfg.SearchLimit, cfg.RRFK)
	}
}

func TestLoadRejectsMissingDatabaseURLWhenEnabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("USE_DATABASE", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoadFileOnlyModeSkipsDatabaseURLCheck(t *testing.T) {
	clearEnv(t)
	t.Setenv("USE_DATABASE", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UseDatabase {
		t.Error("expected UseDatabase false")
	}
}

func TestLoadPicksProviderSpecificAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("USE_DATABASE", "false")
	t.Setenv("EMBEDDING_PROVIDER", "cohere")
	t.Setenv("COHERE_API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embedding.APIKey != "secret" {
		t.Errorf("APIKey = %q", cfg.Embedding.APIKey)
	}
}

func TestLoadOverridesWithExplicitChunkSizes(t *testing.T) {
	clearEnv(t)
	t.Setenv("USE_DATABASE", "false")
	t.Setenv("CHUNK_SIZE", "1")
	t.Setenv("CHUNK_OVERLAP", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chunk.ChunkSize != 1 || cfg.Chunk.ChunkOverlap != 0 {
		t.Errorf("Chunk = %+v", cfg.Chunk)
	}
}
