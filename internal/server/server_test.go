package server

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hoofy-agent/agent-memory/internal/chunker"
	"github.com/hoofy-agent/agent-memory/internal/config"
)

func TestNewFileOnlyModeBuildsApp(t *testing.T) {
	cfg := config.Config{
		MemoryFilesPath: t.TempDir(),
		UseDatabase:     false,
		Chunk:           chunker.DefaultConfig(),
		SearchLimit:     20,
		RRFK:            60,
		LogLevel:        "error",
	}

	app, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if app.MCP == nil {
		t.Fatal("expected non-nil MCP server")
	}
	if app.Watcher != nil {
		t.Fatal("expected no watcher in file-only mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.Start(ctx)
	time.Sleep(100 * time.Millisecond)
	cancel()
	app.Close()
}
