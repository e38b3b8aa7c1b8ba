// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on abstractions.
// No business logic lives here — only wiring.
package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/hoofy-agent/agent-memory/internal/config"
	"github.com/hoofy-agent/agent-memory/internal/dispatcher"
	"github.com/hoofy-agent/agent-memory/internal/embedcache"
	"github.com/hoofy-agent/agent-memory/internal/embedding"
	"github.com/hoofy-agent/agent-memory/internal/filestore"
	"github.com/hoofy-agent/agent-memory/internal/indexstore"
	"github.com/hoofy-agent/agent-memory/internal/jsonindex"
	"github.com/hoofy-agent/agent-memory/internal/memorymgr"
	"github.com/hoofy-agent/agent-memory/internal/prompts"
	"github.com/hoofy-agent/agent-memory/internal/resources"
	searcheng "github.com/hoofy-agent/agent-memory/internal/search"
	syncsvc "github.com/hoofy-agent/agent-memory/internal/sync"
)

// Version is set at build time via ldflags.
var Version = "dev"

// App holds every long-lived component the composition root builds, so
// the CLI commands can start the background sync loop and close things
// cleanly.
type App struct {
	MCP        *server.MCPServer
	Manager    *memorymgr.Manager
	Reconciler *syncsvc.Reconciler
	Watcher    *syncsvc.Watcher
	indexStore indexstore.Store
	cache      *embedcache.Cache
}

// New builds the full dependency graph and registers every tool,
// resource, and prompt on a fresh MCP server. cfg is assumed already
// validated by config.Load.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	files, err := filestore.New(cfg.MemoryFilesPath, logger)
	if err != nil {
		return nil, fmt.Errorf("creating file store: %w", err)
	}
	files.OnChange = func(e filestore.Event) {
		logger.Info().Str("file_path", e.FilePath).Bool("deleted", e.Deleted).Msg("file_store_change")
	}

	index := jsonindex.New(filepath.Join(cfg.MemoryFilesPath, "files_index.json"), logger)
	if err := index.EnsureExists(); err != nil {
		return nil, fmt.Errorf("initializing json index: %w", err)
	}

	var (
		store    indexstore.Store = indexstore.NewNoop()
		provider embedding.Provider
		cache    *embedcache.Cache
	)

	if cfg.UseDatabase {
		provider, err = embedding.New(cfg.Embedding, logger)
		if err != nil {
			return nil, fmt.Errorf("creating embedding provider: %w", err)
		}

		pg, err := indexstore.Open(ctx, cfg.DatabaseURL, provider.Dimension(), logger)
		if err != nil {
			return nil, fmt.Errorf("opening index store: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensuring index schema: %w", err)
		}
		store = pg

		cache, err = embedcache.New(embedcache.Config{
			DataDir: filepath.Join(cfg.MemoryFilesPath, ".agent-memory"),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("opening embedding cache: %w", err)
		}
	} else {
		logger.Warn().Msg("use_database_disabled_running_file_only_mode")
	}

	reconciler := syncsvc.New(files, index, store, provider, cache, cfg.Chunk, syncsvc.DefaultConfig(), logger)

	var watcher *syncsvc.Watcher
	if cfg.UseDatabase {
		watcher, err = syncsvc.NewWatcher(cfg.MemoryFilesPath, reconciler, syncsvc.DefaultConfig().DebounceDelay, logger)
		if err != nil {
			return nil, fmt.Errorf("creating file watcher: %w", err)
		}
	}

	mgr := memorymgr.New(files, index, reconciler, logger)
	if err := mgr.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing memory tree: %w", err)
	}

	engine := searcheng.New(store, provider, cfg.RRFK, logger)

	s := server.NewMCPServer(
		"agent-memory",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerTools(s, files, mgr, engine)
	registerResources(s, files)
	registerPrompts(s)

	return &App{
		MCP:        s,
		Manager:    mgr,
		Reconciler: reconciler,
		Watcher:    watcher,
		indexStore: store,
		cache:      cache,
	}, nil
}

// Start launches the background reconcile workers, an initial sweep, and
// the file watcher. In file-only mode no watcher was built, so only the
// workers and the sweep start.
func (a *App) Start(ctx context.Context) {
	a.Reconciler.Start(ctx)
	go func() {
		time.Sleep(50 * time.Millisecond)
		a.Reconciler.SweepOnce()
	}()
	if a.Watcher != nil {
		a.Watcher.Start()
	}
}

// Close stops the background workers and releases the index store and
// embedding cache. Safe to call even if those were never opened.
func (a *App) Close() {
	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}
	a.Reconciler.Stop()
	a.indexStore.Close()
	if a.cache != nil {
		_ = a.cache.Close()
	}
}

func registerTools(s *server.MCPServer, files *filestore.Store, mgr *memorymgr.Manager, engine *searcheng.Engine) {
	filesTool := dispatcher.NewFilesTool(files, mgr)
	s.AddTool(filesTool.Definition(), filesTool.Handle)

	searchTool := dispatcher.NewSearchTool(engine)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	editTool := dispatcher.NewEditTool(files, mgr)
	s.AddTool(editTool.Definition(), editTool.Handle)

	extractTool := dispatcher.NewExtractTool(files)
	s.AddTool(extractTool.Definition(), extractTool.Handle)

	tagsTool := dispatcher.NewTagsTool(mgr)
	s.AddTool(tagsTool.Definition(), tagsTool.Handle)

	mainTool := dispatcher.NewMainTool(mgr)
	s.AddTool(mainTool.Definition(), mainTool.Handle)

	memoryTool := dispatcher.NewMemoryTool(mgr)
	s.AddTool(memoryTool.Definition(), memoryTool.Handle)

	listTool := dispatcher.NewListTool(files, mgr)
	s.AddTool(listTool.Definition(), listTool.Handle)

	helpTool := dispatcher.NewHelpTool()
	s.AddTool(helpTool.Definition(), helpTool.Handle)
}

func registerResources(s *server.MCPServer, files *filestore.Store) {
	h := resources.NewHandler(files)
	s.AddResource(h.MainResource(), h.HandleMain)
	s.AddResourceTemplate(h.FileTemplate(), h.HandleFile)
}

func registerPrompts(s *server.MCPServer) {
	usage := prompts.NewUsageGuidePrompt()
	s.AddPrompt(usage.Definition(), usage.Handle)

	active := prompts.NewActiveUsagePrompt()
	s.AddPrompt(active.Definition(), active.Handle)

	remember := prompts.NewRememberConversationPrompt()
	s.AddPrompt(remember.Definition(), remember.Handle)

	recall := prompts.NewRecallContextPrompt()
	s.AddPrompt(recall.Definition(), recall.Handle)
}

func serverInstructions() string {
	return `You have access to agent-memory, a persistent memory MCP server.

Use the memory tools proactively: search before answering, and keep
main.md's goals, tasks, and plans current as work progresses. Every
tool but memory and help takes a batch of items, even a single one.

See the help tool for a full guide, or help(topic="...") for one tool.`
}
