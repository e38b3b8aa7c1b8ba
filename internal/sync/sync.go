// Package syncsvc reconciles the markdown tree with the index store: for
// every tracked file it maintains index_store(file) == chunk(file_bytes),
// triggered by file-change events, a periodic sweep, and explicit
// initialize/reset calls.
package syncsvc

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hoofy-agent/agent-memory/internal/chunker"
	"github.com/hoofy-agent/agent-memory/internal/embedcache"
	"github.com/hoofy-agent/agent-memory/internal/embedding"
	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/filestore"
	"github.com/hoofy-agent/agent-memory/internal/indexstore"
	"github.com/hoofy-agent/agent-memory/internal/jsonindex"
	"github.com/hoofy-agent/agent-memory/internal/model"
)

// Config carries the tunables for the reconcile worker pool.
type Config struct {
	Workers       int
	QueueSize     int
	SweepInterval time.Duration
	DebounceDelay time.Duration
}

// DefaultConfig returns the documented defaults: 4 workers, a 1024-deep
// queue, a 60s sweep, and a 500ms debounce window.
func DefaultConfig() Config {
	return Config{Workers: 4, QueueSize: 1024, SweepInterval: 60 * time.Second, DebounceDelay: 500 * time.Millisecond}
}

// Reconciler drives the file-to-index sync pipeline: fsnotify/explicit
// enqueues feed a bounded, per-file-coalesced queue that a small worker
// pool drains, each worker calling reconcile on one file at a time.
type Reconciler struct {
	files    *filestore.Store
	index    *jsonindex.Index
	store    indexstore.Store
	provider embedding.Provider
	cache    *embedcache.Cache
	chunkCfg chunker.Config
	cfg      Config
	logger   zerolog.Logger

	locks *fileLocks

	mu     sync.Mutex
	queued map[string]struct{}
	active int
	queue  chan string

	stop chan struct{}
	wg   sync.WaitGroup
}

// New builds a Reconciler. provider and cache may both be nil, in which
// case files are chunked but never embedded (fulltext-only mode).
func New(
	files *filestore.Store,
	index *jsonindex.Index,
	store indexstore.Store,
	provider embedding.Provider,
	cache *embedcache.Cache,
	chunkCfg chunker.Config,
	cfg Config,
	logger zerolog.Logger,
) *Reconciler {
	r := &Reconciler{
		files:    files,
		index:    index,
		store:    store,
		provider: provider,
		cache:    cache,
		chunkCfg: chunkCfg,
		cfg:      cfg,
		logger:   logger,
		locks:    newFileLocks(),
		queued:   make(map[string]struct{}),
		queue:    make(chan string, cfg.QueueSize),
		stop:     make(chan struct{}),
	}
	return r
}

// Start launches the worker pool and the periodic sweep. Call Stop to
// shut both down.
func (r *Reconciler) Start(ctx context.Context) {
	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}
	r.wg.Add(1)
	go r.sweepLoop(ctx)
	r.logger.Info().Int("workers", r.cfg.Workers).Dur("sweep_interval", r.cfg.SweepInterval).Msg("sync_reconciler_started")
}

// Stop drains the worker pool and sweep loop.
func (r *Reconciler) Stop() {
	close(r.stop)
	r.wg.Wait()
}

// Enqueue schedules filePath for reconciliation, coalescing with any
// already-pending request for the same path and dropping (with a
// warning) if the bounded queue is full.
func (r *Reconciler) Enqueue(filePath string) {
	r.mu.Lock()
	if _, already := r.queued[filePath]; already {
		r.mu.Unlock()
		return
	}
	r.queued[filePath] = struct{}{}
	r.mu.Unlock()

	select {
	case r.queue <- filePath:
	default:
		r.mu.Lock()
		delete(r.queued, filePath)
		r.mu.Unlock()
		r.logger.Warn().Str("file_path", filePath).Msg("sync_queue_full_dropping_enqueue")
	}
}

func (r *Reconciler) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		case path := <-r.queue:
			r.mu.Lock()
			delete(r.queued, path)
			r.active++
			r.mu.Unlock()
			r.reconcileWithRetry(ctx, path)
			r.mu.Lock()
			r.active--
			r.mu.Unlock()
		}
	}
}

func (r *Reconciler) sweepLoop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.SweepOnce()
		}
	}
}

// SweepOnce enqueues every file currently on disk, used for the
// scan-on-startup sweep and the periodic tick. Each sweep gets its own
// run ID so its enqueue/log lines can be correlated independently of
// any individual file's reconcile.
func (r *Reconciler) SweepOnce() {
	runID := uuid.NewString()
	entries, err := r.files.List()
	if err != nil {
		r.logger.Error().Err(err).Str("sweep_id", runID).Msg("sync_sweep_list_failed")
		return
	}
	r.Enqueue(filestore.MainFile)
	for _, e := range entries {
		r.Enqueue(e.FilePath)
	}
	r.logger.Debug().Str("sweep_id", runID).Int("count", len(entries)+1).Msg("sync_sweep_enqueued")
}

// Drain blocks until the queue and every in-flight reconcile have
// finished, or timeout elapses, returning false in the timeout case.
// Used by the one-shot "sync" CLI command, which has no periodic sweep
// to fall back on and must observe completion directly.
func (r *Reconciler) Drain(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		pending := len(r.queued) + r.active
		r.mu.Unlock()
		if pending == 0 && len(r.queue) == 0 {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

const maxReconcileAttempts = 3

// reconcileWithRetry retries transient StorageUnavailable/ProviderUnavailable
// failures up to maxReconcileAttempts times before giving up and marking
// the file's sync_status failed. A reconcile that fails because ctx was
// cancelled or timed out is never retried and is recorded with
// error_message "cancelled" so the next sweep picks the file back up.
func (r *Reconciler) reconcileWithRetry(ctx context.Context, filePath string) {
	unlock := r.locks.lock(filePath)
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= maxReconcileAttempts; attempt++ {
		lastErr = r.reconcile(ctx, filePath)
		if lastErr == nil {
			return
		}
		if ctx.Err() != nil {
			lastErr = errs.New(errs.Cancelled, "cancelled")
			break
		}
		kind := errs.KindOf(lastErr)
		if kind != errs.StorageUnavailable && kind != errs.ProviderUnavailable {
			break
		}
		if attempt < maxReconcileAttempts {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	r.logger.Error().Err(lastErr).Str("file_path", filePath).Msg("sync_reconcile_failed")

	// A cancelled ctx can no longer be trusted to carry the status write;
	// a cancelled caller's store calls would fail the same way the
	// reconcile itself just did.
	statusCtx := ctx
	if errs.KindOf(lastErr) == errs.Cancelled {
		statusCtx = context.Background()
	}

	if rec, ok, _ := r.store.GetSyncStatus(statusCtx, filePath); ok {
		rec.Status = model.SyncFailed
		rec.LastError = errs.MessageOf(lastErr)
		rec.Attempts++
		_ = r.store.SetSyncStatus(statusCtx, rec)
	} else {
		_ = r.store.SetSyncStatus(statusCtx, model.SyncRecord{FilePath: filePath, Status: model.SyncFailed, LastError: errs.MessageOf(lastErr), Attempts: 1})
	}
}

// reconcile runs one pass of the per-file procedure: read, hash-check,
// chunk, embed, replace_chunks, update sync_status.
func (r *Reconciler) reconcile(ctx context.Context, filePath string) error {
	content, err := r.files.Read(filePath)
	if err != nil {
		if errs.KindOf(err) == errs.NotFound {
			return r.reconcileDeleted(ctx, filePath)
		}
		return err
	}

	newHash := model.HashContent([]byte(content))
	if rec, ok, err := r.store.GetSyncStatus(ctx, filePath); err == nil && ok {
		if rec.Status == model.SyncCompleted && rec.IndexedHash == newHash {
			return nil
		}
	}

	meta := r.deriveMetadata(filePath, content)
	file := model.NewMemoryFile(filePath, meta.Title, meta.Category)
	file.ContentHash = newHash
	file.WordCount = model.WordCount(content)
	file.Tags = meta.Tags
	file.Metadata = meta.Metadata

	fileID, err := r.store.UpsertFile(ctx, file)
	if err != nil {
		return err
	}
	if err := r.store.SetSyncStatus(ctx, model.SyncRecord{FilePath: filePath, Status: model.SyncSyncing}); err != nil {
		return err
	}

	chunks := chunker.Chunk(content, r.chunkCfg)
	for i := range chunks {
		chunks[i].FilePath = filePath
	}
	if err := r.embedChunks(ctx, chunks); err != nil {
		return err
	}

	if err := r.store.ReplaceChunks(ctx, fileID, chunks); err != nil {
		return err
	}

	return r.store.SetSyncStatus(ctx, model.SyncRecord{
		FilePath:    filePath,
		Status:      model.SyncCompleted,
		IndexedHash: newHash,
		ChunkCount:  len(chunks),
	})
}

func (r *Reconciler) reconcileDeleted(ctx context.Context, filePath string) error {
	if err := r.store.DeleteFile(ctx, filePath); err != nil && errs.KindOf(err) != errs.NotFound {
		return err
	}
	if r.index != nil {
		_ = r.index.Remove(filePath)
	}
	return nil
}

// embedChunks fills in chunks[i].Embedding for every chunk, consulting
// the embedding cache first and only calling the provider for misses. A
// nil provider leaves every embedding empty (fulltext-only mode).
func (r *Reconciler) embedChunks(ctx context.Context, chunks []model.Chunk) error {
	if r.provider == nil || len(chunks) == 0 {
		return nil
	}

	var misses []int
	var texts []string
	for i, c := range chunks {
		hash := model.HashContent([]byte(c.Content))
		if r.cache != nil {
			if vec, ok, err := r.cache.Get(hash, r.provider.Name(), r.provider.Model()); err == nil && ok {
				chunks[i].Embedding = vec
				continue
			}
		}
		misses = append(misses, i)
		texts = append(texts, c.Content)
	}
	if len(misses) == 0 {
		return nil
	}

	vectors, err := r.provider.Embed(ctx, texts)
	if err != nil {
		return err
	}
	for j, i := range misses {
		chunks[i].Embedding = vectors[j]
		if r.cache != nil {
			hash := model.HashContent([]byte(chunks[i].Content))
			_ = r.cache.Put(hash, r.provider.Name(), r.provider.Model(), vectors[j])
		}
	}
	return nil
}

type metadata struct {
	Title    string
	Category model.Category
	Tags     []string
	Metadata map[string]any
}

// deriveMetadata prefers the JSON index's recorded title/category/tags
// for filePath (the canonical source, kept current by the Memory
// Manager on every write) and falls back to deriving them from the path
// and filename for files the index has not yet seen (e.g. a bootstrap
// sweep before first write).
func (r *Reconciler) deriveMetadata(filePath, content string) metadata {
	if r.index != nil {
		if e, ok := r.index.Get(filePath); ok {
			return metadata{Title: e.Title, Category: e.Category, Tags: e.Tags, Metadata: e.Metadata}
		}
	}

	cat := categoryFromPath(filePath)
	title := titleFromPath(filePath)
	return metadata{Title: title, Category: cat, Tags: []string{}, Metadata: map[string]any{}}
}

func categoryFromPath(filePath string) model.Category {
	if filePath == filestore.MainFile {
		return model.CategoryMain
	}
	dir := filepath.Dir(filepath.ToSlash(filePath))
	if dir == "." {
		return model.CategoryOther
	}
	top := strings.TrimSuffix(strings.Split(dir, "/")[0], "s")
	if cat, err := model.ParseCategory(top); err == nil {
		return cat
	}
	return model.CategoryOther
}

func titleFromPath(filePath string) string {
	base := strings.TrimSuffix(filepath.Base(filePath), ".md")
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.Title(base)
}
