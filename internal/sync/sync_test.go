package syncsvc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoofy-agent/agent-memory/internal/chunker"
	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/filestore"
	"github.com/hoofy-agent/agent-memory/internal/indexstore"
	"github.com/hoofy-agent/agent-memory/internal/jsonindex"
	"github.com/hoofy-agent/agent-memory/internal/model"
)

type fakeStore struct {
	mu         sync.Mutex
	files      map[string]*model.MemoryFile
	chunks     map[int64][]model.Chunk
	status     map[string]model.SyncRecord
	nextID     int64
	failUpsert bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		files:  make(map[string]*model.MemoryFile),
		chunks: make(map[int64][]model.Chunk),
		status: make(map[string]model.SyncRecord),
	}
}

func (s *fakeStore) UpsertFile(ctx context.Context, file *model.MemoryFile) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpsert {
		return 0, errs.New(errs.StorageUnavailable, "forced failure")
	}
	s.nextID++
	s.files[file.FilePath] = file
	return s.nextID, nil
}

func (s *fakeStore) ReplaceChunks(ctx context.Context, fileID int64, chunks []model.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[fileID] = chunks
	return nil
}

func (s *fakeStore) DeleteFile(ctx context.Context, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[filePath]; !ok {
		return errs.New(errs.NotFound, "not found")
	}
	delete(s.files, filePath)
	return nil
}

func (s *fakeStore) VectorSearch(ctx context.Context, q []float32, k int, f indexstore.Filters) ([]indexstore.RankedChunk, error) {
	return nil, nil
}
func (s *fakeStore) FulltextSearch(ctx context.Context, q string, k int, f indexstore.Filters) ([]indexstore.RankedChunk, error) {
	return nil, nil
}
func (s *fakeStore) FetchChunkDetails(ctx context.Context, ids []int64) (map[int64]indexstore.ChunkDetail, error) {
	return map[int64]indexstore.ChunkDetail{}, nil
}

func (s *fakeStore) GetSyncStatus(ctx context.Context, filePath string) (model.SyncRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.status[filePath]
	return rec, ok, nil
}

func (s *fakeStore) SetSyncStatus(ctx context.Context, rec model.SyncRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[rec.FilePath] = rec
	return nil
}

func (s *fakeStore) Close() {}

func newTestReconciler(t *testing.T) (*Reconciler, *filestore.Store, *fakeStore) {
	t.Helper()
	fs, err := filestore.New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("filestore.New: %v", err)
	}
	idx := jsonindex.New(t.TempDir()+"/files_index.json", zerolog.Nop())
	store := newFakeStore()
	r := New(fs, idx, store, nil, nil, chunker.DefaultConfig(), DefaultConfig(), zerolog.Nop())
	return r, fs, store
}

func TestReconcileNewFileUpsertsAndChunks(t *testing.T) {
	r, fs, store := newTestReconciler(t)
	if _, err := fs.Create("projects/demo.md", "# Demo\n\nSome content about a project."); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := r.reconcile(context.Background(), "projects/demo.md"); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if _, ok := store.files["projects/demo.md"]; !ok {
		t.Fatal("expected file to be upserted")
	}
	rec, ok, _ := store.GetSyncStatus(context.Background(), "projects/demo.md")
	if !ok || rec.Status != model.SyncCompleted {
		t.Fatalf("expected completed sync status, got %+v ok=%v", rec, ok)
	}
}

func TestReconcileSkipsWhenHashUnchanged(t *testing.T) {
	r, fs, store := newTestReconciler(t)
	if _, err := fs.Create("main.md", "# Main\n\nHello"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.reconcile(context.Background(), "main.md"); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	before := len(store.chunks)

	if err := r.reconcile(context.Background(), "main.md"); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if len(store.chunks) != before {
		t.Fatalf("expected no new chunk writes on unchanged hash, had %d now have %d", before, len(store.chunks))
	}
}

func TestReconcileDeletedFileRemovesFromStore(t *testing.T) {
	r, fs, store := newTestReconciler(t)
	if _, err := fs.Create("projects/gone.md", "# Gone"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.reconcile(context.Background(), "projects/gone.md"); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if err := fs.Delete("projects/gone.md"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := r.reconcile(context.Background(), "projects/gone.md"); err != nil {
		t.Fatalf("reconcile after delete: %v", err)
	}
	if _, ok := store.files["projects/gone.md"]; ok {
		t.Fatal("expected file removed from store")
	}
}

func TestReconcileWithRetryMarksFailedAfterExhaustingAttempts(t *testing.T) {
	r, fs, store := newTestReconciler(t)
	if _, err := fs.Create("projects/broken.md", "# Broken"); err != nil {
		t.Fatalf("create: %v", err)
	}
	store.failUpsert = true

	r.reconcileWithRetry(context.Background(), "projects/broken.md")

	rec, ok, _ := store.GetSyncStatus(context.Background(), "projects/broken.md")
	if !ok || rec.Status != model.SyncFailed {
		t.Fatalf("expected failed sync status, got %+v ok=%v", rec, ok)
	}
	if rec.LastError == "" {
		t.Fatal("expected error_message to be set")
	}
}

func TestReconcileWithRetryRecordsCancelledWithoutRetrying(t *testing.T) {
	r, fs, store := newTestReconciler(t)
	if _, err := fs.Create("projects/broken.md", "# Broken"); err != nil {
		t.Fatalf("create: %v", err)
	}
	store.failUpsert = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r.reconcileWithRetry(ctx, "projects/broken.md")

	rec, ok, _ := store.GetSyncStatus(context.Background(), "projects/broken.md")
	if !ok || rec.Status != model.SyncFailed {
		t.Fatalf("expected failed sync status, got %+v ok=%v", rec, ok)
	}
	if rec.LastError != "cancelled" {
		t.Fatalf("expected error_message %q, got %q", "cancelled", rec.LastError)
	}
	if rec.Attempts != 1 {
		t.Fatalf("expected a cancelled reconcile to skip retries, attempts=%d", rec.Attempts)
	}
}

func TestEnqueueCoalescesDuplicates(t *testing.T) {
	r, _, _ := newTestReconciler(t)
	r.Enqueue("main.md")
	r.Enqueue("main.md")

	if len(r.queue) != 1 {
		t.Fatalf("expected exactly one queued item after coalescing, got %d", len(r.queue))
	}
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	r, _, _ := newTestReconciler(t)
	r.queue = make(chan string, 1)
	r.Enqueue("a.md")
	r.Enqueue("b.md")

	if len(r.queue) != 1 {
		t.Fatalf("expected queue to stay at its capacity of 1, got %d", len(r.queue))
	}
}

func TestSweepOnceEnqueuesMainAndAllFiles(t *testing.T) {
	r, fs, _ := newTestReconciler(t)
	if _, err := fs.Create("main.md", "# Main"); err != nil {
		t.Fatalf("create main: %v", err)
	}
	if _, err := fs.Create("projects/p.md", "# P"); err != nil {
		t.Fatalf("create p: %v", err)
	}

	r.SweepOnce()
	time.Sleep(10 * time.Millisecond)

	if len(r.queue) != 2 {
		t.Fatalf("expected 2 queued paths (main.md + projects/p.md), got %d", len(r.queue))
	}
}

func TestDrainReturnsTrueOnceQueueAndInFlightAreEmpty(t *testing.T) {
	r, fs, _ := newTestReconciler(t)
	_, err := fs.Create("projects/p.md", "# P")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)
	defer r.Stop()

	r.SweepOnce()

	assert.True(t, r.Drain(time.Second))
	assert.Zero(t, len(r.queued))
	assert.Zero(t, r.active)
}

func TestDrainTimesOutWhileWorkersAreStopped(t *testing.T) {
	r, _, _ := newTestReconciler(t)
	r.Enqueue("main.md")

	assert.False(t, r.Drain(50*time.Millisecond))
}
