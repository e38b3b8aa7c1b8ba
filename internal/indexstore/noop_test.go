package indexstore

import (
	"context"
	"testing"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/model"
)

func TestNoopStoreWritesSucceed(t *testing.T) {
	n := NewNoop()
	ctx := context.Background()

	if _, err := n.UpsertFile(ctx, &model.MemoryFile{FilePath: "main.md"}); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	if err := n.ReplaceChunks(ctx, 1, nil); err != nil {
		t.Fatalf("ReplaceChunks: %v", err)
	}
	if err := n.DeleteFile(ctx, "main.md"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if err := n.SetSyncStatus(ctx, model.SyncRecord{FilePath: "main.md"}); err != nil {
		t.Fatalf("SetSyncStatus: %v", err)
	}
}

func TestNoopStoreSearchesFailWithStorageUnavailable(t *testing.T) {
	n := NewNoop()
	ctx := context.Background()

	if _, err := n.VectorSearch(ctx, []float32{0.1}, 50, Filters{}); errs.KindOf(err) != errs.StorageUnavailable {
		t.Fatalf("expected StorageUnavailable, got %v", err)
	}
	if _, err := n.FulltextSearch(ctx, "hello", 50, Filters{}); errs.KindOf(err) != errs.StorageUnavailable {
		t.Fatalf("expected StorageUnavailable, got %v", err)
	}
}

func TestNoopStoreSyncStatusAbsent(t *testing.T) {
	n := NewNoop()
	_, ok, err := n.GetSyncStatus(context.Background(), "main.md")
	if err != nil {
		t.Fatalf("GetSyncStatus: %v", err)
	}
	if ok {
		t.Fatal("expected no sync status in file-only mode")
	}
}
