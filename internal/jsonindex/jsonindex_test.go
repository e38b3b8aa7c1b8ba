package jsonindex

import (
	"path/filepath"
	"testing"

	"github.com/hoofy-agent/agent-memory/internal/model"
	"github.com/rs/zerolog"
)

func TestReadMissingReturnsDefault(t *testing.T) {
	idx := New(filepath.Join(t.TempDir(), "files_index.json"), zerolog.Nop())
	doc := idx.Read()
	if doc.Version != schemaVersion || len(doc.Files) != 0 {
		t.Fatalf("unexpected default document: %+v", doc)
	}
}

func TestUpsertThenGet(t *testing.T) {
	idx := New(filepath.Join(t.TempDir(), "files_index.json"), zerolog.Nop())
	e := Entry{FilePath: "projects/p1.md", Title: "P1", Category: model.CategoryProject, WordCount: 2}
	if err := idx.Upsert(e); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, ok := idx.Get("projects/p1.md")
	if !ok || got.Title != "P1" {
		t.Fatalf("unexpected entry: %+v ok=%v", got, ok)
	}
}

func TestUpsertPreservesCreatedAt(t *testing.T) {
	idx := New(filepath.Join(t.TempDir(), "files_index.json"), zerolog.Nop())
	first := Entry{FilePath: "p.md", Title: "A"}
	if err := idx.Upsert(first); err != nil {
		t.Fatalf("upsert 1: %v", err)
	}
	original, _ := idx.Get("p.md")

	second := Entry{FilePath: "p.md", Title: "B"}
	if err := idx.Upsert(second); err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	updated, _ := idx.Get("p.md")

	if !updated.CreatedAt.Equal(original.CreatedAt) {
		t.Fatalf("created_at should be preserved: %v vs %v", updated.CreatedAt, original.CreatedAt)
	}
	if updated.Title != "B" {
		t.Fatalf("title should be updated: %s", updated.Title)
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	idx := New(filepath.Join(t.TempDir(), "files_index.json"), zerolog.Nop())
	if err := idx.Remove("missing.md"); err != nil {
		t.Fatalf("remove absent should succeed: %v", err)
	}
}

func TestClearEmptiesFiles(t *testing.T) {
	idx := New(filepath.Join(t.TempDir(), "files_index.json"), zerolog.Nop())
	_ = idx.Upsert(Entry{FilePath: "a.md"})
	_ = idx.Upsert(Entry{FilePath: "b.md"})

	if err := idx.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(idx.All()) != 0 {
		t.Fatalf("expected empty index after clear")
	}
}

func TestAllSortedByFilePath(t *testing.T) {
	idx := New(filepath.Join(t.TempDir(), "files_index.json"), zerolog.Nop())
	_ = idx.Upsert(Entry{FilePath: "z.md"})
	_ = idx.Upsert(Entry{FilePath: "a.md"})

	all := idx.All()
	if len(all) != 2 || all[0].FilePath != "a.md" || all[1].FilePath != "z.md" {
		t.Fatalf("unexpected order: %+v", all)
	}
}

func TestTreeGroupsEntriesByCategory(t *testing.T) {
	entries := []Entry{
		{FilePath: "projects/p1.md", Category: model.CategoryProject},
		{FilePath: "projects/p2.md", Category: model.CategoryProject},
		{FilePath: "concepts/c1.md", Category: model.CategoryConcept},
	}
	tree := Tree(entries)

	if len(tree[model.CategoryProject]) != 2 {
		t.Fatalf("expected 2 project entries, got %+v", tree[model.CategoryProject])
	}
	if len(tree[model.CategoryConcept]) != 1 {
		t.Fatalf("expected 1 concept entry, got %+v", tree[model.CategoryConcept])
	}
}
