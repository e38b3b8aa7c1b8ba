package memorymgr

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hoofy-agent/agent-memory/internal/chunker"
	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/filestore"
	"github.com/hoofy-agent/agent-memory/internal/indexstore"
	"github.com/hoofy-agent/agent-memory/internal/jsonindex"
	"github.com/hoofy-agent/agent-memory/internal/model"
	syncsvc "github.com/hoofy-agent/agent-memory/internal/sync"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	fs, err := filestore.New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("filestore.New: %v", err)
	}
	idx := jsonindex.New(t.TempDir()+"/files_index.json", zerolog.Nop())
	r := syncsvc.New(fs, idx, indexstore.NewNoop(), nil, nil, chunker.DefaultConfig(), syncsvc.DefaultConfig(), zerolog.Nop())
	return New(fs, idx, r, zerolog.Nop())
}

func TestInitializeCreatesMainAndIndex(t *testing.T) {
	m := newTestManager(t)
	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !m.files.Exists(filestore.MainFile) {
		t.Fatal("expected main.md to exist")
	}

	// Second call must not clobber existing content.
	if err := m.AppendToMain("Recent Notes", "custom note"); err != nil {
		t.Fatalf("AppendToMain: %v", err)
	}
	if err := m.Initialize(); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	content, err := m.files.Read(filestore.MainFile)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !contains(content, "custom note") {
		t.Fatal("expected Initialize to be idempotent and preserve existing main.md")
	}
}

func TestCreateUpdateDeleteFileRoundTrip(t *testing.T) {
	m := newTestManager(t)
	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	path, err := m.CreateFile("My Project", model.CategoryProject, "# My Project\n\nA demo project.", []string{"demo"}, nil)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if path != "projects/my_project.md" {
		t.Fatalf("unexpected path: %s", path)
	}
	if _, ok := m.index.Get(path); !ok {
		t.Fatal("expected index entry after CreateFile")
	}

	main, _ := m.files.Read(filestore.MainFile)
	if !contains(main, path) {
		t.Fatal("expected File Index link for created file")
	}

	if err := m.UpdateFile(path, "updated body", filestore.ModeReplace); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}
	got, _ := m.files.Read(path)
	if got != "updated body" {
		t.Fatalf("unexpected content after update: %q", got)
	}

	if err := m.DeleteFile(path); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if m.files.Exists(path) {
		t.Fatal("expected file removed from disk")
	}
	if _, ok := m.index.Get(path); ok {
		t.Fatal("expected index entry removed")
	}
}

func TestRenameFileUpdatesIndexAndMainLink(t *testing.T) {
	m := newTestManager(t)
	m.Initialize()
	path, err := m.CreateFile("Old Title", model.CategoryConcept, "# Old Title\n\nbody text.", nil, nil)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	newPath, err := m.RenameFile(path, "New Title")
	if err != nil {
		t.Fatalf("RenameFile: %v", err)
	}
	if newPath != "concepts/new_title.md" {
		t.Fatalf("unexpected new path: %s", newPath)
	}
	if m.files.Exists(path) {
		t.Fatal("expected old path removed")
	}
	entry, ok := m.index.Get(newPath)
	if !ok || entry.Title != "New Title" {
		t.Fatalf("expected index updated to new title, got %+v ok=%v", entry, ok)
	}

	main, _ := m.files.Read(filestore.MainFile)
	if contains(main, path) {
		t.Fatal("expected old link removed from main.md")
	}
	if !contains(main, newPath) {
		t.Fatal("expected new link present in main.md")
	}
}

func TestMoveAndCopyFile(t *testing.T) {
	m := newTestManager(t)
	m.Initialize()
	path, err := m.CreateFile("Shared Thing", model.CategoryConcept, "# Shared Thing\n\nsome details.", []string{"a"}, nil)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	movedPath, err := m.MoveFile(path, model.CategoryProject)
	if err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if movedPath != "projects/shared_thing.md" {
		t.Fatalf("unexpected moved path: %s", movedPath)
	}
	entry, ok := m.index.Get(movedPath)
	if !ok || entry.Category != model.CategoryProject {
		t.Fatalf("expected entry re-categorized, got %+v ok=%v", entry, ok)
	}

	copyPath, err := m.CopyFile(movedPath, "Shared Thing Copy", nil)
	if err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	copyEntry, ok := m.index.Get(copyPath)
	if !ok || len(copyEntry.Tags) != 1 || copyEntry.Tags[0] != "a" {
		t.Fatalf("expected copied tags preserved, got %+v ok=%v", copyEntry, ok)
	}
}

func TestUpdateGoalAddCompleteRemove(t *testing.T) {
	m := newTestManager(t)
	m.Initialize()

	if err := m.UpdateGoal("ship the thing", GoalAdd); err != nil {
		t.Fatalf("add: %v", err)
	}
	main, _ := m.files.Read(filestore.MainFile)
	if !contains(main, "- [ ] ship the thing") {
		t.Fatal("expected goal line added to Current Goals")
	}

	if err := m.UpdateGoal("ship the thing", GoalComplete); err != nil {
		t.Fatalf("complete: %v", err)
	}
	main, _ = m.files.Read(filestore.MainFile)
	if contains(main, "- [ ] ship the thing") {
		t.Fatal("expected goal removed from Current Goals")
	}
	if !contains(main, "- [x] ship the thing (completed ") {
		t.Fatal("expected goal appended to Completed Tasks")
	}

	if err := m.UpdateGoal("never existed", GoalRemove); errs.KindOf(err) != errs.NotFound {
		t.Fatalf("expected NotFound removing absent goal, got %v", err)
	}

	if err := m.UpdateGoal("another goal", GoalAdd); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.UpdateGoal("another goal", GoalRemove); err != nil {
		t.Fatalf("remove: %v", err)
	}
	main, _ = m.files.Read(filestore.MainFile)
	if contains(main, "another goal") {
		t.Fatal("expected goal removed entirely without completing it")
	}
}

func TestConcurrentGoalAddsDoNotClobberEachOther(t *testing.T) {
	m := newTestManager(t)
	m.Initialize()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if err := m.UpdateGoal(fmt.Sprintf("goal-%d", i), GoalAdd); err != nil {
				t.Errorf("add goal-%d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	main, err := m.files.Read(filestore.MainFile)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i := 0; i < n; i++ {
		want := fmt.Sprintf("- [ ] goal-%d", i)
		if !contains(main, want) {
			t.Fatalf("expected concurrent writes to preserve every goal line, missing %q", want)
		}
	}
}

func TestUpdatePlanAddComplete(t *testing.T) {
	m := newTestManager(t)
	m.Initialize()

	if err := m.UpdatePlan("write docs", PlanAdd); err != nil {
		t.Fatalf("add: %v", err)
	}
	main, _ := m.files.Read(filestore.MainFile)
	if !contains(main, "- [ ] write docs") {
		t.Fatal("expected plan added to Plans section")
	}

	if err := m.UpdatePlan("write docs", PlanComplete); err != nil {
		t.Fatalf("complete: %v", err)
	}
	main, _ = m.files.Read(filestore.MainFile)
	if contains(main, "- [ ] write docs") || !contains(main, "- [x] write docs") {
		t.Fatal("expected plan checkbox toggled in place")
	}

	if err := m.UpdatePlan("missing plan", PlanComplete); errs.KindOf(err) != errs.NotFound {
		t.Fatalf("expected NotFound completing absent plan, got %v", err)
	}
}

func TestTagManagement(t *testing.T) {
	m := newTestManager(t)
	m.Initialize()
	path, err := m.CreateFile("Tagged", model.CategoryConcept, "# Tagged\n\nbody.", []string{"one"}, nil)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	tags, err := m.AddTags(path, []string{"two", "one"})
	if err != nil {
		t.Fatalf("AddTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected union of 2 tags, got %v", tags)
	}

	tags, err = m.RemoveTags(path, []string{"one"})
	if err != nil {
		t.Fatalf("RemoveTags: %v", err)
	}
	if len(tags) != 1 || tags[0] != "two" {
		t.Fatalf("unexpected tags after removal: %v", tags)
	}

	got, err := m.GetTags(path)
	if err != nil {
		t.Fatalf("GetTags: %v", err)
	}
	if len(got) != 1 || got[0] != "two" {
		t.Fatalf("unexpected GetTags result: %v", got)
	}

	if _, err := m.GetTags("concepts/missing.md"); errs.KindOf(err) != errs.NotFound {
		t.Fatalf("expected NotFound for missing file, got %v", err)
	}
}

func TestResetClearsFilesAndIndex(t *testing.T) {
	m := newTestManager(t)
	m.Initialize()
	if _, err := m.CreateFile("Temp", model.CategoryProject, "# Temp\n\nbody.", nil, nil); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	if err := m.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(m.index.All()) != 0 {
		t.Fatal("expected index cleared")
	}
	entries, _ := m.files.List()
	if len(entries) != 0 {
		t.Fatal("expected all tracked files removed")
	}
	if !m.files.Exists(filestore.MainFile) {
		t.Fatal("expected main.md to survive reset")
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
