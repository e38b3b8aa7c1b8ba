package editor

import (
	"testing"

	"github.com/hoofy-agent/agent-memory/internal/errs"
)

const sample = "# Main\n\n## Goals\n\n- [ ] ship it\n\n## Notes\n\nsome notes\n\n### Sub Note\n\ndeep\n"

func TestEditSectionReplace(t *testing.T) {
	out, err := EditSection(sample, "Goals", "- [ ] new goal", ModeReplace)
	if err != nil {
		t.Fatalf("EditSection: %v", err)
	}
	body, found := ExtractSection(out, "Goals")
	if !found || body != "- [ ] new goal" {
		t.Fatalf("unexpected body: %q found=%v", body, found)
	}
}

func TestEditSectionAppendPreservesExisting(t *testing.T) {
	out, err := EditSection(sample, "## Goals", "- [ ] second goal", ModeAppend)
	if err != nil {
		t.Fatalf("EditSection: %v", err)
	}
	body, _ := ExtractSection(out, "Goals")
	if body != "- [ ] ship it\n\n- [ ] second goal" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestEditSectionIncludesDeeperNestedSubsections(t *testing.T) {
	// Notes is level 2; its body runs through the next header of equal or
	// shallower depth, so the level-3 Sub Note nested beneath it is part
	// of Notes' body and gets replaced along with it.
	out, err := EditSection(sample, "Notes", "replaced", ModeReplace)
	if err != nil {
		t.Fatalf("EditSection: %v", err)
	}
	body, _ := ExtractSection(out, "Notes")
	if body != "replaced" {
		t.Fatalf("expected Notes body fully replaced, got %q", body)
	}
	if _, found := ExtractSection(out, "### Sub Note"); found {
		t.Fatal("expected Sub Note to have been swallowed by replacing its parent section")
	}
}

func TestEditSectionOnDeeperHeaderLeavesParentBodyIntact(t *testing.T) {
	out, err := EditSection(sample, "### Sub Note", "shallow fix", ModeReplace)
	if err != nil {
		t.Fatalf("EditSection: %v", err)
	}
	notesBody, _ := ExtractSection(out, "Notes")
	if notesBody != "some notes\n\n### Sub Note\n\nshallow fix" {
		t.Fatalf("unexpected Notes body after editing nested Sub Note: %q", notesBody)
	}
}

func TestEditSectionNotFound(t *testing.T) {
	_, err := EditSection(sample, "Missing", "x", ModeReplace)
	if errs.KindOf(err) != errs.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestFindReplaceLiteralUnlimited(t *testing.T) {
	out, n, err := FindReplace("a b a c a", "a", "z", false, -1)
	if err != nil {
		t.Fatalf("FindReplace: %v", err)
	}
	if n != 3 || out != "z b z c z" {
		t.Fatalf("unexpected result: out=%q n=%d", out, n)
	}
}

func TestFindReplaceLiteralMaxReplacements(t *testing.T) {
	out, n, err := FindReplace("a a a", "a", "z", false, 2)
	if err != nil {
		t.Fatalf("FindReplace: %v", err)
	}
	if n != 2 || out != "z z a" {
		t.Fatalf("unexpected result: out=%q n=%d", out, n)
	}
}

func TestFindReplaceRegex(t *testing.T) {
	out, n, err := FindReplace("foo1 foo2 foo3", `foo\d`, "bar", true, -1)
	if err != nil {
		t.Fatalf("FindReplace: %v", err)
	}
	if n != 3 || out != "bar bar bar" {
		t.Fatalf("unexpected result: out=%q n=%d", out, n)
	}
}

func TestFindReplaceEmptyFindIsInvalidArgument(t *testing.T) {
	_, _, err := FindReplace("x", "", "y", false, -1)
	if errs.KindOf(err) != errs.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestInsertAtPositionStartAndEnd(t *testing.T) {
	out, err := InsertAtPosition("body", "head", PositionStart, "")
	if err != nil || out != "head\n\nbody" {
		t.Fatalf("start insert mismatch: %q err=%v", out, err)
	}
	out, err = InsertAtPosition("body", "tail", PositionEnd, "")
	if err != nil || out != "body\n\ntail" {
		t.Fatalf("end insert mismatch: %q err=%v", out, err)
	}
}

func TestInsertAfterMarkerNotFound(t *testing.T) {
	_, err := InsertAtPosition("body", "x", PositionAfterMarker, "MARKER")
	if errs.KindOf(err) != errs.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestInsertAfterMarkerRequiresMarker(t *testing.T) {
	_, err := InsertAtPosition("body", "x", PositionAfterMarker, "")
	if errs.KindOf(err) != errs.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestListSections(t *testing.T) {
	sections := ListSections(sample)
	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d: %+v", len(sections), sections)
	}
	if sections[0].Header != "Main" || sections[0].Level != 1 {
		t.Fatalf("unexpected first section: %+v", sections[0])
	}
	if sections[1].Header != "Goals" || sections[1].Level != 2 {
		t.Fatalf("unexpected second section: %+v", sections[1])
	}
	if sections[3].Header != "Sub Note" || sections[3].Level != 3 {
		t.Fatalf("unexpected fourth section: %+v", sections[3])
	}
}

func TestExtractSectionNotFound(t *testing.T) {
	_, found := ExtractSection(sample, "Nope")
	if found {
		t.Fatal("expected not found")
	}
}
