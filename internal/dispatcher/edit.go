package dispatcher

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hoofy-agent/agent-memory/internal/editor"
	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/filestore"
	"github.com/hoofy-agent/agent-memory/internal/memorymgr"
)

// EditTool handles the edit MCP tool: batched section/find_replace/insert
// edits against single files.
type EditTool struct {
	files *filestore.Store
	mgr   *memorymgr.Manager
}

// NewEditTool creates an EditTool.
func NewEditTool(files *filestore.Store, mgr *memorymgr.Manager) *EditTool {
	return &EditTool{files: files, mgr: mgr}
}

// Definition returns the MCP tool definition for edit.
func (t *EditTool) Definition() mcp.Tool {
	return mcp.NewTool("edit",
		mcp.WithDescription(
			"Batch markdown edits: section replace/append/prepend, literal/regex find_replace, or positional insert.",
		),
		mcp.WithArray("operations",
			mcp.Required(),
			mcp.Description("Array of edit operations; fields depend on edit_type (section, find_replace, insert)."),
		),
	)
}

type editOperation struct {
	FilePath        string `json:"file_path"`
	EditType        string `json:"edit_type"`
	SectionHeader   string `json:"section_header"`
	NewContent      string `json:"new_content"`
	Mode            string `json:"mode"`
	Find            string `json:"find"`
	Replace         string `json:"replace"`
	UseRegex        bool   `json:"use_regex"`
	MaxReplacements int    `json:"max_replacements"`
	Content         string `json:"content"`
	Position        string `json:"position"`
	Marker          string `json:"marker"`
}

// Handle processes the edit tool call.
func (t *EditTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ops, err := decodeItems[editOperation](req.GetArguments()["operations"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := runBatch(len(ops), func(i int) (any, error) {
		return t.handleOne(ops[i])
	})
	out, err := resultsToJSON(results)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (t *EditTool) handleOne(op editOperation) (any, error) {
	if op.FilePath == "" {
		return nil, errs.New(errs.InvalidArgument, "file_path is required")
	}

	content, err := t.files.Read(op.FilePath)
	if err != nil {
		return nil, err
	}

	var (
		updated   string
		replacedN int
	)
	switch op.EditType {
	case "section":
		mode := editor.Mode(op.Mode)
		if mode == "" {
			mode = editor.ModeReplace
		}
		updated, err = editor.EditSection(content, op.SectionHeader, op.NewContent, mode)
	case "find_replace":
		maxReplacements := op.MaxReplacements
		if maxReplacements == 0 {
			maxReplacements = -1
		}
		updated, replacedN, err = editor.FindReplace(content, op.Find, op.Replace, op.UseRegex, maxReplacements)
	case "insert":
		position := editor.Position(op.Position)
		updated, err = editor.InsertAtPosition(content, op.Content, position, op.Marker)
	default:
		return nil, errs.New(errs.InvalidArgument, "unknown edit_type: %s", op.EditType)
	}
	if err != nil {
		return nil, err
	}

	if err := t.mgr.UpdateFile(op.FilePath, updated, filestore.ModeReplace); err != nil {
		return nil, err
	}

	result := map[string]any{"file_path": op.FilePath, "sync_pending": true}
	if op.EditType == "find_replace" {
		result["replacements"] = replacedN
	}
	return result, nil
}
