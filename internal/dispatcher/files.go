package dispatcher

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/filestore"
	"github.com/hoofy-agent/agent-memory/internal/memorymgr"
	"github.com/hoofy-agent/agent-memory/internal/model"
)

// FilesTool handles the files MCP tool: create/read/update/delete/move/
// copy/rename/list, batched.
type FilesTool struct {
	files *filestore.Store
	mgr   *memorymgr.Manager
}

// NewFilesTool creates a FilesTool.
func NewFilesTool(files *filestore.Store, mgr *memorymgr.Manager) *FilesTool {
	return &FilesTool{files: files, mgr: mgr}
}

// Definition returns the MCP tool definition for files.
func (t *FilesTool) Definition() mcp.Tool {
	return mcp.NewTool("files",
		mcp.WithDescription(
			"Batch file operations: create, read, update, delete, move, copy, rename, or list memory files.",
		),
		mcp.WithString("op",
			mcp.Required(),
			mcp.Description("create | read | update | delete | move | copy | rename | list"),
		),
		mcp.WithArray("items",
			mcp.Description("Array of per-operation items; required fields depend on op."),
		),
	)
}

type fileItem struct {
	FilePath       string         `json:"file_path"`
	Title          string         `json:"title"`
	Category       string         `json:"category"`
	Content        string         `json:"content"`
	Tags           []string       `json:"tags"`
	Metadata       map[string]any `json:"metadata"`
	UpdateMode     string         `json:"update_mode"`
	NewCategory    string         `json:"new_category"`
	SourceFilePath string         `json:"source_file_path"`
	NewTitle       string         `json:"new_title"`
	OldFilePath    string         `json:"old_file_path"`
}

// Handle processes the files tool call.
func (t *FilesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op := req.GetString("op", "")
	items, err := decodeItems[fileItem](req.GetArguments()["items"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := runBatch(len(items), func(i int) (any, error) {
		return t.handleOne(op, items[i])
	})
	out, err := resultsToJSON(results)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (t *FilesTool) handleOne(op string, item fileItem) (any, error) {
	switch op {
	case "create":
		cat, err := model.ParseCategory(item.Category)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidArgument, err, "invalid category %q", item.Category)
		}
		path, err := t.mgr.CreateFile(item.Title, cat, item.Content, item.Tags, item.Metadata)
		if err != nil {
			return nil, err
		}
		return map[string]any{"file_path": path, "sync_pending": true}, nil

	case "read":
		content, err := t.files.Read(item.FilePath)
		if err != nil {
			return nil, err
		}
		return map[string]any{"file_path": item.FilePath, "content": content}, nil

	case "update":
		mode := filestore.UpdateMode(item.UpdateMode)
		if mode == "" {
			mode = filestore.ModeReplace
		}
		if err := t.mgr.UpdateFile(item.FilePath, item.Content, mode); err != nil {
			return nil, err
		}
		return map[string]any{"file_path": item.FilePath, "sync_pending": true}, nil

	case "delete":
		if err := t.mgr.DeleteFile(item.FilePath); err != nil {
			return nil, err
		}
		return map[string]any{"file_path": item.FilePath, "deleted": true, "sync_pending": true}, nil

	case "move":
		cat, err := model.ParseCategory(item.NewCategory)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidArgument, err, "invalid category %q", item.NewCategory)
		}
		newPath, err := t.mgr.MoveFile(item.FilePath, cat)
		if err != nil {
			return nil, err
		}
		return map[string]any{"file_path": newPath, "sync_pending": true}, nil

	case "copy":
		var newCat *model.Category
		if item.NewCategory != "" {
			cat, err := model.ParseCategory(item.NewCategory)
			if err != nil {
				return nil, errs.Wrap(errs.InvalidArgument, err, "invalid category %q", item.NewCategory)
			}
			newCat = &cat
		}
		newPath, err := t.mgr.CopyFile(item.SourceFilePath, item.NewTitle, newCat)
		if err != nil {
			return nil, err
		}
		return map[string]any{"file_path": newPath, "sync_pending": true}, nil

	case "rename":
		newPath, err := t.mgr.RenameFile(item.OldFilePath, item.NewTitle)
		if err != nil {
			return nil, err
		}
		return map[string]any{"file_path": newPath, "sync_pending": true}, nil

	case "list":
		var cat *model.Category
		if item.Category != "" {
			c, err := model.ParseCategory(item.Category)
			if err != nil {
				return nil, errs.Wrap(errs.InvalidArgument, err, "invalid category %q", item.Category)
			}
			cat = &c
		}
		return listFilesPayload(t.mgr.ListFiles(cat)), nil

	default:
		return nil, errs.New(errs.InvalidArgument, "unknown files op: %s", op)
	}
}
