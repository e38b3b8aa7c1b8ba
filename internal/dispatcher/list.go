package dispatcher

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hoofy-agent/agent-memory/internal/editor"
	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/filestore"
	"github.com/hoofy-agent/agent-memory/internal/jsonindex"
	"github.com/hoofy-agent/agent-memory/internal/memorymgr"
	"github.com/hoofy-agent/agent-memory/internal/model"
)

// ListTool handles the list MCP tool: batched "files" or "sections"
// lookups.
type ListTool struct {
	files *filestore.Store
	mgr   *memorymgr.Manager
}

// NewListTool creates a ListTool.
func NewListTool(files *filestore.Store, mgr *memorymgr.Manager) *ListTool {
	return &ListTool{files: files, mgr: mgr}
}

// Definition returns the MCP tool definition for list.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("list",
		mcp.WithDescription(
			"Batch lookups: list memory files (optionally by category) or list a file's section outline.",
		),
		mcp.WithArray("requests",
			mcp.Required(),
			mcp.Description(`Array of {"type": "files", "category"?} or {"type": "sections", "file_path"}`),
		),
	)
}

type listRequest struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	FilePath string `json:"file_path"`
}

// Handle processes the list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requests, err := decodeItems[listRequest](req.GetArguments()["requests"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := runBatch(len(requests), func(i int) (any, error) {
		return t.handleOne(requests[i])
	})
	out, err := resultsToJSON(results)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (t *ListTool) handleOne(r listRequest) (any, error) {
	switch r.Type {
	case "files":
		var cat *model.Category
		if r.Category != "" {
			c, err := model.ParseCategory(r.Category)
			if err != nil {
				return nil, errs.Wrap(errs.InvalidArgument, err, "invalid category %q", r.Category)
			}
			cat = &c
		}
		return listFilesPayload(t.mgr.ListFiles(cat)), nil

	case "sections":
		if r.FilePath == "" {
			return nil, errs.New(errs.InvalidArgument, "file_path is required for sections")
		}
		content, err := t.files.Read(r.FilePath)
		if err != nil {
			return nil, err
		}
		sections := editor.ListSections(content)
		out := make([]map[string]any, len(sections))
		for i, s := range sections {
			out[i] = map[string]any{"level": s.Level, "header": s.Header}
		}
		return map[string]any{"file_path": r.FilePath, "sections": out}, nil

	default:
		return nil, errs.New(errs.InvalidArgument, "unknown list type: %s", r.Type)
	}
}

// listFilesPayload returns both a flat file list and a category-keyed
// tree of the same entries, each carrying its description.
func listFilesPayload(entries []jsonindex.Entry) map[string]any {
	files := make([]map[string]any, len(entries))
	for i, e := range entries {
		files[i] = fileEntryPayload(e)
	}

	grouped := jsonindex.Tree(entries)
	tree := make(map[string]any, len(grouped))
	for cat, catEntries := range grouped {
		catFiles := make([]map[string]any, len(catEntries))
		for i, e := range catEntries {
			catFiles[i] = fileEntryPayload(e)
		}
		tree[string(cat)] = catFiles
	}

	return map[string]any{"files": files, "total": len(files), "tree": tree}
}

func fileEntryPayload(e jsonindex.Entry) map[string]any {
	return map[string]any{
		"file_path":   e.FilePath,
		"title":       e.Title,
		"category":    e.Category,
		"description": e.Description,
		"tags":        e.Tags,
		"updated_at":  e.UpdatedAt,
		"word_count":  e.WordCount,
	}
}
