package dispatcher

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/memorymgr"
)

// TagsTool handles the tags MCP tool: batched add/remove/get over a file's
// tag set.
type TagsTool struct {
	mgr *memorymgr.Manager
}

// NewTagsTool creates a TagsTool.
func NewTagsTool(mgr *memorymgr.Manager) *TagsTool {
	return &TagsTool{mgr: mgr}
}

// Definition returns the MCP tool definition for tags.
func (t *TagsTool) Definition() mcp.Tool {
	return mcp.NewTool("tags",
		mcp.WithDescription(
			"Batch tag management: add, remove, or get a memory file's tags.",
		),
		mcp.WithString("op",
			mcp.Required(),
			mcp.Description("add | remove | get"),
		),
		mcp.WithArray("items",
			mcp.Required(),
			mcp.Description(`Array of {file_path, tags?}`),
		),
	)
}

type tagsItem struct {
	FilePath string   `json:"file_path"`
	Tags     []string `json:"tags"`
}

// Handle processes the tags tool call.
func (t *TagsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op := req.GetString("op", "")
	items, err := decodeItems[tagsItem](req.GetArguments()["items"])
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

func (t *TagsTool) handleOne(op string, item tagsItem) (any, error) {
	if item.FilePath == "" {
		return nil, errs.New(errs.InvalidArgument, "file_path is required")
	}

	var (
		tags []string
		err  error
	)
	syncPending := false
	switch op {
	case "add":
		tags, err = t.mgr.AddTags(item.FilePath, item.Tags)
		syncPending = true
	case "remove":
		tags, err = t.mgr.RemoveTags(item.FilePath, item.Tags)
		syncPending = true
	case "get":
		tags, err = t.mgr.GetTags(item.FilePath)
	default:
		return nil, errs.New(errs.InvalidArgument, "unknown tags op: %s", op)
	}
	if err != nil {
		return nil, err
	}
	out := map[string]any{"file_path": item.FilePath, "tags": tags}
	if syncPending {
		out["sync_pending"] = true
	}
	return out, nil
}
