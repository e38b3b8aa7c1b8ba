package dispatcher

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/memorymgr"
)

// MemoryTool handles the memory MCP tool: initialize or reset the whole
// memory tree. Not batched — this tool takes a single op, not an array.
type MemoryTool struct {
	mgr *memorymgr.Manager
}

// NewMemoryTool creates a MemoryTool.
func NewMemoryTool(mgr *memorymgr.Manager) *MemoryTool {
	return &MemoryTool{mgr: mgr}
}

// Definition returns the MCP tool definition for memory.
func (t *MemoryTool) Definition() mcp.Tool {
	return mcp.NewTool("memory",
		mcp.WithDescription(
			"Initialize a fresh memory tree or reset an existing one back to its base template.",
		),
		mcp.WithString("op",
			mcp.Required(),
			mcp.Description("initialize | reset"),
		),
	)
}

// Handle processes the memory tool call.
func (t *MemoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op := req.GetString("op", "")
	var err error
	switch op {
	case "initialize":
		err = t.mgr.Initialize()
	case "reset":
		err = t.mgr.Reset()
	default:
		return mcp.NewToolResultError(errs.New(errs.InvalidArgument, "unknown memory op: %s", op).Error()), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(`{"op": "` + op + `", "ok": true}`), nil
}
