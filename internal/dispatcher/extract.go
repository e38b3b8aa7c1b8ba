package dispatcher

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hoofy-agent/agent-memory/internal/editor"
	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/filestore"
)

// ExtractTool handles the extract MCP tool: batched section-body lookups.
type ExtractTool struct {
	files *filestore.Store
}

// NewExtractTool creates an ExtractTool.
func NewExtractTool(files *filestore.Store) *ExtractTool {
	return &ExtractTool{files: files}
}

// Definition returns the MCP tool definition for extract.
func (t *ExtractTool) Definition() mcp.Tool {
	return mcp.NewTool("extract",
		mcp.WithDescription(
			"Batch extraction of a named section's body from one or more files.",
		),
		mcp.WithArray("requests",
			mcp.Required(),
			mcp.Description(`Array of {file_path, section_header}`),
		),
	)
}

type extractRequest struct {
	FilePath      string `json:"file_path"`
	SectionHeader string `json:"section_header"`
}

// Handle processes the extract tool call.
func (t *ExtractTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requests, err := decodeItems[extractRequest](req.GetArguments()["requests"])
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

func (t *ExtractTool) handleOne(r extractRequest) (any, error) {
	if r.FilePath == "" || r.SectionHeader == "" {
		return nil, errs.New(errs.InvalidArgument, "file_path and section_header are required")
	}
	content, err := t.files.Read(r.FilePath)
	if err != nil {
		return nil, err
	}
	body, found := editor.ExtractSection(content, r.SectionHeader)
	if !found {
		return nil, errs.New(errs.NotFound, "section not found: %s", r.SectionHeader)
	}
	return map[string]any{"file_path": r.FilePath, "section_header": r.SectionHeader, "content": body}, nil
}
