// Package resources implements MCP resource handlers for the agent
// memory tree. Resources provide read-only data the host can pull into
// context without an explicit tool call, addressed by memory:// URIs.
package resources

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hoofy-agent/agent-memory/internal/filestore"
)

// Handler serves the two memory resources: the always-loaded main.md
// and any individual tracked file by path.
type Handler struct {
	files *filestore.Store
}

// NewHandler creates a resource Handler.
func NewHandler(files *filestore.Store) *Handler {
	return &Handler{files: files}
}

// MainResource returns the definition for memory://main.
func (h *Handler) MainResource() mcp.Resource {
	return mcp.NewResource(
		"memory://main",
		"Main Memory Index",
		mcp.WithResourceDescription("main.md: recent notes, current goals, completed tasks, plans, and the per-category file index"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleMain returns main.md's current content.
func (h *Handler) HandleMain(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	content, err := h.files.Read(filestore.MainFile)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "text/markdown", Text: content},
	}, nil
}

// FileTemplate returns the templated definition for memory://file/{path}.
func (h *Handler) FileTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		"memory://file/{path}",
		"Memory File",
		mcp.WithTemplateDescription("A single tracked memory file by its relative path, e.g. memory://file/projects/demo.md"),
		mcp.WithTemplateMIMEType("text/markdown"),
	)
}

// HandleFile returns the named file's content, parsed out of the URI.
func (h *Handler) HandleFile(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	const prefix = "memory://file/"
	uri := req.Params.URI
	if len(uri) <= len(prefix) || uri[:len(prefix)] != prefix {
		return errorResource(uri, fmt.Sprintf("malformed resource uri: %s", uri)), nil
	}
	filePath := uri[len(prefix):]

	content, err := h.files.Read(filePath)
	if err != nil {
		return errorResource(uri, err.Error()), nil
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "text/markdown", Text: content},
	}, nil
}

func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "text/plain", Text: "error: " + message},
	}
}
