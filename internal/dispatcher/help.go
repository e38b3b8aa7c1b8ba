package dispatcher

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// HelpTool handles the help MCP tool: static usage documentation and
// per-tool topic guides.
type HelpTool struct{}

// NewHelpTool creates a HelpTool.
func NewHelpTool() *HelpTool {
	return &HelpTool{}
}

// Definition returns the MCP tool definition for help.
func (t *HelpTool) Definition() mcp.Tool {
	return mcp.NewTool("help",
		mcp.WithDescription(
			"Static usage guide for the memory tools, optionally scoped to one topic.",
		),
		mcp.WithString("topic",
			mcp.Description("files | search | edit | tags | main | memory | extract | list (omit for the full guide)"),
		),
	)
}

var helpTopics = map[string]string{
	"files":   "files(op, items): create, read, update, delete, move, copy, rename, or list memory files. Every call takes an array of items, even a single one.",
	"search":  "search(queries): batch hybrid/vector/fulltext search. Each query may carry search_mode, limit, file_path, category_filter, tag_filter.",
	"edit":    "edit(operations): section replace/append/prepend (fails NotFound if the header is absent), find_replace (literal or regex, max_replacements=-1 for unlimited), or insert (start/end/after_marker; after_marker fails NotFound if the marker is absent).",
	"tags":    "tags(op, items): add, remove, or get a file's tag set. Tags are a set — adding an existing tag or removing a missing one is a no-op, not an error.",
	"main":    "main(op, items): append a note, or add/complete/remove a goal, add a completed task, or add/complete a plan. goal supports add|complete|remove; plan supports add|complete.",
	"memory":  "memory(op): initialize creates main.md and files_index.json if absent; reset deletes every tracked file, clears the index, and rewrites main.md to its base template.",
	"extract": "extract(requests): returns the body of a named section from one or more files, using the same section locator as edit's section type.",
	"list":    "list(requests): type=\"files\" lists files (optionally by category); type=\"sections\" returns a file's header outline.",
}

const fullHelpGuide = `# Agent Memory Tools

Nine batch tools: files, search, edit, tags, main, memory, extract, list, help.
Every tool except memory and help takes an array — batch even single operations.
Each batch item's result is {ok, value|error}, in the same order as the input.

Use search before answering to recall relevant context, and main(op="append")
or main(op="goal"/"task"/"plan") to keep main.md's running state current.`

// Handle processes the help tool call.
func (t *HelpTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic := req.GetString("topic", "")
	if topic == "" || topic == "all" {
		return mcp.NewToolResultText(fullHelpGuide), nil
	}
	guide, ok := helpTopics[topic]
	if !ok {
		return mcp.NewToolResultText(fullHelpGuide), nil
	}
	return mcp.NewToolResultText(guide), nil
}
