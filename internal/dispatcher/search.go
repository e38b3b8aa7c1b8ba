package dispatcher

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/model"
	searcheng "github.com/hoofy-agent/agent-memory/internal/search"
)

// SearchTool handles the search MCP tool: a batch of independent queries.
type SearchTool struct {
	engine *searcheng.Engine
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(engine *searcheng.Engine) *SearchTool {
	return &SearchTool{engine: engine}
}

// Definition returns the MCP tool definition for search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("search",
		mcp.WithDescription(
			"Batch hybrid/vector/fulltext search across memory files.",
		),
		mcp.WithArray("queries",
			mcp.Required(),
			mcp.Description(`Array of {query, search_mode?, limit?, file_path?, category_filter?, tag_filter?}`),
		),
	)
}

type searchQuery struct {
	Query          string   `json:"query"`
	SearchMode     string   `json:"search_mode"`
	Limit          *int     `json:"limit"`
	FilePath       string   `json:"file_path"`
	CategoryFilter []string `json:"category_filter"`
	TagFilter      []string `json:"tag_filter"`
}

// Handle processes the search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	queries, err := decodeItems[searchQuery](req.GetArguments()["queries"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := runBatch(len(queries), func(i int) (any, error) {
		return t.handleOne(ctx, queries[i])
	})
	out, err := resultsToJSON(results)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (t *SearchTool) handleOne(ctx context.Context, q searchQuery) (any, error) {
	if q.Query == "" {
		return nil, errs.New(errs.InvalidArgument, "query is required")
	}
	mode := searcheng.Mode(q.SearchMode)
	if mode == "" {
		mode = searcheng.ModeHybrid
	}

	var cats []model.Category
	for _, c := range q.CategoryFilter {
		cat, err := model.ParseCategory(c)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidArgument, err, "invalid category_filter %q", c)
		}
		cats = append(cats, cat)
	}

	resp, err := t.engine.Search(ctx, q.Query, mode, q.Limit, searcheng.Filters{
		Categories: cats,
		Tags:       q.TagFilter,
		FilePath:   q.FilePath,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]map[string]any, len(resp.Results))
	for i, r := range resp.Results {
		hits[i] = map[string]any{
			"file_path":   r.FilePath,
			"title":       r.Title,
			"category":    r.Category,
			"content":     r.Content,
			"header_path": r.HeaderPath,
			"score":       r.Score,
		}
	}
	return map[string]any{
		"query":    q.Query,
		"results":  hits,
		"degraded": resp.Degraded,
		"warning":  resp.Warning,
	}, nil
}
