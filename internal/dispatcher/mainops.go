package dispatcher

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/hoofy-agent/agent-memory/internal/memorymgr"
)

// MainTool handles the main MCP tool: batched append/goal/task/plan
// mutations against main.md's fixed sections.
type MainTool struct {
	mgr *memorymgr.Manager
}

// NewMainTool creates a MainTool.
func NewMainTool(mgr *memorymgr.Manager) *MainTool {
	return &MainTool{mgr: mgr}
}

// Definition returns the MCP tool definition for main.
func (t *MainTool) Definition() mcp.Tool {
	return mcp.NewTool("main",
		mcp.WithDescription(
			"Batch main.md mutations: append a note, add/complete/remove a goal, record a completed task, or add/complete a plan.",
		),
		mcp.WithString("op",
			mcp.Required(),
			mcp.Description("append | goal | task | plan"),
		),
		mcp.WithArray("items",
			mcp.Required(),
			mcp.Description("Array of items; fields depend on op (content/section, goal/action, task, plan/action)."),
		),
	)
}

type mainItem struct {
	Content string `json:"content"`
	Section string `json:"section"`
	Goal    string `json:"goal"`
	Task    string `json:"task"`
	Plan    string `json:"plan"`
	Action  string `json:"action"`
}

// Handle processes the main tool call.
func (t *MainTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op := req.GetString("op", "")
	items, err := decodeItems[mainItem](req.GetArguments()["items"])
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

func (t *MainTool) handleOne(op string, item mainItem) (any, error) {
	switch op {
	case "append":
		section := item.Section
		if section == "" {
			section = "Recent Notes"
		}
		if err := t.mgr.AppendToMain(section, item.Content); err != nil {
			return nil, err
		}
		return map[string]any{"section": section, "sync_pending": true}, nil

	case "goal":
		action := item.Action
		if action == "" {
			action = string(memorymgr.GoalAdd)
		}
		if err := t.mgr.UpdateGoal(item.Goal, memorymgr.GoalAction(action)); err != nil {
			return nil, err
		}
		return map[string]any{"goal": item.Goal, "action": action, "sync_pending": true}, nil

	case "task":
		if err := t.mgr.UpdateTask(item.Task); err != nil {
			return nil, err
		}
		return map[string]any{"task": item.Task, "sync_pending": true}, nil

	case "plan":
		action := item.Action
		if action == "" {
			action = string(memorymgr.PlanAdd)
		}
		if err := t.mgr.UpdatePlan(item.Plan, memorymgr.PlanAction(action)); err != nil {
			return nil, err
		}
		return map[string]any{"plan": item.Plan, "action": action, "sync_pending": true}, nil

	default:
		return nil, errs.New(errs.InvalidArgument, "unknown main op: %s", op)
	}
}
