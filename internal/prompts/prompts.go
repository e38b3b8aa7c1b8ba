// Package prompts implements the four MCP prompt templates that guide
// an agent to use the memory tools proactively, each built with a
// NewXPrompt / Definition / Handle constructor triple.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// UsageGuidePrompt handles memory_usage_guide: a static, comprehensive
// guide to the available tools and recommended workflows.
type UsageGuidePrompt struct{}

// NewUsageGuidePrompt creates a UsageGuidePrompt.
func NewUsageGuidePrompt() *UsageGuidePrompt { return &UsageGuidePrompt{} }

// Definition returns the MCP prompt definition for registration.
func (p *UsageGuidePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("memory_usage_guide",
		mcp.WithPromptDescription("A comprehensive guide to the memory tools and recommended usage patterns."),
	)
}

// Handle returns the static usage guide as a single assistant message.
func (p *UsageGuidePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleAssistant, Content: mcp.NewTextContent(usageGuideText)},
		},
	}, nil
}

// ActiveUsagePrompt handles active_memory_usage: a short nudge to use
// memory proactively throughout a conversation, not just on request.
type ActiveUsagePrompt struct{}

// NewActiveUsagePrompt creates an ActiveUsagePrompt.
func NewActiveUsagePrompt() *ActiveUsagePrompt { return &ActiveUsagePrompt{} }

// Definition returns the MCP prompt definition for registration.
func (p *ActiveUsagePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("active_memory_usage",
		mcp.WithPromptDescription("A short reminder to actively search and update memory throughout the conversation."),
	)
}

// Handle returns the active-usage reminder.
func (p *ActiveUsagePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleAssistant, Content: mcp.NewTextContent(activeUsageText)},
		},
	}, nil
}

// RememberConversationPrompt handles remember_conversation: guides the
// agent to save the current conversation as a structured memory file.
type RememberConversationPrompt struct{}

// NewRememberConversationPrompt creates a RememberConversationPrompt.
func NewRememberConversationPrompt() *RememberConversationPrompt {
	return &RememberConversationPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *RememberConversationPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("remember_conversation",
		mcp.WithPromptDescription("Save the current conversation as a structured memory file."),
		mcp.WithArgument("topic", mcp.ArgumentDescription("A short topic for the conversation")),
		mcp.WithArgument("key_points", mcp.ArgumentDescription("The key points to remember, one per line")),
	)
}

// Handle builds the remember_conversation instructions for the given
// topic and key points.
func (p *RememberConversationPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	topic := args["topic"]
	if topic == "" {
		topic = "this conversation"
	}
	keyPoints := args["key_points"]
	if keyPoints == "" {
		keyPoints = "(none supplied — summarize the conversation so far)"
	}

	text := fmt.Sprintf(rememberConversationTemplate, topic, keyPoints, topic)
	return &mcp.GetPromptResult{
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleUser, Content: mcp.NewTextContent(text)},
		},
	}, nil
}

// RecallContextPrompt handles recall_context: guides the agent to
// search memory for a topic before answering.
type RecallContextPrompt struct{}

// NewRecallContextPrompt creates a RecallContextPrompt.
func NewRecallContextPrompt() *RecallContextPrompt { return &RecallContextPrompt{} }

// Definition returns the MCP prompt definition for registration.
func (p *RecallContextPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("recall_context",
		mcp.WithPromptDescription("Search memory for relevant context on a topic before answering."),
		mcp.WithArgument("topic", mcp.ArgumentDescription("The topic to search memory for")),
	)
}

// Handle builds the recall_context instructions for the given topic.
func (p *RecallContextPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	if topic == "" {
		topic = "the current conversation"
	}

	text := fmt.Sprintf(recallContextTemplate, topic, topic)
	return &mcp.GetPromptResult{
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleUser, Content: mcp.NewTextContent(text)},
		},
	}, nil
}

const usageGuideText = `# Agent Memory System - Usage Guide

You have access to a memory system that stores, retrieves, and manages
information across sessions. Use it actively.

## Core Principles

1. Save important information: preferences, project details, decisions.
2. Search before answering: check memory for relevant context first.
3. Keep main.md current: goals, tasks, and recent notes.
4. Batch operations: every tool but memory and help takes an array.

## Tools

files, search, edit, tags, main, memory, extract, list, help — see the
help tool for a per-topic breakdown.

## Best Practices

- Descriptive titles and tags make later search more useful.
- Search before creating, to avoid duplicate files.
- Update main.md's goals/tasks/plans as work progresses.`

const activeUsageText = `**Actively use the memory system throughout this conversation:**

1. Before answering, search memory for relevant context.
2. When you learn something important, save it.
3. When you complete or start work, update goals/tasks/plans in main.md.
4. When handling several items, use a tool's batch items array.`

const rememberConversationTemplate = `Create a memory file for this conversation about: %s

Key points to remember:
%s

Instructions:
1. Use the files tool with op="create" and category="conversation".
2. Write a well-structured markdown file: title, date/context, discussion
   points, decisions, and follow-up actions.
3. If this relates to an existing project or concept, search first.
4. Consider appending a short note to main.md's Recent Notes section.

Create the file for "%s" now.`

const recallContextTemplate = `Search memory for information about: %s

Instructions:
1. Use the search tool with search_mode="hybrid" and a generous limit.
2. Review the results for the most relevant files.
3. Read a file in full with files(op="read") if the excerpt isn't enough.
4. Summarize the relevant findings before answering.

Start by searching for: "%s"`
