// agent-memory: a categorized markdown memory tree with hybrid
// vector+fulltext search, served over MCP.
//
// Usage:
//
//	agent-memory serve    # Start the MCP server (stdio transport)
//	agent-memory sync     # Run one reconcile sweep and exit
//	agent-memory version  # Print the version
package main

import (
	"os"

	"github.com/hoofy-agent/agent-memory/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
