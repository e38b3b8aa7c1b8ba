package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	agentserver "github.com/hoofy-agent/agent-memory/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the agent-memory version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agent-memory v%s\n", agentserver.Version)
		},
	}
	RootCmd.AddCommand(cmd)
}
