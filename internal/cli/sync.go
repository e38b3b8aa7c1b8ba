package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	agentserver "github.com/hoofy-agent/agent-memory/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconcile sweep over MEMORY_FILES_PATH and exit",
		Long:  "Reconciles every tracked file against the index store once, then exits. Useful as a cron or CI warm-up before serving.",
		RunE:  runSync,
	}
	cmd.Flags().Duration("timeout", 2*time.Minute, "Maximum time to wait for the sweep to drain")
	RootCmd.AddCommand(cmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(context.Background(), timeout+10*time.Second)
	defer cancel()

	app, err := agentserver.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Reconciler.Start(ctx)
	app.Reconciler.SweepOnce()

	if !app.Reconciler.Drain(timeout) {
		return fmt.Errorf("sync: sweep did not finish within %s", timeout)
	}
	fmt.Println("sync: sweep complete")
	return nil
}
