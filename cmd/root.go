// cmd/root.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/config"
	"github.com/xkilldash9x/pagepilot/internal/observability"
)

var cfgFile string

// NewRootCommand builds the CLI tree. A fresh instance per invocation
// keeps flag state from leaking between runs.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pagepilot",
		Short: "Autonomous LLM-driven browser task agent",
		Long: `pagepilot drives a real browser to accomplish a natural language
instruction: it indexes the page's interactive elements, asks a planner
for the next action, executes it, and repeats until the goal is met.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ~/.pagepilot.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newBatchCmd())
	return rootCmd
}

// Execute runs the CLI under the given context.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadEnvironment resolves configuration and boots logging for a
// command invocation.
func loadEnvironment() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	observability.InitializeLogger(cfg.Logger)
	return cfg, observability.GetLogger(), nil
}
