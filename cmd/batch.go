// cmd/batch.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/browser"
	"github.com/xkilldash9x/pagepilot/internal/engine"
	"github.com/xkilldash9x/pagepilot/pkg/llmclient"
)

func newBatchCmd() *cobra.Command {
	var (
		taskFile    string
		concurrency int
	)

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a batch of tasks from a JSON file",
		Long: `Reads a JSON array of task specs ({"instruction", "target_url",
"max_steps"}) and runs them concurrently, each in its own browser
context. Results are printed as a JSON array in input order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnvironment()
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Engine.MaxConcurrentTasks = concurrency
			}

			specs, err := readTaskFile(taskFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := llmclient.NewClient(ctx, cfg.Planner, logger)
			if err != nil {
				return fmt.Errorf("creating planner client: %w", err)
			}

			manager := browser.NewManager(ctx, cfg, logger)
			defer func() {
				if err := manager.Shutdown(ctx); err != nil {
					logger.Warn("Browser shutdown did not finish cleanly.", zap.Error(err))
				}
			}()

			eng := engine.New(cfg, manager, client, logger)
			results := engine.RunBatch(ctx, eng, specs, cfg.Engine.MaxConcurrentTasks, logger)

			if err := writeJSON(cmd, results); err != nil {
				return err
			}

			failed := 0
			for _, res := range results {
				if !res.Success {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d tasks did not reach their goal", failed, len(results))
			}
			return nil
		},
	}

	batchCmd.Flags().StringVarP(&taskFile, "file", "f", "", "JSON file with an array of task specs (required)")
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "override the configured task concurrency")
	_ = batchCmd.MarkFlagRequired("file")

	return batchCmd
}
