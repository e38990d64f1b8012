// cmd/run.go
package cmd

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/browser"
	"github.com/xkilldash9x/pagepilot/internal/engine"
	"github.com/xkilldash9x/pagepilot/pkg/llmclient"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newRunCmd() *cobra.Command {
	var (
		instruction string
		targetURL   string
		maxSteps    int
		headed      bool
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single task against a URL",
		Example: `  pagepilot run --url https://news.ycombinator.com --instruction "find the top story about Go"
  pagepilot run -u https://duckduckgo.com -i "search for chromedp examples" --max-steps 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnvironment()
			if err != nil {
				return err
			}
			if headed {
				cfg.Browser.Headless = false
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
			result := eng.RunTask(ctx, engine.TaskSpec{
				Instruction: instruction,
				TargetURL:   targetURL,
				MaxSteps:    maxSteps,
			})

			if err := writeJSON(cmd, result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("task did not reach its goal: %s", result.ErrorMessage)
			}
			return nil
		},
	}

	runCmd.Flags().StringVarP(&instruction, "instruction", "i", "", "natural language instruction for the task (required)")
	runCmd.Flags().StringVarP(&targetURL, "url", "u", "", "starting URL (required)")
	runCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "override the configured step budget")
	runCmd.Flags().BoolVar(&headed, "headed", false, "run the browser with a visible window")
	_ = runCmd.MarkFlagRequired("instruction")
	_ = runCmd.MarkFlagRequired("url")

	return runCmd
}

// writeJSON pretty-prints v on the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// readTaskFile loads a JSON array of task specs from disk.
func readTaskFile(path string) ([]engine.TaskSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading task file: %w", err)
	}
	var specs []engine.TaskSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parsing task file %s: %w", path, err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("task file %s contains no tasks", path)
	}
	return specs, nil
}
