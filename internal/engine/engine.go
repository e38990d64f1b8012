// internal/engine/engine.go
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/agent"
	"github.com/xkilldash9x/pagepilot/internal/browser"
	"github.com/xkilldash9x/pagepilot/internal/browser/executor"
	"github.com/xkilldash9x/pagepilot/internal/browser/indexer"
	"github.com/xkilldash9x/pagepilot/internal/config"
	"github.com/xkilldash9x/pagepilot/internal/planner"
	"github.com/xkilldash9x/pagepilot/pkg/llmclient"
	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

// TaskSpec describes one task to run.
type TaskSpec struct {
	Instruction string `json:"instruction"`
	TargetURL   string `json:"target_url"`
	MaxSteps    int    `json:"max_steps,omitempty"`
}

// Engine runs tasks end to end: session open, control loop, session
// close. Each task gets its own isolated browser context.
type Engine struct {
	cfg     *config.Config
	manager *browser.Manager
	client  llmclient.Client
	logger  *zap.Logger
}

// New wires an Engine over a browser manager and an LLM client.
func New(cfg *config.Config, manager *browser.Manager, client llmclient.Client, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		manager: manager,
		client:  client,
		logger:  logger.Named("engine"),
	}
}

// RunTask executes one task and always returns a TaskResult; session
// setup failures and panics become failed results, never a crash.
func (e *Engine) RunTask(ctx context.Context, spec TaskSpec) (result schemas.TaskResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Task panicked", zap.Any("panic", r), zap.String("instruction", spec.Instruction))
			result = schemas.TaskResult{
				Success:      false,
				FinalData:    []map[string]any{},
				ErrorMessage: fmt.Sprintf("task panicked: %v", r),
			}
		}
	}()

	taskCtx := ctx
	if e.cfg.Engine.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, e.cfg.Engine.TaskTimeout)
		defer cancel()
	}

	session, err := e.manager.NewSession(taskCtx)
	if err != nil {
		return schemas.TaskResult{
			Success:      false,
			FinalData:    []map[string]any{},
			ErrorMessage: fmt.Sprintf("opening browser session: %v", err),
		}
	}
	defer func() {
		if closeErr := session.Close(context.Background()); closeErr != nil {
			e.logger.Debug("Session close failed", zap.Error(closeErr))
		}
	}()

	ix := indexer.New(session, e.logger, e.cfg.Browser.DrawMarkers)
	exec := executor.New(session, e.logger)
	plan := planner.New(e.client, e.logger)
	runner := agent.NewRunner(ix, exec, plan, e.cfg.Task, e.logger)

	state := schemas.NewTaskState(spec.Instruction, spec.TargetURL)
	state.MaxSteps = e.cfg.Task.MaxSteps
	if spec.MaxSteps > 0 {
		state.MaxSteps = spec.MaxSteps
	}
	state.MaxRetries = e.cfg.Task.MaxRetries

	return runner.Run(taskCtx, state)
}
