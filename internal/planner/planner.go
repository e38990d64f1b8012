// internal/planner/planner.go
package planner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/agent"
	"github.com/xkilldash9x/pagepilot/pkg/llmclient"
	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

// LLMPlanner asks a language model for the next action. It satisfies
// agent.Planner; every failure mode surfaces as a PlanningError so the
// control loop can substitute its default action.
type LLMPlanner struct {
	client llmclient.Client
	logger *zap.Logger
}

// New returns a planner over the given LLM client.
func New(client llmclient.Client, logger *zap.Logger) *LLMPlanner {
	return &LLMPlanner{client: client, logger: logger.Named("planner")}
}

// PlanNextAction renders the observation into a prompt, calls the model,
// and parses the reply into a typed Action.
func (p *LLMPlanner) PlanNextAction(ctx context.Context, state *schemas.TaskState, snapshot schemas.PageSnapshot) (schemas.Action, error) {
	req := llmclient.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(state, snapshot),
		Options:      llmclient.GenerationOptions{ForceJSONFormat: true},
	}

	response, err := p.client.Generate(ctx, req)
	if err != nil {
		return schemas.Action{}, agent.NewPlanningError(agent.ErrCodePlannerUnavailable,
			fmt.Errorf("model call failed: %w", err))
	}

	action, err := ParseAction(response)
	if err != nil {
		p.logger.Warn("Unparseable planner response",
			zap.String("task_id", state.TaskID),
			zap.Int("response_chars", len(response)),
			zap.Error(err))
		return schemas.Action{}, agent.NewPlanningError(agent.ErrCodePlannerBadOutput, err)
	}

	p.logger.Debug("Planned action",
		zap.String("task_id", state.TaskID),
		zap.String("type", string(action.Type)),
		zap.String("target", action.Target),
		zap.String("description", action.Description))
	return action, nil
}
