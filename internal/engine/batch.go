// internal/engine/batch.go
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/pagepilot/pkg/schemas"
)

// TaskRunner executes one task spec end to end.
type TaskRunner interface {
	RunTask(ctx context.Context, spec TaskSpec) schemas.TaskResult
}

// RunBatch runs the specs with bounded concurrency and returns one
// result per spec, in spec order. A failing or panicking task never
// sinks its siblings.
func RunBatch(ctx context.Context, runner TaskRunner, specs []TaskSpec, maxConcurrent int, logger *zap.Logger) []schemas.TaskResult {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	results := make([]schemas.TaskResult, len(specs))

	var g errgroup.Group
	g.SetLimit(maxConcurrent)
	for i, spec := range specs {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Batch task panicked", zap.Int("task", i), zap.Any("panic", r))
					results[i] = schemas.TaskResult{
						Success:      false,
						FinalData:    []map[string]any{},
						ErrorMessage: fmt.Sprintf("task panicked: %v", r),
					}
				}
			}()
			results[i] = runner.RunTask(ctx, spec)
			return nil
		})
	}
	// Workers never return errors; Wait is a join.
	_ = g.Wait()
	return results
}
