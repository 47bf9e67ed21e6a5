package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jarvislabs/kgraph/internal/kg/model"
)

var logger = log.WithPrefix("pipeline")

// Stage is one step of a pipeline run. Execute reads and mutates the
// run context and reports its own outcome; it must not panic the run.
type Stage interface {
	Name() string
	Execute(ctx context.Context, pc *Context) model.StageResult
}

// runStage executes one stage with timing and panic capture. A panic
// inside a stage becomes a failed StageResult instead of tearing down
// the server.
func runStage(ctx context.Context, stage Stage, pc *Context) (result model.StageResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = failure(stage.Name(), start, fmt.Errorf("panic: %v", r))
			logger.Error("stage panicked", "stage", stage.Name(), "panic", r)
		}
	}()

	logger.Debug("stage starting", "stage", stage.Name())
	result = stage.Execute(ctx, pc)
	result.StageName = stage.Name()
	if result.Duration == 0 {
		result.Duration = time.Since(start).Round(time.Millisecond)
	}
	return result
}

func success(name string, start time.Time, output map[string]any) model.StageResult {
	return model.StageResult{
		StageName: name,
		Status:    model.StageCompleted,
		Duration:  time.Since(start).Round(time.Millisecond),
		Output:    output,
	}
}

func failure(name string, start time.Time, err error) model.StageResult {
	return model.StageResult{
		StageName: name,
		Status:    model.StageFailed,
		Duration:  time.Since(start).Round(time.Millisecond),
		Error:     err.Error(),
	}
}

func skipped(name string, reason string) model.StageResult {
	return model.StageResult{
		StageName: name,
		Status:    model.StageSkipped,
		Output:    map[string]any{"reason": reason},
	}
}
