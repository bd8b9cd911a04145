package driving

import (
	"context"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
)

// BuildOrchestrator admits build requests and runs the
// generate-publish-confirm pipeline for each as a detached unit of
// work. The submitter learns nothing beyond admission; outcomes are
// observable only through the evaluator notification.
type BuildOrchestrator interface {
	// Submit validates and admits a task, schedules its pipeline run,
	// and returns the run identifier without waiting for the run.
	// Returns domain.ErrPipelineClosed after Shutdown.
	Submit(ctx context.Context, task domain.BuildTask) (string, error)

	// Active returns the number of in-flight pipeline runs.
	Active() int

	// Wait blocks until every in-flight run has completed, or the
	// context is cancelled.
	Wait(ctx context.Context) error

	// Shutdown stops admission and waits for in-flight runs to drain.
	Shutdown(ctx context.Context) error
}
