// Package executor dispatches claimed jobs from db.DbQueue to the handler
// registered for their job type.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caasmo/fraudgate/db"
)

// JobHandler processes a single claimed job.
type JobHandler interface {
	Handle(ctx context.Context, job db.Job) error
}

// JobHandlerFunc adapts a function to JobHandler.
type JobHandlerFunc func(ctx context.Context, job db.Job) error

func (f JobHandlerFunc) Handle(ctx context.Context, job db.Job) error {
	return f(ctx, job)
}

// Executor routes a job to the handler registered for its JobType.
type Executor struct {
	logger   *slog.Logger
	registry map[string]JobHandler
}

// New creates an Executor with the given job-type -> handler registry.
func New(logger *slog.Logger, handlers map[string]JobHandler) *Executor {
	return &Executor{logger: logger, registry: handlers}
}

// Execute runs the handler for job.JobType, or errors if none is
// registered.
func (e *Executor) Execute(ctx context.Context, job db.Job) error {
	handler, ok := e.registry[job.JobType]
	if !ok {
		return fmt.Errorf("executor: no handler registered for job type %q", job.JobType)
	}

	e.logger.Info("executing job", "job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts)
	return handler.Handle(ctx, job)
}
