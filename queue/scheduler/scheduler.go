// Package scheduler runs a ticker-driven loop that claims due jobs from
// db.DbQueue and dispatches them through an executor. Each tick claims at
// most one job and runs it inside a bounded errgroup; the
// config.Scheduler.MaxJobsPerTick setting is not read.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/caasmo/fraudgate/config"
	"github.com/caasmo/fraudgate/db"
	"golang.org/x/sync/errgroup"
)

// Executor runs a single claimed job.
type Executor interface {
	Execute(ctx context.Context, job db.Job) error
}

// Scheduler polls db.DbQueue for jobs of a fixed type and runs them
// through an Executor.
type Scheduler struct {
	cfg      config.Scheduler
	jobType  string
	db       db.DbQueue
	executor Executor
	logger   *slog.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownDone chan struct{}
}

// New creates a Scheduler that claims jobs of jobType on cfg.Interval.
func New(cfg config.Scheduler, jobType string, d db.DbQueue, exec Executor, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:          cfg,
		jobType:      jobType,
		db:           d,
		executor:     exec,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		shutdownDone: make(chan struct{}),
	}
}

// Start runs the tick loop in a background goroutine.
func (s *Scheduler) Start() {
	go func() {
		s.logger.Info("starting job scheduler", "job_type", s.jobType, "interval", s.cfg.Interval.Duration)
		ticker := time.NewTicker(s.cfg.Interval.Duration)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				close(s.shutdownDone)
				return
			case <-ticker.C:
				s.processTick()
			}
		}
	}()
}

// Stop signals the scheduler to stop and waits for the in-flight batch
// to finish, or ctx to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.shutdownDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) processTick() {
	job, err := s.db.ClaimNextJob(s.ctx, s.jobType, time.Now())
	if err != nil {
		s.logger.Error("failed to claim job", "job_type", s.jobType, "error", err)
		return
	}
	if job == nil {
		return
	}

	g, ctx := errgroup.WithContext(s.ctx)
	g.SetLimit(runtime.NumCPU() * s.cfg.ConcurrencyMultiplier)

	g.Go(func() error {
		jobCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()

		execErr := s.executor.Execute(jobCtx, *job)
		switch {
		case execErr == nil:
			if err := s.db.CompleteJob(s.ctx, job.ID); err != nil {
				s.logger.Error("failed to mark job completed", "job_id", job.ID, "error", err)
			}
		case errors.Is(execErr, context.DeadlineExceeded):
			if err := s.db.FailJob(s.ctx, job.ID, "timed out: "+execErr.Error(), time.Now().Add(time.Minute)); err != nil {
				s.logger.Error("failed to mark job timed out", "job_id", job.ID, "error", err)
			}
		default:
			if err := s.db.FailJob(s.ctx, job.ID, execErr.Error(), time.Now().Add(time.Minute)); err != nil {
				s.logger.Error("failed to mark job failed", "job_id", job.ID, "error", err)
			}
		}
		return execErr
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("job execution error", "job_type", s.jobType, "error", err)
	}
}
