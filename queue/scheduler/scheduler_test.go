package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/caasmo/fraudgate/config"
	"github.com/caasmo/fraudgate/db"
	"github.com/caasmo/fraudgate/db/mock"
)

func nullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type execFunc func(ctx context.Context, job db.Job) error

func (f execFunc) Execute(ctx context.Context, job db.Job) error {
	return f(ctx, job)
}

func TestSchedulerRunsClaimedJob(t *testing.T) {
	t.Parallel()

	var executed atomic.Int32
	var completed atomic.Int32

	job := &db.Job{ID: 1, JobType: db.JobTypeBlocklistJanitor}
	claimed := false

	d := &mock.Db{
		ClaimNextJobFunc: func(ctx context.Context, jobType string, now time.Time) (*db.Job, error) {
			if claimed {
				return nil, nil
			}
			claimed = true
			return job, nil
		},
		CompleteJobFunc: func(ctx context.Context, id int64) error {
			completed.Add(1)
			return nil
		},
	}

	exec := execFunc(func(ctx context.Context, j db.Job) error {
		executed.Add(1)
		return nil
	})

	cfg := config.Scheduler{Interval: config.Duration{20 * time.Millisecond}, MaxJobsPerTick: 1, ConcurrencyMultiplier: 1}
	s := New(cfg, db.JobTypeBlocklistJanitor, d, exec, nullLogger())
	s.Start()

	deadline := time.After(time.Second)
	for executed.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for job execution")
		case <-time.After(5 * time.Millisecond):
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() returned unexpected error: %v", err)
	}

	if completed.Load() == 0 {
		t.Error("expected CompleteJob to be called after successful execution")
	}
}

func TestSchedulerNoJobIsNoOp(t *testing.T) {
	t.Parallel()

	d := &mock.Db{
		ClaimNextJobFunc: func(ctx context.Context, jobType string, now time.Time) (*db.Job, error) {
			return nil, nil
		},
	}
	exec := execFunc(func(ctx context.Context, j db.Job) error {
		t.Fatal("executor should not run when no job is claimed")
		return nil
	})

	cfg := config.Scheduler{Interval: config.Duration{10 * time.Millisecond}, MaxJobsPerTick: 1, ConcurrencyMultiplier: 1}
	s := New(cfg, db.JobTypeBlocklistJanitor, d, exec, nullLogger())
	s.Start()

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() returned unexpected error: %v", err)
	}
}
