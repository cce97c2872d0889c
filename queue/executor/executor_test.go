package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/caasmo/fraudgate/db"
)

func nullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	failErr := errors.New("handler failed")

	var handledJob db.Job
	successHandler := JobHandlerFunc(func(ctx context.Context, job db.Job) error {
		handledJob = job
		return nil
	})
	failHandler := JobHandlerFunc(func(ctx context.Context, job db.Job) error {
		return failErr
	})

	exec := New(nullLogger(), map[string]JobHandler{
		"success_job": successHandler,
		"fail_job":    failHandler,
	})

	testCases := []struct {
		name    string
		job     db.Job
		wantErr bool
	}{
		{"successful execution", db.Job{ID: 1, JobType: "success_job"}, false},
		{"handler not found", db.Job{JobType: "unknown_job"}, true},
		{"handler returns error", db.Job{JobType: "fail_job"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := exec.Execute(ctx, tc.job)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}

	if handledJob.ID != 1 {
		t.Errorf("handler did not receive the correct job, got ID %d, want 1", handledJob.ID)
	}
}

func TestBlocklistJanitorHandlerHandle(t *testing.T) {
	calls := 0
	cleaner := fakeCleaner(func(ctx context.Context) (int, error) {
		calls++
		return 3, nil
	})

	h := NewBlocklistJanitorHandler(cleaner, nullLogger())
	if err := h.Handle(context.Background(), db.Job{JobType: db.JobTypeBlocklistJanitor}); err != nil {
		t.Fatalf("Handle() returned unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected CleanupExpired to be called once, got %d", calls)
	}
}

type fakeCleaner func(ctx context.Context) (int, error)

func (f fakeCleaner) CleanupExpired(ctx context.Context) (int, error) {
	return f(ctx)
}
