package zombiezen

import (
	"context"
	"fmt"
	"time"

	"github.com/caasmo/fraudgate/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func (d *Db) EnqueueJob(ctx context.Context, job *db.Job) (int64, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	status := job.Status
	if status == "" {
		status = db.JobStatusPending
	}
	maxAttempts := job.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 5
	}
	scheduledFor := job.ScheduledFor
	if scheduledFor.IsZero() {
		scheduledFor = time.Now()
	}

	var id int64
	err = sqlitex.Execute(conn,
		`INSERT INTO jobs (job_type, payload, status, attempts, max_attempts, created, scheduled_for)
		VALUES (?, ?, ?, 0, ?, ?, ?)
		RETURNING id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id = stmt.GetInt64("id")
				return nil
			},
			Args: []any{
				job.JobType, string(job.Payload), status, maxAttempts,
				db.TimeFormat(time.Now()), db.TimeFormat(scheduledFor),
			},
		})
	if err != nil {
		return 0, fmt.Errorf("zombiezen: enqueue job: %w", err)
	}
	return id, nil
}

func (d *Db) ClaimNextJob(ctx context.Context, jobType string, now time.Time) (*db.Job, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	release := sqlitex.Save(conn)
	var retErr error
	defer release(&retErr)

	var job *db.Job
	err = sqlitex.Execute(conn,
		`SELECT id, job_type, payload, status, attempts, max_attempts, created, scheduled_for, last_error
		FROM jobs
		WHERE job_type = ? AND status = ? AND scheduled_for <= ?
		ORDER BY scheduled_for ASC
		LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				j, err := scanJob(stmt)
				job = j
				return err
			},
			Args: []any{jobType, db.JobStatusPending, db.TimeFormat(now)},
		})
	if err != nil {
		retErr = fmt.Errorf("zombiezen: claim next job: %w", err)
		return nil, retErr
	}
	if job == nil {
		return nil, nil
	}

	err = sqlitex.Execute(conn,
		`UPDATE jobs SET status = ?, attempts = attempts + 1 WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{db.JobStatusProcessing, job.ID}})
	if err != nil {
		retErr = fmt.Errorf("zombiezen: mark job processing: %w", err)
		return nil, retErr
	}
	job.Status = db.JobStatusProcessing
	job.Attempts++
	return job, nil
}

func (d *Db) CompleteJob(ctx context.Context, id int64) error {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	if err := sqlitex.Execute(conn,
		`UPDATE jobs SET status = ? WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{db.JobStatusCompleted, id}},
	); err != nil {
		return fmt.Errorf("zombiezen: complete job: %w", err)
	}
	return nil
}

func (d *Db) FailJob(ctx context.Context, id int64, errMsg string, retryAt time.Time) error {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	if err := sqlitex.Execute(conn,
		`UPDATE jobs SET status = ?, last_error = ?, scheduled_for = ? WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{db.JobStatusPending, errMsg, db.TimeFormat(retryAt), id},
		},
	); err != nil {
		return fmt.Errorf("zombiezen: fail job: %w", err)
	}
	return nil
}

func scanJob(stmt *sqlite.Stmt) (*db.Job, error) {
	created, err := db.TimeParse(stmt.GetText("created"))
	if err != nil {
		return nil, fmt.Errorf("parsing created: %w", err)
	}
	scheduledFor, err := db.TimeParse(stmt.GetText("scheduled_for"))
	if err != nil {
		return nil, fmt.Errorf("parsing scheduled_for: %w", err)
	}
	return &db.Job{
		ID:           stmt.GetInt64("id"),
		JobType:      stmt.GetText("job_type"),
		Payload:      []byte(stmt.GetText("payload")),
		Status:       stmt.GetText("status"),
		Attempts:     int(stmt.GetInt64("attempts")),
		MaxAttempts:  int(stmt.GetInt64("max_attempts")),
		CreatedAt:    created,
		ScheduledFor: scheduledFor,
		LastError:    stmt.GetText("last_error"),
	}, nil
}
