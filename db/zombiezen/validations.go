package zombiezen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/caasmo/fraudgate/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func (d *Db) InsertValidationEvent(ctx context.Context, v *db.ValidationEvent) (int64, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	metadata, err := json.Marshal(v.Metadata)
	if err != nil {
		return 0, fmt.Errorf("zombiezen: marshal validation event metadata: %w", err)
	}

	var challengeTS string
	if !v.ChallengeTS.IsZero() {
		challengeTS = db.TimeFormat(v.ChallengeTS)
	}

	var submissionID any
	if v.SubmissionID != nil {
		submissionID = *v.SubmissionID
	}

	now := db.TimeFormat(time.Now())
	var id int64
	err = sqlitex.Execute(conn,
		`INSERT INTO validation_events
			(erfid, token_hash, success, allowed, block_reason, challenge_ts,
			 hostname, action, ephemeral_id, risk_score, risk_breakdown,
			 detection_type, submission_id, metadata, testing_bypass, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id = stmt.GetInt64("id")
				return nil
			},
			Args: []any{
				v.Erfid, v.TokenHash, boolToInt(v.Success), boolToInt(v.Allowed),
				v.BlockReason, challengeTS, v.Hostname, v.Action, v.EphemeralID,
				v.RiskScore, string(v.RiskBreakdown), v.DetectionType, submissionID,
				string(metadata), boolToInt(v.TestingBypass), now,
			},
		})
	if err != nil {
		return 0, fmt.Errorf("zombiezen: insert validation event: %w", err)
	}
	return id, nil
}

func (d *Db) CountValidationEventsByEphemeralID(ctx context.Context, ephemeralID string, since time.Time) (int, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	var count int
	err = sqlitex.Execute(conn,
		`SELECT COUNT(*) AS n FROM validation_events WHERE ephemeral_id = ? AND created >= ?`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = int(stmt.GetInt64("n"))
				return nil
			},
			Args: []any{ephemeralID, db.TimeFormat(since)},
		})
	if err != nil {
		return 0, fmt.Errorf("zombiezen: count validation events by ephemeral id: %w", err)
	}
	return count, nil
}

func (d *Db) TokenHashSeen(ctx context.Context, tokenHash string) (bool, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return false, err
	}
	defer d.pool.Put(conn)

	var seen bool
	err = sqlitex.Execute(conn,
		`SELECT 1 AS found FROM validation_events WHERE token_hash = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				seen = true
				return nil
			},
			Args: []any{tokenHash},
		})
	if err != nil {
		return false, fmt.Errorf("zombiezen: check token hash replay: %w", err)
	}
	return seen, nil
}
