package zombiezen

import (
	"context"
	"fmt"
	"time"

	"github.com/caasmo/fraudgate/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func (d *Db) FindActiveBlock(ctx context.Context, email, ephemeralID, ip, ja4 string, now time.Time) (*db.BlocklistEntry, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	entry, err := findActiveBlock(conn, email, ephemeralID, ip, ja4, now)
	if err != nil {
		return nil, fmt.Errorf("zombiezen: find active block: %w", err)
	}
	return entry, nil
}

func findActiveBlock(conn *sqlite.Conn, email, ephemeralID, ip, ja4 string, now time.Time) (*db.BlocklistEntry, error) {
	var entry *db.BlocklistEntry
	err := sqlitex.Execute(conn,
		`SELECT id, email, ephemeral_id, ip, ja4, reason, confidence,
			detection_type, blocked_at, expires_at, submission_hits,
			risk_score, risk_breakdown, metadata, erfid
		FROM blocklist_entries
		WHERE expires_at > ?
			AND ((email != '' AND email = ?)
				OR (ephemeral_id != '' AND ephemeral_id = ?)
				OR (ip != '' AND ip = ?)
				OR (ja4 != '' AND ja4 = ?))
		ORDER BY blocked_at DESC
		LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				e, err := scanBlocklistEntry(stmt)
				entry = e
				return err
			},
			Args: []any{db.TimeFormat(now), email, ephemeralID, ip, ja4},
		})
	return entry, err
}

// UpsertBlock extends the most recent active entry sharing one of entry's
// identity keys if one exists, otherwise inserts entry as a fresh record.
// The caller (blocklist package) is responsible for computing entry's new
// ExpiresAt per the progressive timeout schedule; an extended entry's
// SubmissionHits is set here to the existing count plus one.
func (d *Db) UpsertBlock(ctx context.Context, entry *db.BlocklistEntry) (*db.BlocklistEntry, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	release := sqlitex.Save(conn)
	var retErr error
	defer release(&retErr)

	existing, err := findActiveBlock(conn, entry.Email, entry.EphemeralID, entry.IP, entry.JA4, entry.BlockedAt)
	if err != nil {
		retErr = fmt.Errorf("zombiezen: upsert block lookup: %w", err)
		return nil, retErr
	}

	if existing == nil {
		var id int64
		err = sqlitex.Execute(conn,
			`INSERT INTO blocklist_entries
				(email, ephemeral_id, ip, ja4, reason, confidence, detection_type,
				 blocked_at, expires_at, submission_hits, risk_score,
				 risk_breakdown, metadata, erfid)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					id = stmt.GetInt64("id")
					return nil
				},
				Args: []any{
					entry.Email, entry.EphemeralID, entry.IP, entry.JA4, entry.Reason,
					entry.Confidence, string(entry.DetectionType),
					db.TimeFormat(entry.BlockedAt), db.TimeFormat(entry.ExpiresAt),
					entry.SubmissionHits, entry.RiskScore, string(entry.RiskBreakdown),
					string(entry.Metadata), entry.Erfid,
				},
			})
		if err != nil {
			retErr = fmt.Errorf("zombiezen: insert block: %w", err)
			return nil, retErr
		}
		entry.ID = id
		return entry, nil
	}

	newHits := existing.SubmissionHits + 1
	err = sqlitex.Execute(conn,
		`UPDATE blocklist_entries SET
			reason = ?, confidence = ?, detection_type = ?, blocked_at = ?,
			expires_at = ?, submission_hits = ?, risk_score = ?,
			risk_breakdown = ?, metadata = ?, erfid = ?
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{
				entry.Reason, entry.Confidence, string(entry.DetectionType),
				db.TimeFormat(entry.BlockedAt), db.TimeFormat(entry.ExpiresAt),
				newHits, entry.RiskScore, string(entry.RiskBreakdown),
				string(entry.Metadata), entry.Erfid, existing.ID,
			},
		})
	if err != nil {
		retErr = fmt.Errorf("zombiezen: extend block: %w", err)
		return nil, retErr
	}

	entry.ID = existing.ID
	entry.SubmissionHits = newHits
	return entry, nil
}

// IncrementHits bumps submission_hits for the entry matched by a blocklist
// check, separate from the offense escalation UpsertBlock performs.
func (d *Db) IncrementHits(ctx context.Context, id int64) error {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer d.pool.Put(conn)

	if err := sqlitex.Execute(conn,
		`UPDATE blocklist_entries SET submission_hits = submission_hits + 1 WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{id}},
	); err != nil {
		return fmt.Errorf("zombiezen: increment hits: %w", err)
	}
	return nil
}

func (d *Db) OffenseCount(ctx context.Context, email, ephemeralID, ip, ja4 string, now time.Time) (int, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	var count int
	err = sqlitex.Execute(conn,
		`SELECT COUNT(*) AS n
		FROM blocklist_entries
		WHERE blocked_at > ?
			AND ((email != '' AND email = ?)
				OR (ephemeral_id != '' AND ephemeral_id = ?)
				OR (ip != '' AND ip = ?)
				OR (ja4 != '' AND ja4 = ?))`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = int(stmt.GetInt64("n"))
				return nil
			},
			Args: []any{db.TimeFormat(now.Add(-24 * time.Hour)), email, ephemeralID, ip, ja4},
		})
	if err != nil {
		return 0, fmt.Errorf("zombiezen: offense count: %w", err)
	}
	return count, nil
}

func (d *Db) CleanupExpired(ctx context.Context, now time.Time) (int, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	if err := sqlitex.Execute(conn,
		`DELETE FROM blocklist_entries WHERE expires_at <= ?`,
		&sqlitex.ExecOptions{Args: []any{db.TimeFormat(now)}},
	); err != nil {
		return 0, fmt.Errorf("zombiezen: cleanup expired blocks: %w", err)
	}
	return conn.Changes(), nil
}

func (d *Db) BlocklistSize(ctx context.Context) (int, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	var count int
	err = sqlitex.Execute(conn,
		`SELECT COUNT(*) AS n FROM blocklist_entries`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = int(stmt.GetInt64("n"))
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("zombiezen: blocklist size: %w", err)
	}
	return count, nil
}

func (d *Db) InsertFraudBlock(ctx context.Context, b *db.FraudBlock) (int64, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	metadata, err := marshalJSON(b.Metadata)
	if err != nil {
		return 0, err
	}

	now := db.TimeFormat(time.Now())
	var id int64
	err = sqlitex.Execute(conn,
		`INSERT INTO fraud_blocks
			(erfid, reason, detection_type, risk_score, risk_breakdown, metadata, created)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id = stmt.GetInt64("id")
				return nil
			},
			Args: []any{
				b.Erfid, b.Reason, string(b.DetectionType), b.RiskScore,
				string(b.RiskBreakdown), metadata, now,
			},
		})
	if err != nil {
		return 0, fmt.Errorf("zombiezen: insert fraud block: %w", err)
	}
	return id, nil
}

func scanBlocklistEntry(stmt *sqlite.Stmt) (*db.BlocklistEntry, error) {
	blockedAt, err := db.TimeParse(stmt.GetText("blocked_at"))
	if err != nil {
		return nil, fmt.Errorf("parsing blocked_at: %w", err)
	}
	expiresAt, err := db.TimeParse(stmt.GetText("expires_at"))
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}

	return &db.BlocklistEntry{
		ID:             stmt.GetInt64("id"),
		Email:          stmt.GetText("email"),
		EphemeralID:    stmt.GetText("ephemeral_id"),
		IP:             stmt.GetText("ip"),
		JA4:            stmt.GetText("ja4"),
		Reason:         stmt.GetText("reason"),
		Confidence:     stmt.GetText("confidence"),
		DetectionType:  db.BlockTrigger(stmt.GetText("detection_type")),
		BlockedAt:      blockedAt,
		ExpiresAt:      expiresAt,
		SubmissionHits: int(stmt.GetInt64("submission_hits")),
		RiskScore:      stmt.GetFloat("risk_score"),
		RiskBreakdown:  []byte(stmt.GetText("risk_breakdown")),
		Metadata:       []byte(stmt.GetText("metadata")),
		Erfid:          stmt.GetText("erfid"),
	}, nil
}
