package zombiezen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/caasmo/fraudgate/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func (d *Db) InsertSubmission(ctx context.Context, s *db.Submission) (int64, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return 0, fmt.Errorf("zombiezen: marshal submission metadata: %w", err)
	}

	var address string
	if s.Address != nil {
		b, err := json.Marshal(s.Address)
		if err != nil {
			return 0, fmt.Errorf("zombiezen: marshal submission address: %w", err)
		}
		address = string(b)
	}

	now := db.TimeFormat(time.Now())
	var id int64
	err = sqlitex.Execute(conn,
		`INSERT INTO submissions
			(erfid, first_name, last_name, email, phone, address, date_of_birth,
			 raw_payload, metadata, ephemeral_id, risk_breakdown,
			 email_fraud_signals, testing_bypass, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id = stmt.GetInt64("id")
				return nil
			},
			Args: []any{
				s.Erfid, s.FirstName, s.LastName, s.Email, s.Phone, address,
				s.DateOfBirth, string(s.RawPayload), string(metadata),
				s.EphemeralID, string(s.RiskBreakdown), string(s.EmailFraudSignals),
				boolToInt(s.TestingBypass), now,
			},
		})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return 0, fmt.Errorf("zombiezen: insert submission: %w: %v", db.ErrUniqueConstraint, err)
		}
		return 0, fmt.Errorf("zombiezen: insert submission: %w", err)
	}
	return id, nil
}

func (d *Db) GetSubmissionByErfid(ctx context.Context, erfid string) (*db.Submission, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var s *db.Submission
	err = sqlitex.Execute(conn,
		`SELECT id, erfid, first_name, last_name, email, phone, address,
			date_of_birth, raw_payload, metadata, ephemeral_id, risk_breakdown,
			email_fraud_signals, testing_bypass, created
		FROM submissions WHERE erfid = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				s, err = scanSubmission(stmt)
				return err
			},
			Args: []any{erfid},
		})
	if err != nil {
		return nil, fmt.Errorf("zombiezen: get submission by erfid: %w", err)
	}
	return s, nil
}

func (d *Db) CountSubmissionsByEmail(ctx context.Context, email string, since time.Time) (int, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	var count int
	err = sqlitex.Execute(conn,
		`SELECT COUNT(*) AS n FROM submissions WHERE email = ? AND created >= ?`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = int(stmt.GetInt64("n"))
				return nil
			},
			Args: []any{email, db.TimeFormat(since)},
		})
	if err != nil {
		return 0, fmt.Errorf("zombiezen: count submissions by email: %w", err)
	}
	return count, nil
}

func (d *Db) CountSubmissionsByEphemeralID(ctx context.Context, ephemeralID string, since time.Time) (int, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	var count int
	err = sqlitex.Execute(conn,
		`SELECT COUNT(*) AS n FROM submissions WHERE ephemeral_id = ? AND created >= ?`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = int(stmt.GetInt64("n"))
				return nil
			},
			Args: []any{ephemeralID, db.TimeFormat(since)},
		})
	if err != nil {
		return 0, fmt.Errorf("zombiezen: count submissions by ephemeral id: %w", err)
	}
	return count, nil
}

func (d *Db) DistinctIPsByEphemeralID(ctx context.Context, ephemeralID string, since time.Time) (int, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer d.pool.Put(conn)

	var count int
	err = sqlitex.Execute(conn,
		`SELECT COUNT(DISTINCT json_extract(metadata, '$.remoteIp')) AS n
		FROM submissions WHERE ephemeral_id = ? AND created >= ?`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = int(stmt.GetInt64("n"))
				return nil
			},
			Args: []any{ephemeralID, db.TimeFormat(since)},
		})
	if err != nil {
		return 0, fmt.Errorf("zombiezen: distinct ips by ephemeral id: %w", err)
	}
	return count, nil
}

func (d *Db) HeaderFingerprintStats(ctx context.Context, headerFingerprint string, since time.Time) (int, int, int, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	defer d.pool.Put(conn)

	var count, distinctIPs, distinctJA4 int
	err = sqlitex.Execute(conn,
		`SELECT
			COUNT(*) AS n,
			COUNT(DISTINCT json_extract(metadata, '$.remoteIp')) AS ips,
			COUNT(DISTINCT json_extract(metadata, '$.ja4')) AS ja4s
		FROM submissions
		WHERE json_extract(metadata, '$.headerFingerprint') = ? AND created >= ?`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = int(stmt.GetInt64("n"))
				distinctIPs = int(stmt.GetInt64("ips"))
				distinctJA4 = int(stmt.GetInt64("ja4s"))
				return nil
			},
			Args: []any{headerFingerprint, db.TimeFormat(since)},
		})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("zombiezen: header fingerprint stats: %w", err)
	}
	return count, distinctIPs, distinctJA4, nil
}

func (d *Db) TLSPairObservations(ctx context.Context, tlsClientExtensionHash, ja4 string, since time.Time) (int, int, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer d.pool.Put(conn)

	var ja4Count, pairCount int
	err = sqlitex.Execute(conn,
		`SELECT
			COUNT(*) AS n,
			SUM(CASE WHEN json_extract(metadata, '$.tlsClientExtensionHash') = ? THEN 1 ELSE 0 END) AS paired
		FROM submissions
		WHERE json_extract(metadata, '$.ja4') = ? AND created >= ?`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				ja4Count = int(stmt.GetInt64("n"))
				pairCount = int(stmt.GetInt64("paired"))
				return nil
			},
			Args: []any{tlsClientExtensionHash, ja4, db.TimeFormat(since)},
		})
	if err != nil {
		return 0, 0, fmt.Errorf("zombiezen: tls pair observations: %w", err)
	}
	return ja4Count, pairCount, nil
}

func scanSubmission(stmt *sqlite.Stmt) (*db.Submission, error) {
	created, err := db.TimeParse(stmt.GetText("created"))
	if err != nil {
		return nil, fmt.Errorf("parsing created time: %w", err)
	}

	var metadata db.RequestMetadata
	if err := json.Unmarshal([]byte(stmt.GetText("metadata")), &metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	s := &db.Submission{
		ID:                stmt.GetInt64("id"),
		Erfid:             stmt.GetText("erfid"),
		FirstName:         stmt.GetText("first_name"),
		LastName:          stmt.GetText("last_name"),
		Email:             stmt.GetText("email"),
		Phone:             stmt.GetText("phone"),
		DateOfBirth:       stmt.GetText("date_of_birth"),
		RawPayload:        []byte(stmt.GetText("raw_payload")),
		Metadata:          metadata,
		EphemeralID:       stmt.GetText("ephemeral_id"),
		RiskBreakdown:     []byte(stmt.GetText("risk_breakdown")),
		EmailFraudSignals: []byte(stmt.GetText("email_fraud_signals")),
		TestingBypass:     stmt.GetInt64("testing_bypass") != 0,
		CreatedAt:         created,
	}

	if raw := stmt.GetText("address"); raw != "" {
		var addr db.Address
		if err := json.Unmarshal([]byte(raw), &addr); err != nil {
			return nil, fmt.Errorf("unmarshal address: %w", err)
		}
		s.Address = &addr
	}

	return s, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
