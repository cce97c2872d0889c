package zombiezen

import (
	"context"
	"fmt"
	"time"

	"github.com/caasmo/fraudgate/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func (d *Db) GetBaseline(ctx context.Context, fingerprintType, fingerprintKey, ja4Bucket string, asnBucket int64) (*db.FingerprintBaseline, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var b *db.FingerprintBaseline
	err = sqlitex.Execute(conn,
		`SELECT fingerprint_type, fingerprint_key, ja4_bucket, asn_bucket, hit_count, last_seen
		FROM fingerprint_baselines
		WHERE fingerprint_type = ? AND fingerprint_key = ? AND ja4_bucket = ? AND asn_bucket = ?
		LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				v, err := scanBaseline(stmt)
				b = v
				return err
			},
			Args: []any{fingerprintType, fingerprintKey, ja4Bucket, asnBucket},
		})
	if err != nil {
		return nil, fmt.Errorf("zombiezen: get baseline: %w", err)
	}
	return b, nil
}

func (d *Db) TouchBaseline(ctx context.Context, fingerprintType, fingerprintKey, ja4Bucket string, asnBucket int64, now time.Time) (*db.FingerprintBaseline, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer d.pool.Put(conn)

	var b *db.FingerprintBaseline
	err = sqlitex.Execute(conn,
		`INSERT INTO fingerprint_baselines
			(fingerprint_type, fingerprint_key, ja4_bucket, asn_bucket, hit_count, last_seen)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(fingerprint_type, fingerprint_key, ja4_bucket, asn_bucket) DO UPDATE SET
			hit_count = hit_count + 1,
			last_seen = excluded.last_seen
		RETURNING fingerprint_type, fingerprint_key, ja4_bucket, asn_bucket, hit_count, last_seen`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				v, err := scanBaseline(stmt)
				b = v
				return err
			},
			Args: []any{fingerprintType, fingerprintKey, ja4Bucket, asnBucket, db.TimeFormat(now)},
		})
	if err != nil {
		return nil, fmt.Errorf("zombiezen: touch baseline: %w", err)
	}
	return b, nil
}

func scanBaseline(stmt *sqlite.Stmt) (*db.FingerprintBaseline, error) {
	lastSeen, err := db.TimeParse(stmt.GetText("last_seen"))
	if err != nil {
		return nil, fmt.Errorf("parsing last_seen: %w", err)
	}
	return &db.FingerprintBaseline{
		FingerprintType: stmt.GetText("fingerprint_type"),
		FingerprintKey:  stmt.GetText("fingerprint_key"),
		JA4Bucket:       stmt.GetText("ja4_bucket"),
		ASNBucket:       stmt.GetInt64("asn_bucket"),
		HitCount:        stmt.GetInt64("hit_count"),
		LastSeen:        lastSeen,
	}, nil
}
