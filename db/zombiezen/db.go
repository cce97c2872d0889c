// Package zombiezen implements the db.Db persistence interfaces on top of
// zombiezen.com/go/sqlite, a cgo-free SQLite driver.
package zombiezen

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"runtime"

	"github.com/caasmo/fraudgate/db"
	"github.com/caasmo/fraudgate/migrations"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Db is the zombiezen-backed implementation of db.Db. A single pool serves
// both reads and writes; SQLite's WAL mode lets readers proceed
// concurrently with the one writer a conflicting transaction blocks on.
type Db struct {
	pool *sqlitex.Pool
}

var _ db.Db = (*Db)(nil)

// New opens (creating if absent) the SQLite file at path and applies the
// embedded schema migrations.
func New(path string) (*Db, error) {
	initString := fmt.Sprintf("file:%s", path)
	p, err := sqlitex.NewPool(initString, sqlitex.PoolOptions{
		PoolSize: runtime.NumCPU(),
	})
	if err != nil {
		return nil, fmt.Errorf("zombiezen: open pool: %w", err)
	}

	d := &Db{pool: p}
	if err := d.migrate(migrations.Schema()); err != nil {
		p.Close()
		return nil, err
	}
	return d, nil
}

func (d *Db) migrate(fsys fs.FS) error {
	conn, err := d.pool.Take(context.Background())
	if err != nil {
		return fmt.Errorf("zombiezen: take connection for migration: %w", err)
	}
	defer d.pool.Put(conn)

	if err := migrations.ApplyMigrations(conn, fsys); err != nil {
		return fmt.Errorf("zombiezen: apply migrations: %w", err)
	}
	return nil
}

func (d *Db) Close() error {
	return d.pool.Close()
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("zombiezen: marshal: %w", err)
	}
	return string(b), nil
}
