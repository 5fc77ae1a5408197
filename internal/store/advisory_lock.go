package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
)

// AdvisoryLock holds a single session-level Postgres advisory lock,
// enforcing spec.md §5/§7's single-writer assumption: only the process
// that acquires key may run the scheduler driver against this database.
// It keeps its own *sql.DB (via database/sql + lib/pq) separate from the
// gorm connection pool, since the lock must live on one dedicated,
// long-held connection — gorm's pool would silently hand the lock's
// connection back for reuse.
type AdvisoryLock struct {
	db   *sql.DB
	conn *sql.Conn
	key  int64
}

// AcquireAdvisoryLock blocks until it holds the advisory lock identified
// by key (pg_advisory_lock), or ctx is cancelled first.
func AcquireAdvisoryLock(ctx context.Context, dsn string, key int64) (*AdvisoryLock, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("advisory lock: open: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("advisory lock: acquire connection: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", key); err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("advisory lock: pg_advisory_lock(%d): %w", key, err)
	}

	return &AdvisoryLock{db: db, conn: conn, key: key}, nil
}

// Release unlocks the advisory lock and closes its dedicated connection.
func (l *AdvisoryLock) Release(ctx context.Context) error {
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.key)
	l.conn.Close()
	l.db.Close()
	return err
}
