package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

type DB struct {
	*sqlx.DB
}

// NewDB opens the SQLite file at dbPath. Transactions take the write lock
// at BEGIN (_txlock=immediate), so read-then-write work inside one
// transaction is serialized against every other writer.
func NewDB(dbPath string) (*DB, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &DB{db}, nil
}

// InitSchema creates the notes table if it does not exist yet.
func (d *DB) InitSchema(ctx context.Context) error {
	if _, err := d.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// DropSchema removes every note. Startup with --reset calls it before
// InitSchema.
func (d *DB) DropSchema(ctx context.Context) error {
	if _, err := d.ExecContext(ctx, `DROP TABLE IF EXISTS notes;`); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}
