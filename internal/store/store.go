// Package store persists workers, projects and attendance records in
// SQLite and answers the aggregate queries reports are built from.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

type Repository struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

// Open creates or opens the database at path and brings its schema up to
// date. SQLite allows one writer at a time, so the pool holds a single
// connection and the (worker, date) unique index settles any race between
// two creators of the same day's record.
func Open(path string, log *zap.Logger) (*Repository, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db, log: log, now: time.Now}
	if err := repo.init(); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("database opened", zap.String("path", path))
	return repo, nil
}

func (r *Repository) init() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := r.db.Exec(pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := r.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	if err := r.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := r.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		r.log.Info("schema migrated", zap.Int("from", version), zap.Int("to", currentSchemaVersion))
	}
	return nil
}

func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// stamp returns the current time at the precision it is stored with,
// along with its stored form.
func (r *Repository) stamp() (time.Time, string) {
	t := r.now().UTC().Truncate(time.Second)
	return t, t.Format(time.RFC3339)
}

type scanner interface {
	Scan(dest ...any) error
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
