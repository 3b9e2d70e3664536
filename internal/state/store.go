// Package state provides the SQLite-backed store of sync records: the durable
// mapping from source events to their mirrored target events.
//
// The store is the sole source of truth for "what has already been mirrored".
// Every write is committed before the call returns, so a crash immediately
// after a successful call never loses the record. The store assumes a single
// writer per run; callers must not run overlapping syncs against one database.
package state

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (sync_records + target index)
const currentSchemaVersion = 1

// SyncRecord maps one source event to its mirrored target event.
type SyncRecord struct {
	SourceCalendarID string
	SourceEventID    string
	TargetCalendarID string
	TargetEventID    string

	// LastSyncedAt is when the last successful mirror happened.
	LastSyncedAt time.Time

	// LastSourceUpdatedAt is the source event's updated timestamp as of the
	// last sync. Zero when the source never reported one.
	LastSourceUpdatedAt time.Time
}

// Store is a SQLite-backed sync-record store.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, creating parent directories as
// needed. Idempotent: reopening an existing database leaves its rows intact.
//
// The connection is configured with WAL journaling, NORMAL synchronous mode,
// a 5-second busy timeout, and a single writer connection.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect state db: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY during a run.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the record for (sourceCalendarID, sourceEventID), or nil when
// no such event has been mirrored.
func (s *Store) Get(ctx context.Context, sourceCalendarID, sourceEventID string) (*SyncRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT source_calendar_id, source_event_id, target_calendar_id,
		       target_event_id, last_synced_at, last_source_updated_at
		FROM sync_records
		WHERE source_calendar_id = ? AND source_event_id = ?
	`, sourceCalendarID, sourceEventID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync record: %w", err)
	}
	return rec, nil
}

// Upsert inserts or overwrites the record under its primary key. Idempotent.
func (s *Store) Upsert(ctx context.Context, rec SyncRecord) error {
	var sourceUpdated any
	if !rec.LastSourceUpdatedAt.IsZero() {
		sourceUpdated = rec.LastSourceUpdatedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_records
		(source_calendar_id, source_event_id, target_calendar_id,
		 target_event_id, last_synced_at, last_source_updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_calendar_id, source_event_id) DO UPDATE SET
			target_calendar_id     = excluded.target_calendar_id,
			target_event_id        = excluded.target_event_id,
			last_synced_at         = excluded.last_synced_at,
			last_source_updated_at = excluded.last_source_updated_at
	`,
		rec.SourceCalendarID,
		rec.SourceEventID,
		rec.TargetCalendarID,
		rec.TargetEventID,
		rec.LastSyncedAt.UTC().Format(time.RFC3339Nano),
		sourceUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert sync record: %w", err)
	}
	return nil
}

// Delete removes the record for (sourceCalendarID, sourceEventID). Deleting a
// record that does not exist is not an error.
func (s *Store) Delete(ctx context.Context, sourceCalendarID, sourceEventID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sync_records
		WHERE source_calendar_id = ? AND source_event_id = ?
	`, sourceCalendarID, sourceEventID)
	if err != nil {
		return fmt.Errorf("delete sync record: %w", err)
	}
	return nil
}

// FindByTarget returns the record whose mirrored event is targetEventID, or
// nil when that target event is not tracked.
func (s *Store) FindByTarget(ctx context.Context, targetEventID string) (*SyncRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT source_calendar_id, source_event_id, target_calendar_id,
		       target_event_id, last_synced_at, last_source_updated_at
		FROM sync_records
		WHERE target_event_id = ?
	`, targetEventID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by target: %w", err)
	}
	return rec, nil
}

// CountBySource returns the number of records tracked for one source calendar.
func (s *Store) CountBySource(ctx context.Context, sourceCalendarID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sync_records WHERE source_calendar_id = ?
	`, sourceCalendarID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sync records: %w", err)
	}
	return n, nil
}

func scanRecord(row *sql.Row) (*SyncRecord, error) {
	var rec SyncRecord
	var lastSynced string
	var sourceUpdated sql.NullString

	err := row.Scan(
		&rec.SourceCalendarID,
		&rec.SourceEventID,
		&rec.TargetCalendarID,
		&rec.TargetEventID,
		&lastSynced,
		&sourceUpdated,
	)
	if err != nil {
		return nil, err
	}

	rec.LastSyncedAt, err = time.Parse(time.RFC3339Nano, lastSynced)
	if err != nil {
		return nil, fmt.Errorf("parse last_synced_at: %w", err)
	}
	if sourceUpdated.Valid {
		rec.LastSourceUpdatedAt, err = time.Parse(time.RFC3339Nano, sourceUpdated.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_source_updated_at: %w", err)
		}
	}
	return &rec, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		stmt := fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
