package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	_ "github.com/mattn/go-sqlite3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SQLiteJournal appends circulation events to a SQLite database.
type SQLiteJournal struct {
	db *sql.DB

	insertStmt *sql.Stmt
}

// NewSQLiteJournal opens (or creates) the journal database at dbPath, applies
// schema migrations, and prepares the insert statement.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	j := &SQLiteJournal{db: db}
	if j.insertStmt, err = db.Prepare(`INSERT INTO events(id,type,isbn,member_id,occurred_at,payload) VALUES(?,?,?,?,?,?)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	return j, nil
}

// Close releases the prepared statement and closes the DB.
func (j *SQLiteJournal) Close() error {
	if j.insertStmt != nil {
		j.insertStmt.Close()
	}
	return j.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            type TEXT NOT NULL,
            isbn TEXT NOT NULL DEFAULT '',
            member_id TEXT NOT NULL DEFAULT '',
            occurred_at DATETIME NOT NULL,
            payload TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_events_member ON events(member_id);`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// Record implements Journal.
func (j *SQLiteJournal) Record(e Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", e.Type, err)
	}
	if _, err := j.insertStmt.Exec(e.ID, string(e.Type), e.ISBN, e.MemberID, e.OccurredAt.UTC(), string(payload)); err != nil {
		return fmt.Errorf("insert %s event: %w", e.Type, err)
	}
	return nil
}

// Events returns the whole history in the order it was recorded.
func (j *SQLiteJournal) Events() ([]Event, error) {
	return j.query(`SELECT id,type,isbn,member_id,occurred_at,payload FROM events ORDER BY seq`)
}

// EventsForMember returns the history of one member in recording order.
func (j *SQLiteJournal) EventsForMember(memberID string) ([]Event, error) {
	return j.query(`SELECT id,type,isbn,member_id,occurred_at,payload FROM events WHERE member_id=? ORDER BY seq`, memberID)
}

func (j *SQLiteJournal) query(q string, args ...any) ([]Event, error) {
	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			typ     string
			at      time.Time
			payload string
		)
		if err := rows.Scan(&e.ID, &typ, &e.ISBN, &e.MemberID, &at, &payload); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		e.OccurredAt = at
		if err := json.UnmarshalFromString(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", typ, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
