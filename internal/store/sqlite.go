package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"handsfree/internal/state"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL CHECK(length(trim(name)) > 0),
    phone      TEXT,
    email      TEXT,
    details    TEXT,
    status     TEXT NOT NULL CHECK(status IN ('online','offline')) DEFAULT 'offline'
);

CREATE TABLE IF NOT EXISTS confirmations (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         TEXT NOT NULL UNIQUE,
    type       TEXT NOT NULL DEFAULT '',
    name       TEXT NOT NULL DEFAULT '',
    number     TEXT NOT NULL CHECK(length(number) > 0),
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transcript (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         TEXT NOT NULL,
    text       TEXT NOT NULL,
    origin     TEXT NOT NULL CHECK(origin IN ('user','system','model')),
    created_at TEXT NOT NULL
);
`

// SQLite persists to a single database file. Rows come back in insertion order.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and initializes the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) AddContact(ctx context.Context, c state.Contact) error {
	if err := validateContact(c); err != nil {
		return err
	}
	if c.Status == "" {
		c.Status = state.StatusOffline
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, name, phone, email, details, status) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, nullString(c.Phone), nullString(c.Email), nullString(c.Details), string(c.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	return nil
}

func (s *SQLite) AddConfirmation(ctx context.Context, c state.Confirmation) error {
	if err := validateConfirmation(c); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO confirmations (id, type, name, number, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Type, c.Name, c.Number, c.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to insert confirmation: %w", err)
	}
	return nil
}

func (s *SQLite) AppendTranscript(ctx context.Context, e state.TranscriptEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcript (id, text, origin, created_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.Text, string(e.Origin), e.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append transcript: %w", err)
	}
	return nil
}

func (s *SQLite) Contacts(ctx context.Context) ([]state.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(details, ''), status
		FROM contacts
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var results []state.Contact
	for rows.Next() {
		var c state.Contact
		var status string
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Details, &status); err != nil {
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		c.Status = state.ContactStatus(status)
		results = append(results, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact rows: %w", err)
	}
	return results, nil
}

func (s *SQLite) Confirmations(ctx context.Context) ([]state.Confirmation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, name, number, created_at
		FROM confirmations
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmations: %w", err)
	}
	defer rows.Close()

	var results []state.Confirmation
	for rows.Next() {
		var c state.Confirmation
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Type, &c.Name, &c.Number, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan confirmation row: %w", err)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		results = append(results, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating confirmation rows: %w", err)
	}
	return results, nil
}

func (s *SQLite) Transcript(ctx context.Context) ([]state.TranscriptEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, origin, created_at
		FROM transcript
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcript: %w", err)
	}
	defer rows.Close()

	var results []state.TranscriptEntry
	for rows.Next() {
		var e state.TranscriptEntry
		var origin, createdAt string
		if err := rows.Scan(&e.ID, &e.Text, &origin, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transcript row: %w", err)
		}
		e.Origin = state.Origin(origin)
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transcript rows: %w", err)
	}
	return results, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
