// ABOUTME: SQLite-backed document store
// ABOUTME: Persists each named document as one JSON row in the documents table
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type SQLiteStore struct {
	db   *sql.DB
	name string
}

// NewSQLiteStore returns a store for the named document in database.
// The database must have been opened with OpenDatabase.
func NewSQLiteStore(database *sql.DB, name string) *SQLiteStore {
	return &SQLiteStore{db: database, name: name}
}

func (s *SQLiteStore) Name() string {
	return "sqlite:" + s.name
}

func (s *SQLiteStore) Load(v any) (bool, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM documents WHERE name = ?`, s.name).Scan(&body)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load document %s: %w", s.name, err)
	}

	if err := json.Unmarshal([]byte(body), v); err != nil {
		return false, fmt.Errorf("failed to decode document %s: %w", s.name, err)
	}
	return true, nil
}

func (s *SQLiteStore) Save(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", s.name, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO documents (name, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, s.name, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", s.name, err)
	}
	return nil
}

// ListDocuments returns the names of all stored documents.
func ListDocuments(database *sql.DB) ([]string, error) {
	rows, err := database.Query(`SELECT name FROM documents ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
