// ABOUTME: Opens the SQLite document database used by the sqlite backend
// ABOUTME: One table holds every persisted document as a JSON row keyed by name
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// documentsSchema stores the pipeline, outreach log, and validation cache
// side by side. Saves replace the whole body of one row.
const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// OpenDatabase opens (creating if needed) the document database at path in
// WAL mode with a single connection.
func OpenDatabase(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	database, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	database.SetMaxOpenConns(1)

	if err := InitSchema(database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize documents table: %w", err)
	}
	return database, nil
}

// InitSchema creates the documents table; running it again is harmless.
func InitSchema(database *sql.DB) error {
	_, err := database.Exec(documentsSchema)
	return err
}
