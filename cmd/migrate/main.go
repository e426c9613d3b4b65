// ABOUTME: Migration utility for moving JSON documents into the SQLite backend.
// ABOUTME: Provides dry-run and backup capabilities for safe migration.

package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/db"
)

var documents = []string{
	config.PipelineDocument,
	config.OutreachLogDocument,
	config.ValidationCacheDocument,
}

func main() {
	dataDir := flag.String("data-dir", "", "Data directory holding the JSON documents (default from config)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup of an existing database before migration")
	force := flag.Bool("force", false, "Overwrite documents already present in the database")
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	if err := migrate(cfg, *dryRun, *backup, *force); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func migrate(cfg *config.Config, dryRun, createBackup, force bool) error {
	dbPath := cfg.SQLitePath()

	if _, err := os.Stat(dbPath); err == nil && createBackup && !dryRun {
		backupPath := fmt.Sprintf("%s.backup.%s", dbPath, time.Now().Format("20060102-150405"))
		log.Printf("Creating backup: %s", backupPath)

		input, err := os.ReadFile(dbPath)
		if err != nil {
			return fmt.Errorf("failed to read database: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0644); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		log.Printf("Backup created successfully")
	}

	var database *sql.DB
	var existing map[string]bool
	if !dryRun {
		var err error
		database, err = db.OpenDatabase(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = database.Close() }()

		names, err := db.ListDocuments(database)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		existing = make(map[string]bool, len(names))
		for _, n := range names {
			existing[n] = true
		}
	}

	migrated := 0
	for _, name := range documents {
		src := db.NewFileStore(cfg.DocumentPath(name))

		var doc json.RawMessage
		found, err := src.Load(&doc)
		if err != nil {
			return err
		}
		if !found {
			log.Printf("Skipping %s: no JSON document at %s", name, src.Name())
			continue
		}

		if dryRun {
			log.Printf("[dry-run] Would copy %s (%d bytes) into %s", src.Name(), len(doc), dbPath)
			continue
		}

		if existing[name] && !force {
			log.Printf("Skipping %s: already in database (use -force to overwrite)", name)
			continue
		}

		if err := db.NewSQLiteStore(database, name).Save(doc); err != nil {
			return err
		}
		log.Printf("Copied %s into %s", src.Name(), dbPath)
		migrated++
	}

	if !dryRun {
		log.Printf("Migrated %d documents. Run with --backend sqlite (or PROSPECT_BACKEND=sqlite) to use them.", migrated)
	}
	return nil
}
