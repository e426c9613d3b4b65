// ABOUTME: Shared command environment and storage backend selection
// ABOUTME: Opens the three documents on the JSON or SQLite backend per config
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/pipeline"
)

// Stores holds one document store per persisted document.
type Stores struct {
	Pipeline        db.Store
	OutreachLog     db.Store
	ValidationCache db.Store

	database *sql.DB
}

// OpenStores opens the configured backend. Close releases the SQLite handle
// when there is one.
func OpenStores(cfg *config.Config) (*Stores, error) {
	switch cfg.Backend {
	case config.BackendJSON, "":
		return &Stores{
			Pipeline:        db.NewFileStore(cfg.DocumentPath(config.PipelineDocument)),
			OutreachLog:     db.NewFileStore(cfg.DocumentPath(config.OutreachLogDocument)),
			ValidationCache: db.NewFileStore(cfg.DocumentPath(config.ValidationCacheDocument)),
		}, nil
	case config.BackendSQLite:
		database, err := db.OpenDatabase(cfg.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return &Stores{
			Pipeline:        db.NewSQLiteStore(database, config.PipelineDocument),
			OutreachLog:     db.NewSQLiteStore(database, config.OutreachLogDocument),
			ValidationCache: db.NewSQLiteStore(database, config.ValidationCacheDocument),
			database:        database,
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (valid: %s, %s)", cfg.Backend, config.BackendJSON, config.BackendSQLite)
	}
}

func (s *Stores) Close() error {
	if s.database == nil {
		return nil
	}
	return s.database.Close()
}

// Env is what every command gets: configuration, storage, a logger, and
// somewhere to print.
type Env struct {
	Config *config.Config
	Stores *Stores
	Logger *zap.Logger
	Out    io.Writer
}

// NewEnv fills in a no-op logger and stdout when they are not given.
func NewEnv(cfg *config.Config, stores *Stores, logger *zap.Logger) *Env {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Env{Config: cfg, Stores: stores, Logger: logger, Out: os.Stdout}
}

// Tracker returns a pipeline tracker over the pipeline document.
func (e *Env) Tracker() *pipeline.Tracker {
	return pipeline.NewTracker(e.Stores.Pipeline, e.Config.Pipeline)
}

func (e *Env) printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}
