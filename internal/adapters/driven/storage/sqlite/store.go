// Package sqlite persists dead letters in a local SQLite database so
// failed evaluator deliveries survive process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
)

// Ensure Store implements the dead letter store port.
var _ driven.DeadLetterStore = (*Store)(nil)

// Store is a SQLite-backed dead letter store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database at the given path. An empty
// path defaults to aideployer.db in the working directory.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = domain.DefaultStorePath
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_dead_letters.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Save records a failed delivery. Saving an existing ID updates it.
func (s *Store) Save(ctx context.Context, letter domain.DeadLetter) error {
	if letter.CreatedAt.IsZero() {
		letter.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dead_letters (id, endpoint, payload, attempts, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			endpoint = excluded.endpoint,
			payload = excluded.payload,
			attempts = excluded.attempts,
			last_error = excluded.last_error
	`, letter.ID, letter.Endpoint, letter.Payload, letter.Attempts, letter.LastError, letter.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving dead letter: %w", err)
	}
	return nil
}

// List returns all recorded entries, newest first.
func (s *Store) List(ctx context.Context) ([]domain.DeadLetter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, endpoint, payload, attempts, last_error, created_at
		FROM dead_letters
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing dead letters: %w", err)
	}
	defer rows.Close()

	var letters []domain.DeadLetter
	for rows.Next() {
		var letter domain.DeadLetter
		var createdAt sql.NullTime
		if err := rows.Scan(&letter.ID, &letter.Endpoint, &letter.Payload,
			&letter.Attempts, &letter.LastError, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning dead letter: %w", err)
		}
		if createdAt.Valid {
			letter.CreatedAt = createdAt.Time
		}
		letters = append(letters, letter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dead letters: %w", err)
	}

	return letters, nil
}

// Get fetches one entry by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.DeadLetter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, endpoint, payload, attempts, last_error, created_at
		FROM dead_letters WHERE id = ?
	`, id)

	var letter domain.DeadLetter
	var createdAt sql.NullTime
	if err := row.Scan(&letter.ID, &letter.Endpoint, &letter.Payload,
		&letter.Attempts, &letter.LastError, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning dead letter: %w", err)
	}
	if createdAt.Valid {
		letter.CreatedAt = createdAt.Time
	}

	return &letter, nil
}

// Delete removes an entry by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM dead_letters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting dead letter: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
