// Package sqlite implements the local identity cache read by on-site devices.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kozaktomas/face-enroll/internal/database"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS students (
	id          INTEGER PRIMARY KEY,
	full_name   TEXT NOT NULL,
	vector_face TEXT
)`

// Cache is a SQLite-backed database.CacheWriter.
type Cache struct {
	db *sql.DB
	mu sync.Mutex // serializes ReplaceAll within the process
}

var _ database.CacheWriter = (*Cache)(nil)

// Open opens (creating if needed) the cache file at path and ensures the schema exists.
// The database runs in WAL mode so readers keep seeing the old snapshot while a
// replacement is being written.
func Open(path string) (*Cache, error) {
	if path == "" {
		return nil, errors.New("cache path is required")
	}

	dsn := "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create students table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("closing cache: %w", err)
	}
	return nil
}

// ReplaceAll deletes every cached identity and inserts identities in a single transaction.
// On any error the transaction is rolled back and the previous snapshot stays in place.
func (c *Cache) ReplaceAll(ctx context.Context, identities []database.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM students"); err != nil {
		return fmt.Errorf("delete cached identities: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO students (id, full_name, vector_face) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range identities {
		ident := &identities[i]
		vec, err := database.EncodeVector(ident.VectorFace)
		if err != nil {
			return fmt.Errorf("encode vector for identity %d: %w", ident.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, ident.ID, ident.FullName, vec); err != nil {
			return fmt.Errorf("insert identity %d: %w", ident.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// List returns the whole snapshot ordered by ID.
func (c *Cache) List(ctx context.Context) ([]database.Identity, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT id, full_name, vector_face FROM students ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query cached identities: %w", err)
	}
	defer rows.Close()

	var result []database.Identity
	for rows.Next() {
		var ident database.Identity
		var vec sql.NullString
		if err := rows.Scan(&ident.ID, &ident.FullName, &vec); err != nil {
			return nil, fmt.Errorf("scan cached identity: %w", err)
		}
		ident.VectorFace, err = database.DecodeNullVector(vec)
		if err != nil {
			return nil, fmt.Errorf("identity %d: %w", ident.ID, err)
		}
		result = append(result, ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached identities: %w", err)
	}
	return result, nil
}

// Count returns the number of cached identities.
func (c *Cache) Count(ctx context.Context) (int, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("count cached identities: %w", err)
	}
	return count, nil
}

// FindByName matches on normalized names. SQLite has no unaccent, so the
// comparison happens in Go over one consistent snapshot.
func (c *Cache) FindByName(ctx context.Context, name string) ([]database.Identity, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	query := database.NormalizeName(name)
	var result []database.Identity
	for _, ident := range all {
		if strings.Contains(database.NormalizeName(ident.FullName), query) {
			result = append(result, ident)
		}
	}
	return result, nil
}
