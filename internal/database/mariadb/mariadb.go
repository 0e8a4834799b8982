// Package mariadb implements the identity store on MariaDB/MySQL, sharing the
// students table with the on-site attendance deployment. That deployment leaves
// optional columns NULL, so every column except id and full_name is nullable.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/kozaktomas/face-enroll/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS students (
	id           BIGINT AUTO_INCREMENT PRIMARY KEY,
	full_name    VARCHAR(255) NOT NULL,
	code_student VARCHAR(64)  NULL,
	phone        VARCHAR(32)  NULL,
	address      TEXT         NULL,
	email        VARCHAR(255) NULL,
	vector_face  LONGTEXT     NULL,
	status       VARCHAR(32)  NULL DEFAULT 'active',
	created_at   BIGINT       NULL,
	KEY idx_students_full_name (full_name)
) DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NormalizeDSN parses dsn and forces the options the store relies on.
func NormalizeDSN(dsn string) (string, error) {
	if dsn == "" {
		return "", errors.New("MariaDB DSN is required")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MariaDB DSN: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Collation == "" || cfg.Collation == "utf8mb4_general_ci" {
		cfg.Collation = "utf8mb4_unicode_ci"
	}
	return cfg.FormatDSN(), nil
}

// NewPool creates a new MariaDB connection pool.
func NewPool(cfg *config.DatabaseConfig) (*Pool, error) {
	dsn, err := NormalizeDSN(cfg.MySQLDSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Initialize opens a pool and creates the students table if needed.
func Initialize(ctx context.Context, cfg *config.DatabaseConfig) (*Pool, error) {
	pool, err := NewPool(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := pool.db.ExecContext(ctx, schema); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to create students table: %w", err)
	}
	return pool, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}
