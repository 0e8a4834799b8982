package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kozaktomas/face-enroll/internal/database"
)

const studentColumns = `id, full_name, code_student, phone, address, email, vector_face, status, created_at`

// IdentityRepository stores identities in the students table.
type IdentityRepository struct {
	pool *Pool
}

var _ database.IdentityWriter = (*IdentityRepository)(nil)

// NewIdentityRepository creates a new MariaDB identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// Get retrieves an identity by ID, returns nil if not found.
func (r *IdentityRepository) Get(ctx context.Context, id int64) (*database.Identity, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	ident, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity %d: %w", id, err)
	}
	return ident, nil
}

// SearchByName returns identities whose full name contains name. The unicode
// collation makes the match case and accent insensitive.
func (r *IdentityRepository) SearchByName(ctx context.Context, name string) ([]database.Identity, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(name)) + "%"
	rows, err := r.pool.db.QueryContext(ctx, `SELECT `+studentColumns+` FROM students WHERE full_name LIKE ? ORDER BY id`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search identities: %w", err)
	}
	defer rows.Close()
	return scanIdentities(rows)
}

// List returns every identity ordered by ID.
func (r *IdentityRepository) List(ctx context.Context) ([]database.Identity, error) {
	rows, err := r.pool.db.QueryContext(ctx, `SELECT `+studentColumns+` FROM students ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()
	return scanIdentities(rows)
}

// Ping checks the connection.
func (r *IdentityRepository) Ping(ctx context.Context) error {
	if err := r.pool.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping MariaDB: %w", err)
	}
	return nil
}

// Create inserts a new identity and returns its ID.
func (r *IdentityRepository) Create(ctx context.Context, ident *database.Identity) (int64, error) {
	encoded, err := database.EncodeVector(ident.VectorFace)
	if err != nil {
		return 0, err
	}

	status := ident.Status
	if status == "" {
		status = database.StatusActive
	}
	createdAt := ident.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	result, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO students (full_name, code_student, phone, address, email, vector_face, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ident.FullName, ident.CodeStudent, ident.Phone, ident.Address, ident.Email, encoded, status, createdAt)
	if err != nil {
		return 0, fmt.Errorf("insert identity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// UpdateVector replaces the face vector of an identity and returns the number of rows changed.
// MySQL reports 0 affected rows when the value is unchanged, so existence is checked first
// and an existing row always counts as one.
func (r *IdentityRepository) UpdateVector(ctx context.Context, id int64, vector []float32) (int64, error) {
	encoded, err := database.EncodeVector(vector)
	if err != nil {
		return 0, err
	}

	var exists int
	err = r.pool.db.QueryRowContext(ctx, `SELECT 1 FROM students WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("check identity %d: %w", id, err)
	}

	if _, err := r.pool.db.ExecContext(ctx, `UPDATE students SET vector_face = ? WHERE id = ?`, encoded, id); err != nil {
		return 0, fmt.Errorf("update vector for identity %d: %w", id, err)
	}
	return 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanIdentity reads one students row. Rows written by older deployments
// leave the optional columns NULL; those read as empty values.
func scanIdentity(row rowScanner) (*database.Identity, error) {
	var ident database.Identity
	var code, phone, address, email, encoded, status sql.NullString
	var createdAt sql.NullInt64

	err := row.Scan(&ident.ID, &ident.FullName, &code, &phone, &address,
		&email, &encoded, &status, &createdAt)
	if err != nil {
		return nil, err
	}
	ident.CodeStudent = code.String
	ident.Phone = phone.String
	ident.Address = address.String
	ident.Email = email.String
	ident.Status = status.String
	ident.CreatedAt = createdAt.Int64

	ident.VectorFace, err = database.DecodeNullVector(encoded)
	if err != nil {
		return nil, fmt.Errorf("identity %d: %w", ident.ID, err)
	}
	return &ident, nil
}

func scanIdentities(rows *sql.Rows) ([]database.Identity, error) {
	var result []database.Identity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		result = append(result, *ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return result, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
