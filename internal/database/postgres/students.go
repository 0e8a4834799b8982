package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kozaktomas/face-enroll/internal/database"
	"github.com/pgvector/pgvector-go"
)

const studentColumns = `id, full_name, code_student, phone, address, email, vector_face, face_embedding::text, status, created_at`

// IdentityRepository stores identities in the students table.
// vector_face keeps the portable base64 encoding; face_embedding mirrors it as a pgvector column.
type IdentityRepository struct {
	pool *Pool
}

var _ database.IdentityWriter = (*IdentityRepository)(nil)

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// Get retrieves an identity by ID, returns nil if not found.
func (r *IdentityRepository) Get(ctx context.Context, id int64) (*database.Identity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)

	ident, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity %d: %w", id, err)
	}
	return ident, nil
}

// SearchByName returns identities whose full name contains name, case-insensitively.
func (r *IdentityRepository) SearchByName(ctx context.Context, name string) ([]database.Identity, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(name)) + "%"
	rows, err := r.pool.Query(ctx, `SELECT `+studentColumns+` FROM students WHERE full_name ILIKE $1 ORDER BY id`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search identities: %w", err)
	}
	defer rows.Close()
	return scanIdentities(rows)
}

// List returns every identity ordered by ID.
func (r *IdentityRepository) List(ctx context.Context) ([]database.Identity, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+studentColumns+` FROM students ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()
	return scanIdentities(rows)
}

// Ping checks the connection.
func (r *IdentityRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Create inserts a new identity and returns its ID.
func (r *IdentityRepository) Create(ctx context.Context, ident *database.Identity) (int64, error) {
	encoded, mirror, err := vectorColumns(ident.VectorFace)
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

	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO students (full_name, code_student, phone, address, email, vector_face, face_embedding, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, ident.FullName, ident.CodeStudent, ident.Phone, ident.Address, ident.Email,
		encoded, mirror, status, createdAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert identity: %w", err)
	}
	return id, nil
}

// UpdateVector replaces the face vector of an identity and returns the number of rows changed.
func (r *IdentityRepository) UpdateVector(ctx context.Context, id int64, vector []float32) (int64, error) {
	encoded, mirror, err := vectorColumns(vector)
	if err != nil {
		return 0, err
	}

	result, err := r.pool.Exec(ctx, `UPDATE students SET vector_face = $1, face_embedding = $2 WHERE id = $3`, encoded, mirror, id)
	if err != nil {
		return 0, fmt.Errorf("update vector for identity %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// vectorColumns returns the values for vector_face and face_embedding. Both are NULL for an empty vector.
func vectorColumns(vector []float32) (sql.NullString, any, error) {
	encoded, err := database.EncodeVector(vector)
	if err != nil {
		return sql.NullString{}, nil, err
	}
	if !encoded.Valid {
		return encoded, nil, nil
	}
	return encoded, pgvector.NewVector(vector), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*database.Identity, error) {
	var ident database.Identity
	var encoded, mirror sql.NullString

	err := row.Scan(&ident.ID, &ident.FullName, &ident.CodeStudent, &ident.Phone, &ident.Address,
		&ident.Email, &encoded, &mirror, &ident.Status, &ident.CreatedAt)
	if err != nil {
		return nil, err
	}

	ident.VectorFace, err = decodeVectorColumns(encoded, mirror)
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

// decodeVectorColumns prefers vector_face and falls back to the pgvector mirror
// when vector_face is missing or unreadable.
func decodeVectorColumns(encoded, mirror sql.NullString) ([]float32, error) {
	vec, err := database.DecodeNullVector(encoded)
	if err == nil && vec != nil {
		return vec, nil
	}
	if mirror.Valid {
		var v pgvector.Vector
		if scanErr := v.Scan(mirror.String); scanErr == nil {
			return v.Slice(), nil
		}
	}
	return vec, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
