package mariadb

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name          string
		dsn           string
		wantCollation string
		wantErr       bool
	}{
		{"plain", "root:secret@tcp(db:3306)/attendance", "utf8mb4_unicode_ci", false},
		{"general collation upgraded", "root@tcp(db:3306)/attendance?collation=utf8mb4_general_ci", "utf8mb4_unicode_ci", false},
		{"explicit collation kept", "root@tcp(db:3306)/attendance?collation=utf8mb4_vietnamese_ci", "utf8mb4_vietnamese_ci", false},
		{"empty", "", "", true},
		{"garbage", "not a dsn", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDSN(tt.dsn)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			cfg, err := mysql.ParseDSN(got)
			if err != nil {
				t.Fatalf("normalized DSN does not parse: %v", err)
			}
			if !cfg.ParseTime {
				t.Error("expected parseTime to be enabled")
			}
			if cfg.Collation != tt.wantCollation {
				t.Errorf("collation = %q, want %q", cfg.Collation, tt.wantCollation)
			}
			if cfg.DBName != "attendance" {
				t.Errorf("database name lost: %q", cfg.DBName)
			}
		})
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike("50%_off"); got != `50\%\_off` {
		t.Errorf("escapeLike = %q", got)
	}
}

// fakeRow hands column values to Scan the way database/sql does for the
// destination types scanIdentity uses. A NULL into a plain string fails.
type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch d := d.(type) {
		case sql.Scanner:
			if err := d.Scan(r[i]); err != nil {
				return err
			}
		case *int64:
			v, ok := r[i].(int64)
			if !ok {
				return errors.New("converting NULL to int64 is unsupported")
			}
			*d = v
		case *string:
			v, ok := r[i].(string)
			if !ok {
				return errors.New("converting NULL to string is unsupported")
			}
			*d = v
		default:
			return errors.New("unsupported destination")
		}
	}
	return nil
}

func TestScanIdentity_NullOptionalColumns(t *testing.T) {
	row := fakeRow{int64(7), "Trần Mạnh", nil, nil, nil, nil, nil, nil, nil}

	ident, err := scanIdentity(row)
	if err != nil {
		t.Fatalf("scanIdentity: %v", err)
	}
	if ident.ID != 7 || ident.FullName != "Trần Mạnh" {
		t.Errorf("unexpected identity %+v", ident)
	}
	if ident.CodeStudent != "" || ident.Phone != "" || ident.Address != "" || ident.Email != "" || ident.Status != "" {
		t.Errorf("expected empty optional fields, got %+v", ident)
	}
	if ident.CreatedAt != 0 || ident.VectorFace != nil {
		t.Errorf("expected zero created_at and nil vector, got %+v", ident)
	}
}

func TestScanIdentity_AllColumns(t *testing.T) {
	row := fakeRow{int64(8), "Lan", "SV01", "0901", "Hà Nội", "lan@example.com", nil, "active", int64(1700000000)}

	ident, err := scanIdentity(row)
	if err != nil {
		t.Fatalf("scanIdentity: %v", err)
	}
	if ident.CodeStudent != "SV01" || ident.Phone != "0901" || ident.Address != "Hà Nội" ||
		ident.Email != "lan@example.com" || ident.Status != "active" || ident.CreatedAt != 1700000000 {
		t.Errorf("unexpected identity %+v", ident)
	}
}
