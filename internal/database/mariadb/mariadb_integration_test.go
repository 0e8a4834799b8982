//go:build integration

package mariadb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kozaktomas/face-enroll/internal/config"
	"github.com/kozaktomas/face-enroll/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mariadb:11",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MARIADB_ROOT_PASSWORD": "test",
			"MARIADB_DATABASE":      "testdb",
		},
		WaitingFor: wait.ForListeningPort("3306/tcp").WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		MySQLDSN:     fmt.Sprintf("root:test@tcp(%s:%s)/testdb", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	// The port opens before the server accepts logins on first boot.
	var pool *Pool
	for range 30 {
		pool, err = Initialize(ctx, cfg)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to initialize pool: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}
	return pool, cleanup
}

func TestIdentityRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(pool)

	id, err := repo.Create(ctx, &database.Identity{FullName: "Trần Mạnh", VectorFace: []float32{0.1, 0.2}})
	if err != nil {
		t.Fatalf("Failed to create identity: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("Failed to get identity: %v", err)
	}
	if len(got.VectorFace) != 2 || got.VectorFace[1] != 0.2 {
		t.Errorf("Vector not preserved: %v", got.VectorFace)
	}

	found, err := repo.SearchByName(ctx, "tran")
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("Expected accent-insensitive match, got %d", len(found))
	}

	// Same value twice still reports the row.
	for range 2 {
		n, err := repo.UpdateVector(ctx, id, []float32{1, 2, 3})
		if err != nil {
			t.Fatalf("Failed to update vector: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 row, got %d", n)
		}
	}

	n, err := repo.UpdateVector(ctx, id+1000, []float32{1})
	if err != nil {
		t.Fatalf("Failed to update missing identity: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 rows for missing identity, got %d", n)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(all) != 1 || len(all[0].VectorFace) != 3 {
		t.Errorf("Unexpected list result: %+v", all)
	}
}

func TestIdentityRepository_NullOptionalColumns(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	res, err := pool.db.ExecContext(ctx, `INSERT INTO students (full_name, code_student, phone, address, email, vector_face, status, created_at)
		VALUES ('Legacy Row', NULL, NULL, NULL, NULL, NULL, NULL, NULL)`)
	if err != nil {
		t.Fatalf("Failed to seed legacy row: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to get insert id: %v", err)
	}

	repo := NewIdentityRepository(pool)

	got, err := repo.Get(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("Failed to get legacy row: %v", err)
	}
	if got.FullName != "Legacy Row" || got.Phone != "" || got.VectorFace != nil {
		t.Errorf("Unexpected identity: %+v", got)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 identity, got %d", len(all))
	}

	found, err := repo.SearchByName(ctx, "legacy")
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("Expected 1 match, got %d", len(found))
	}
}
