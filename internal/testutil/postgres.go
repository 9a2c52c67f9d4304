// Package testutil provides test helpers for integration tests that need a
// real PostgreSQL instance.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/partygames/mafia/internal/config"
	"github.com/partygames/mafia/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container. The test is
// skipped when no container provider is available.
//
// Postcondition: Returns a running container accepting connections,
// or fails or skips the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{
		container: container,
		Config:    dbCfg,
	}

	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	return pc
}

// ApplyMigrations runs the embedded schema migrations against the container.
//
// Precondition: The container must be running.
// Postcondition: The players table exists in the test database.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	start := time.Now()
	res, err := postgres.Migrate(pc.DSN(), "up", 0)
	if err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	t.Logf("migrations applied to version %d [%s]", res.Version, time.Since(start))
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return pc.Config.DSN()
}

// RunContainer is a convenience used by package tests: it starts a container,
// applies migrations and opens a stats store closed at cleanup.
func RunContainer(t *testing.T) *postgres.Store {
	t.Helper()
	pc := NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	store, err := postgres.Open(context.Background(), pc.Config)
	if err != nil {
		t.Fatalf("opening stats store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

// UniqueName returns a name unlikely to collide across test runs.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}
