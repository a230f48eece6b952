// Package testutil starts the throwaway Postgres and S3 containers used by
// integration and e2e tests.
package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/sevakai/migrations"
	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16-alpine"
	postgresUser  = "sevak"
	postgresPass  = "sevak"
	postgresDB    = "sevakai"

	rustfsImage = "rustfs/rustfs:latest"
	// S3AccessKey and S3SecretKey are the credentials of the RustFS container.
	S3AccessKey = "rustfsadmin"
	S3SecretKey = "rustfsadmin"
)

// Tables lists every application table, children first.
var Tables = []string{"chat_events", "newsletter_subscribers"}

// started is a running container and its mapped address.
type started struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

// Terminate stops and removes the container. Calling it twice is harmless.
func (s *started) Terminate(ctx context.Context) error {
	if s.Container == nil {
		return nil
	}
	err := testcontainers.TerminateContainer(s.Container)
	s.Container = nil
	return err
}

func start(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest, port string) started {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start %s: %v", req.Image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get %s host: %v", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("failed to get %s port: %v", req.Image, err)
	}

	return started{Container: container, Host: host, Port: mapped.Port()}
}

// PostgresContainer is a disposable Postgres 16 instance.
type PostgresContainer struct {
	started
	User     string
	Password string
	Database string
}

// NewPostgresContainer starts Postgres and waits for it to accept connections.
// The container is removed when the test ends even if Terminate is never called.
func NewPostgresContainer(ctx context.Context, t *testing.T) *PostgresContainer {
	t.Helper()

	pc := &PostgresContainer{
		started: start(ctx, t, testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     postgresUser,
				"POSTGRES_PASSWORD": postgresPass,
				"POSTGRES_DB":       postgresDB,
			},
			// Postgres logs readiness once for the init server and once for the real one.
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithStartupTimeout(60 * time.Second),
		}, "5432"),
		User:     postgresUser,
		Password: postgresPass,
		Database: postgresDB,
	}
	t.Cleanup(func() { _ = pc.Terminate(context.Background()) })
	return pc
}

// ConnectionString returns a pgx/libpq URL for the container.
func (pc *PostgresContainer) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		pc.User, pc.Password, pc.Host, pc.Port, pc.Database)
}

// RustFSContainer is a disposable S3-compatible object store.
type RustFSContainer struct {
	started
}

// NewRustFSContainer starts RustFS with the S3AccessKey/S3SecretKey credentials.
func NewRustFSContainer(ctx context.Context, t *testing.T) *RustFSContainer {
	t.Helper()

	rc := &RustFSContainer{
		started: start(ctx, t, testcontainers.ContainerRequest{
			Image:        rustfsImage,
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"RUSTFS_ACCESS_KEY": S3AccessKey,
				"RUSTFS_SECRET_KEY": S3SecretKey,
			},
			WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(30 * time.Second),
		}, "9000"),
	}
	t.Cleanup(func() { _ = rc.Terminate(context.Background()) })
	return rc
}

// Endpoint returns the S3 endpoint URL.
func (rc *RustFSContainer) Endpoint() string {
	return fmt.Sprintf("http://%s:%s", rc.Host, rc.Port)
}

// NewTestPool connects to pc, retrying while Postgres finishes booting, and
// applies the embedded migrations. The pool is closed when the test ends.
func NewTestPool(ctx context.Context, t *testing.T, pc *PostgresContainer) *pgxpool.Pool {
	t.Helper()

	var (
		pool *pgxpool.Pool
		err  error
	)
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = pgxpool.New(ctx, pc.ConnectionString())
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := ApplyMigrations(ctx, pool); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	return pool
}

// ApplyMigrations executes the embedded *.up.sql files in version order.
// It is a plain-SQL runner: the golang-migrate path is covered by the database package.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	names, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("migration %s: %w", strings.TrimSuffix(path.Base(name), ".up.sql"), err)
		}
	}
	return nil
}

// TruncateAll empties every application table.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "TRUNCATE TABLE "+strings.Join(Tables, ", ")+" CASCADE"); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}
