package testutil

import (
	"context"
	"net"
	"os/exec"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/nkiryanov/socialfeed/internal/db"
)

// Tables created by migrations, children first
var feedTables = []string{"posts", "users"}

// Return random free port on 127.0.0.1 address
func RandomPort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return 0, err
	}
	defer ln.Close() // nolint:errcheck

	return ln.Addr().(*net.TCPAddr).Port, nil
}

// Migrated feed database running in docker
type PostgresContainer struct {
	DSN       string
	Pool      *pgxpool.Pool
	Terminate func()
}

// Start postgres with feed schema applied. The test fails if docker is not running.
// Terminate must be called when tests are done
func StartPostgresContainer(t *testing.T) PostgresContainer {
	t.Helper()

	out, err := exec.Command("docker", "info", "--format", "{{.ServerVersion}}").CombinedOutput()
	if err != nil {
		t.Fatalf("feed tests need a running docker. Err: %s", strings.TrimSpace(string(out)))
	}

	container, err := postgres.Run(t.Context(),
		"postgres:17-alpine",
		postgres.WithDatabase("socialfeed-test"),
		postgres.WithUsername("socialfeed"),
		postgres.WithPassword("pwd"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "postgres container not started")

	dsn, err := container.ConnectionString(t.Context(), "sslmode=disable")
	require.NoError(t, err, "no connection string for postgres container")

	pool, err := db.ConnectAndMigrate(t.Context(), dsn)
	require.NoError(t, err, "feed schema not applied")
	t.Logf("feed database ready, DSN=%v", dsn)

	return PostgresContainer{
		DSN:  dsn,
		Pool: pool,
		Terminate: func() {
			pool.Close()
			testcontainers.CleanupContainer(t, container)
		},
	}
}

type beginner interface {
	Begin(context.Context) (pgx.Tx, error)
}

// Run fn in a transaction rolled back when fn returns, so nothing it writes is seen by other tests.
// Passing pgx.Tx as db nests the call in a savepoint
func InTx(db beginner, t *testing.T, fn func(tx pgx.Tx)) {
	t.Helper()

	tx, err := db.Begin(t.Context())
	require.NoError(t, err, "transaction not started")

	defer func() {
		require.NoError(t, tx.Rollback(context.Background()), "transaction not rolled back")
	}()

	fn(tx)
}

// Empty feed tables when the test ends.
// For tests that must commit, e.g. concurrent writers each holding own connection
func TruncateOnCleanup(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	t.Cleanup(func() {
		_, err := pool.Exec(context.Background(), "TRUNCATE "+strings.Join(feedTables, ", "))
		require.NoError(t, err, "feed tables not truncated")
	})
}
