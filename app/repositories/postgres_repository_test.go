package repositories

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// postgresDSN returns BLOGAPI_TEST_POSTGRES_DSN when set, otherwise starts a
// throwaway postgres container. Tests skip when neither is available.
func postgresDSN(t *testing.T) string {
	if dsn := os.Getenv("BLOGAPI_TEST_POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	if testing.Short() {
		t.Skip("postgres tests need docker; skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "blog",
			"POSTGRES_PASSWORD": "blog",
			"POSTGRES_DB":       "comments",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://blog:blog@%s:%s/comments?sslmode=disable", host, port.Port())
}

func TestPostgresCommentRepository(t *testing.T) {
	dsn := postgresDSN(t)

	testCommentRepository(t, func(t *testing.T) CommentRepository {
		ctx := context.Background()
		repo, err := NewPostgresCommentRepository(ctx, dsn)
		require.NoError(t, err)
		_, err = repo.pool.Exec(ctx, `TRUNCATE comments`)
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}
