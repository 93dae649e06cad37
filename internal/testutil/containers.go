// Package testutil starts the throwaway containers used by integration tests.
package testutil

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

// ContainerTestsEnv must be "1" for container-backed tests to run.
const ContainerTestsEnv = "SHOPAUTH_CONTAINER_TESTS"

// RequireContainers skips t unless container tests are enabled.
func RequireContainers(t *testing.T) {
	t.Helper()
	if os.Getenv(ContainerTestsEnv) != "1" {
		t.Skipf("set %s=1 to run container-backed tests", ContainerTestsEnv)
	}
}

// StartPostgres runs a disposable PostgreSQL and returns its connection URL.
func StartPostgres(t *testing.T) string {
	t.Helper()
	RequireContainers(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "shopauth",
				"POSTGRES_PASSWORD": "shopauth",
				"POSTGRES_DB":       "shopauth",
			},
			// Postgres restarts once after initdb.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://shopauth:shopauth@%s:%s/shopauth?sslmode=disable", host, port.Port())
}

// StartRedis runs a disposable Redis and returns its address.
func StartRedis(t *testing.T) string {
	t.Helper()
	RequireContainers(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}
