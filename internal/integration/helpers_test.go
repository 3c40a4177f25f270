//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/db-bootstrap-api/internal/api"
	"github.com/couchcryptid/db-bootstrap-api/internal/database"
	"github.com/couchcryptid/db-bootstrap-api/internal/model"
	"github.com/couchcryptid/db-bootstrap-api/internal/observability"
	"github.com/couchcryptid/db-bootstrap-api/internal/retry"
	"github.com/couchcryptid/db-bootstrap-api/internal/secrets"
	"github.com/couchcryptid/db-bootstrap-api/internal/startup"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgUser     = "test"
	pgPassword = "test"
	pgDatabase = "testdb"
)

// fastPolicy keeps failing startups short.
var fastPolicy = retry.Policy{MaxAttempts: 3, Interval: 50 * time.Millisecond}

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startPostgres runs a Postgres container and returns its connection settings.
func startPostgres(ctx context.Context, t *testing.T) (model.ConnectionConfig, testcontainers.Container) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     pgUser,
			"POSTGRES_PASSWORD": pgPassword,
			"POSTGRES_DB":       pgDatabase,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres")
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return model.ConnectionConfig{
		Host:     host,
		Port:     port.Int(),
		User:     pgUser,
		Password: pgPassword,
		Database: pgDatabase,
	}, pg
}

// setDBEnv exports cfg as the DB_* variables the environment provider reads.
func setDBEnv(t *testing.T, cfg model.ConnectionConfig) {
	t.Helper()
	t.Setenv(secrets.KeyHost, cfg.Host)
	t.Setenv(secrets.KeyPort, strconv.Itoa(cfg.Port))
	t.Setenv(secrets.KeyUser, cfg.User)
	t.Setenv(secrets.KeyPassword, cfg.Password)
	t.Setenv(secrets.KeyName, cfg.Database)
}

// newCoordinator wires a coordinator with real pgx pools the way the server does.
func newCoordinator(t *testing.T, provider secrets.Provider, policy retry.Policy, m *observability.Metrics) *startup.Coordinator {
	t.Helper()
	logger := discardLogger()
	coord := startup.New(provider, func(c model.ConnectionConfig) *database.Manager {
		return database.NewManager(c, policy, m, logger,
			database.WithProbeTimeout(2*time.Second),
			database.WithOpener(database.PoolOpener("disable", 2)),
		)
	}, m, logger)
	t.Cleanup(func() {
		if mgr := coord.Manager(); mgr != nil {
			mgr.Close()
		}
	})
	return coord
}

// startAPI serves the router for coord.
func startAPI(t *testing.T, coord *startup.Coordinator, m *observability.Metrics) *httptest.Server {
	t.Helper()
	opts := api.Options{State: coord, Metrics: m, Logger: discardLogger(), MaxInFlight: 16}
	if mgr := coord.Manager(); mgr != nil {
		opts.Readiness = mgr
	}
	srv := httptest.NewServer(api.NewRouter(opts))
	t.Cleanup(srv.Close)
	return srv
}

func getStatus(t *testing.T, url string) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}
