//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/couchcryptid/db-bootstrap-api/internal/database"
	"github.com/couchcryptid/db-bootstrap-api/internal/model"
	"github.com/couchcryptid/db-bootstrap-api/internal/observability"
	"github.com/couchcryptid/db-bootstrap-api/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartup_EnvironmentFallback(t *testing.T) {
	ctx := context.Background()
	cfg, _ := startPostgres(ctx, t)
	setDBEnv(t, cfg)

	m := observability.NewTestMetrics()
	coord := newCoordinator(t, secrets.NewEnvProvider(), fastPolicy, m)

	require.NoError(t, coord.Run(ctx))
	assert.True(t, coord.Ready())
	assert.True(t, coord.IsConnected())

	srv := startAPI(t, coord, m)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status      string `json:"status"`
		DBConnected bool   `json:"dbConnected"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.True(t, body.DBConnected)

	assert.Equal(t, http.StatusOK, getStatus(t, srv.URL+"/status"))
	assert.Equal(t, http.StatusOK, getStatus(t, srv.URL+"/readyz"))
}

func TestStartup_UnreachableDatabase(t *testing.T) {
	ctx := context.Background()
	setDBEnv(t, model.ConnectionConfig{
		Host:     "127.0.0.1",
		Port:     1,
		User:     "nobody",
		Password: "nothing",
		Database: "none",
	})

	m := observability.NewTestMetrics()
	coord := newCoordinator(t, secrets.NewEnvProvider(), fastPolicy, m)

	start := time.Now()
	err := coord.Run(ctx)

	var connErr *database.ConnectivityError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, fastPolicy.MaxAttempts, connErr.Attempts)
	assert.GreaterOrEqual(t, time.Since(start), 2*fastPolicy.Interval)
	assert.False(t, coord.Ready())
	assert.False(t, coord.IsConnected())

	srv := startAPI(t, coord, m)
	assert.Equal(t, http.StatusServiceUnavailable, getStatus(t, srv.URL+"/health"))
}

func TestStartup_MissingEnvironment(t *testing.T) {
	t.Setenv(secrets.KeyHost, "")
	t.Setenv(secrets.KeyPort, "")
	t.Setenv(secrets.KeyUser, "")
	t.Setenv(secrets.KeyPassword, "")
	t.Setenv(secrets.KeyName, "")

	coord := newCoordinator(t, secrets.NewEnvProvider(), fastPolicy, observability.NewTestMetrics())

	var cfgErr *secrets.ConfigError
	require.ErrorAs(t, coord.Run(context.Background()), &cfgErr)
	assert.Nil(t, coord.Manager())
	assert.False(t, coord.Ready())
}

func TestMonitor_DetectsLostDatabase(t *testing.T) {
	ctx := context.Background()
	cfg, pg := startPostgres(ctx, t)
	setDBEnv(t, cfg)

	m := observability.NewTestMetrics()
	coord := newCoordinator(t, secrets.NewEnvProvider(), fastPolicy, m)
	require.NoError(t, coord.Run(ctx))

	monitorCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- coord.Manager().Monitor(monitorCtx, 100*time.Millisecond) }()

	srv := startAPI(t, coord, m)
	assert.Equal(t, http.StatusOK, getStatus(t, srv.URL+"/health"))

	stopTimeout := 5 * time.Second
	require.NoError(t, pg.Stop(ctx, &stopTimeout))

	require.Eventually(t, func() bool { return !coord.IsConnected() }, 15*time.Second, 100*time.Millisecond)
	assert.True(t, coord.Ready(), "readiness is never reset")
	assert.Equal(t, http.StatusServiceUnavailable, getStatus(t, srv.URL+"/health"))

	cancel()
	require.NoError(t, <-done)
}
