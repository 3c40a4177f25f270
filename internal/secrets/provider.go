// Package secrets resolves database connection parameters, either from AWS
// Secrets Manager or, when no secret is configured, from DB_* environment
// variables.
package secrets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/db-bootstrap-api/internal/config"
	"github.com/couchcryptid/db-bootstrap-api/internal/model"
)

// Source names, also used as metric labels.
const (
	SourceSecretsManager = "secretsmanager"
	SourceEnvironment    = "environment"
)

// Keys expected both in the secret payload and in the environment.
const (
	KeyHost     = "DB_HOST"
	KeyPort     = "DB_PORT"
	KeyUser     = "DB_USER"
	KeyPassword = "DB_PASSWORD"
	KeyName     = "DB_NAME"
)

var secretKeys = []string{KeyHost, KeyPort, KeyUser, KeyPassword, KeyName}

// Provider resolves the database connection configuration.
type Provider interface {
	Resolve(ctx context.Context) (model.ConnectionConfig, error)
	Source() string
}

// NewProvider picks the secret-store provider when AWS_SECRET_NAME is set
// and the environment provider otherwise.
func NewProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Provider, error) {
	if !cfg.UsesSecretStore() {
		logger.Info("no secret configured, reading database settings from environment")
		return NewEnvProvider(), nil
	}

	client, err := NewSecretsManagerClient(ctx, ClientOptions{
		Region:   cfg.AWSRegion,
		Endpoint: cfg.AWSEndpoint,
	})
	if err != nil {
		return nil, &ConfigError{Source: SourceSecretsManager, Err: fmt.Errorf("create client: %w", err)}
	}
	logger.Info("reading database settings from secrets manager",
		"secret", cfg.AWSSecretName,
		"region", cfg.AWSRegion,
	)
	return NewSecretsManagerProvider(client, cfg.AWSSecretName), nil
}
