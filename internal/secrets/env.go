package secrets

import (
	"context"
	"os"

	"github.com/couchcryptid/db-bootstrap-api/internal/model"
)

// EnvProvider reads the connection settings straight from DB_* variables.
type EnvProvider struct {
	getenv func(string) string
}

// NewEnvProvider returns a provider backed by the process environment.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{getenv: os.Getenv}
}

// Resolve performs no I/O beyond reading the environment.
func (p *EnvProvider) Resolve(_ context.Context) (model.ConnectionConfig, error) {
	return assemble(SourceEnvironment, p.getenv)
}

// Source implements Provider.
func (p *EnvProvider) Source() string { return SourceEnvironment }
