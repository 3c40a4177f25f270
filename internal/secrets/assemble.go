package secrets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/db-bootstrap-api/internal/model"
)

var errMissing = errors.New("missing value")

// assemble maps the five DB_* keys onto a ConnectionConfig. Every key except
// the password must be present and non-empty.
func assemble(source string, get func(key string) string) (model.ConnectionConfig, error) {
	for _, key := range []string{KeyHost, KeyPort, KeyUser, KeyName} {
		if strings.TrimSpace(get(key)) == "" {
			return model.ConnectionConfig{}, &ConfigError{Source: source, Field: key, Err: errMissing}
		}
	}

	rawPort := strings.TrimSpace(get(KeyPort))
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return model.ConnectionConfig{}, &ConfigError{Source: source, Field: KeyPort, Err: fmt.Errorf("parse %q: %w", rawPort, err)}
	}

	cfg := model.ConnectionConfig{
		Host:     strings.TrimSpace(get(KeyHost)),
		Port:     port,
		User:     get(KeyUser),
		Password: get(KeyPassword),
		Database: get(KeyName),
	}
	if err := cfg.Validate(); err != nil {
		return model.ConnectionConfig{}, &ConfigError{Source: source, Err: err}
	}
	return cfg, nil
}
