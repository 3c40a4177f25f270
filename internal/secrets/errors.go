package secrets

import "fmt"

// ConfigError reports that the database configuration could not be determined.
// It is fatal to startup and never retried.
type ConfigError struct {
	Source string
	// Field is the offending key, empty when the failure is not field specific.
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("resolve database config from %s: %s: %v", e.Source, e.Field, e.Err)
	}
	return fmt.Sprintf("resolve database config from %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
