package database

import (
	"errors"
	"fmt"
)

var errNotConnected = errors.New("database not connected")

// ConnectivityError reports that the database could not be reached within
// the retry budget. Callers treat it as unrecoverable.
type ConnectivityError struct {
	// Attempts is zero when the pool could not be allocated at all.
	Attempts int
	Err      error
}

func (e *ConnectivityError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("could not connect to database: %v", e.Err)
	}
	return fmt.Sprintf("could not connect to database after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }
