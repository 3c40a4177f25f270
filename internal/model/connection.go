package model

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// ConnectionConfig holds the parameters needed to reach the PostgreSQL datastore.
// It is resolved once at startup and not modified afterwards.
type ConnectionConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Validate checks the fields a connection attempt cannot do without.
func (c ConnectionConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// Address returns host:port.
func (c ConnectionConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ConnString renders a postgres:// URL. sslMode is added as a query
// parameter when non-empty.
func (c ConnectionConfig) ConnString(sslMode string) string {
	return c.url(sslMode).String()
}

// Redacted renders the connection URL with the password masked, for logs.
func (c ConnectionConfig) Redacted() string {
	return c.url("").Redacted()
}

func (c ConnectionConfig) url(sslMode string) *url.URL {
	u := &url.URL{
		Scheme: "postgres",
		Host:   c.Address(),
		Path:   "/" + c.Database,
	}
	switch {
	case c.User != "" && c.Password != "":
		u.User = url.UserPassword(c.User, c.Password)
	case c.User != "":
		u.User = url.User(c.User)
	}
	if sslMode != "" {
		u.RawQuery = url.Values{"sslmode": {sslMode}}.Encode()
	}
	return u
}
