package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvOrDefault returns the value of key, or def when it is unset or empty.
func EnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func positiveDuration(key string, def time.Duration) (time.Duration, error) {
	d, err := parseDuration(key, def)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, d)
	}
	return d, nil
}

func nonNegativeDuration(key string, def time.Duration) (time.Duration, error) {
	d, err := parseDuration(key, def)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, d)
	}
	return d, nil
}

func intAtLeast(key string, def, floor int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if n < floor {
		return 0, fmt.Errorf("invalid %s %d: must be at least %d", key, n, floor)
	}
	return n, nil
}
