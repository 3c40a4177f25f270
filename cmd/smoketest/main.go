// Command smoketest checks a deployed instance by calling /health and /status.
// It exits 0 when both answer 200 and 1 otherwise.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/couchcryptid/db-bootstrap-api/internal/config"
)

const requestTimeout = 5 * time.Second

var checks = []string{"/health", "/status"}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	host := config.EnvOrDefault("TEST_HOST", "localhost")
	port := config.EnvOrDefault("PORT", "3000")
	baseURL := "http://" + net.JoinHostPort(host, port)

	client := &http.Client{Timeout: requestTimeout}
	if err := run(context.Background(), client, baseURL, logger); err != nil {
		os.Exit(1)
	}
}

// run executes the checks in order and stops at the first failure.
func run(ctx context.Context, client *http.Client, baseURL string, logger *slog.Logger) error {
	for _, path := range checks {
		if err := check(ctx, client, baseURL+path); err != nil {
			logger.Error("FAIL", "path", path, "error", err)
			return err
		}
		logger.Info("PASS", "path", path)
	}
	return nil
}

func check(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
