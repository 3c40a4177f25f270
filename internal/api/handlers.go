// Package api serves the health, status and process endpoints.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"

	// Millisecond precision, always UTC ("Z").
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"

	maxProcessBody = 1 << 20
)

// StateReader is the read-only view of startup state the handlers need.
type StateReader interface {
	Ready() bool
	IsConnected() bool
	Uptime() time.Duration
}

type healthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"dbConnected"`
}

type statusResponse struct {
	Uptime    float64 `json:"uptime"`
	Ready     bool    `json:"ready"`
	Timestamp string  `json:"timestamp"`
}

type processResponse struct {
	Message string `json:"message"`
}

type handlers struct {
	state  StateReader
	logger *slog.Logger
	now    func() time.Time
}

// health is healthy only once startup finished and the database is connected.
func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	if !h.state.Ready() || !h.state.IsConnected() {
		h.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: statusUnhealthy, DBConnected: false})
		return
	}
	h.writeJSON(w, http.StatusOK, healthResponse{Status: statusHealthy, DBConnected: true})
}

func (h *handlers) status(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, statusResponse{
		Uptime:    h.state.Uptime().Seconds(),
		Ready:     h.state.Ready(),
		Timestamp: h.now().UTC().Format(timestampLayout),
	})
}

// process accepts any body without looking at it. At most maxProcessBody
// bytes are read; the connection is closed after a larger body.
func (h *handlers) process(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, http.MaxBytesReader(w, r.Body, maxProcessBody))
	h.writeJSON(w, http.StatusAccepted, processResponse{Message: "Processing accepted"})
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}
