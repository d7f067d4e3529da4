package server

import (
	"context"
	"net/http"
	"time"
)

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ComponentHealth reports the state of one backend.
type ComponentHealth struct {
	Status    string  `json:"status"` // "up" or "down"
	Message   string  `json:"message,omitempty"`
	LatencyMs float64 `json:"latency_ms"`
}

// Health is the /health response body.
type Health struct {
	Status     string                     `json:"status"` // "healthy" or "unhealthy"
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
}

func probe(ctx context.Context, p Pinger) ComponentHealth {
	start := time.Now()
	err := p.Ping(ctx)
	h := ComponentHealth{
		Status:    "up",
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000.0,
	}
	if err != nil {
		h.Status = "down"
		h.Message = err.Error()
	}
	return h
}

// healthHandler probes the metadata database and the content store and
// returns 503 when either is down.
func (cfg Config) healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		h := Health{
			Status:     "healthy",
			Timestamp:  time.Now().UTC(),
			Version:    cfg.Build.Version,
			Components: map[string]ComponentHealth{},
		}

		if cfg.DB != nil {
			c := probe(ctx, pingerFunc(cfg.DB.PingContext))
			h.Components["database"] = c
			if c.Status == "down" {
				h.Status = "unhealthy"
			}
		}
		if p, ok := cfg.Blobs.(Pinger); ok {
			c := probe(ctx, p)
			h.Components["storage"] = c
			if c.Status == "down" {
				h.Status = "unhealthy"
			}
		}

		status := http.StatusOK
		if h.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, h)
	})
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
