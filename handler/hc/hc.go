package hc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is anything the health check must reach, the database pool in practice.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func Handler(version string, deps ...Pinger) http.Handler {
	t := time.Now()
	fn := func(w http.ResponseWriter, r *http.Request) {
		status, state := http.StatusOK, "ok"

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, dep := range deps {
			if err := dep.PingContext(ctx); err != nil {
				status, state = http.StatusServiceUnavailable, err.Error()
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"version": version,
			"uptime":  time.Since(t).String(),
			"state":   state,
		})
	}

	return http.HandlerFunc(fn)
}
