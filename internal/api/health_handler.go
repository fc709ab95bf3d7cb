package api

import (
	"encoding/json"
	"net/http"

	"github.com/tradejournal/brokergate/internal/backend"
)

// NewHealthHandler responds to health check requests, including whether
// the upstream broker backend is currently reachable
func NewHealthHandler(backendClient *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upstream := "reachable"
		if err := backendClient.Health(r.Context()); err != nil {
			upstream = "unreachable"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": "1.0.0",
			"backend": upstream,
		})
	}
}
