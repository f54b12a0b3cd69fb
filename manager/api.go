// Package manager exposes the internal operations API: inspecting active
// penalty blocks and lifting them manually. It binds to a side port and is
// never reachable through the public listener.
package manager

import (
	"encoding/json"
	"net/http"
	"time"

	"edgegate/limiter"
	"edgegate/logger"
)

type ManagementAPI struct {
	Limiter *limiter.RateLimiter
}

func NewManagementAPI(rl *limiter.RateLimiter) *ManagementAPI {
	return &ManagementAPI{Limiter: rl}
}

func (api *ManagementAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", api.handleStatus)
	mux.HandleFunc("/api/blocks", api.handleBlocks)
}

func (api *ManagementAPI) handleStatus(w http.ResponseWriter, r *http.Request) {
	blocked, err := api.Limiter.Blocked(r.Context())
	if err != nil {
		http.Error(w, "failed to list blocks", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "active",
		"blocked_ips": blocked,
		"timestamp":   time.Now(),
	})
}

func (api *ManagementAPI) handleBlocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ip := r.URL.Query().Get("ip")
	if ip == "" {
		http.Error(w, "ip required", http.StatusBadRequest)
		return
	}
	if err := api.Limiter.Reset(r.Context(), ip); err != nil {
		http.Error(w, "clear failed", http.StatusInternalServerError)
		return
	}
	logger.Info("manual block clearance", "ip", ip)
	w.WriteHeader(http.StatusNoContent)
}
