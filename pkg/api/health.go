package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Avinash9608/Furniture-sub003/pkg/store"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string     `json:"status"`
	State       string     `json:"state"`
	Generation  uint64     `json:"generation"`
	LastError   string     `json:"lastError,omitempty"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
	Pending     int        `json:"pending"`
}

// HandleHealth reports the store handle state. It answers 200 in every state:
// a degraded store is still served through fallbacks.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{Status: "healthy", State: "unknown"}

	if h.status != nil {
		st := h.status.Status()
		response.State = st.State.String()
		response.Generation = st.Generation
		response.LastError = string(st.LastError)
		if !st.ConnectedAt.IsZero() {
			connectedAt := st.ConnectedAt.UTC()
			response.ConnectedAt = &connectedAt
		}
		if st.State != store.Connected {
			response.Status = "degraded"
		}
	}
	if h.queue != nil {
		response.Pending = h.queue.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
