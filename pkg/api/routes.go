package api

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes on router, which is expected to be
// mounted under the API prefix.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	// Operational endpoints first so they are never taken for collections
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
	router.HandleFunc("/pending", h.HandlePending).Methods("GET")
	router.HandleFunc("/pending/replay", h.HandleReplayPending).Methods("POST")

	// Collection operations
	router.HandleFunc("/{coll}", h.HandleFind).Methods("GET")
	router.HandleFunc("/{coll}", h.HandleInsert).Methods("POST")

	// Document operations (by ID)
	router.HandleFunc("/{coll}/{id}", h.HandleGetById).Methods("GET")
	router.HandleFunc("/{coll}/{id}", h.HandleUpdateById).Methods("PUT", "PATCH")
	router.HandleFunc("/{coll}/{id}", h.HandleDeleteById).Methods("DELETE")
}
