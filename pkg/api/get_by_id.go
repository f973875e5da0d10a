package api

import (
	"log"
	"net/http"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"github.com/gorilla/mux"
)

// HandleGetById handles GET requests to retrieve a specific document by ID
func (h *Handler) HandleGetById(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	docId := vars["id"]

	if _, ok := h.collection(collName); !ok {
		WriteJSONError(w, http.StatusNotFound, "unknown collection "+collName)
		return
	}

	env := h.execute(w, r, domain.NewReadOne(collName, docId))
	if env.Kind == domain.KindNotFound {
		log.Printf("INFO: Document '%s' not found in collection '%s'", docId, collName)
	}
}
