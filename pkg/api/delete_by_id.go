package api

import (
	"log"
	"net/http"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"github.com/gorilla/mux"
)

// HandleDeleteById handles DELETE requests to remove a document by ID
func (h *Handler) HandleDeleteById(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	docId := vars["id"]

	if _, ok := h.collection(collName); !ok {
		WriteJSONError(w, http.StatusNotFound, "unknown collection "+collName)
		return
	}

	env := h.execute(w, r, domain.NewDelete(collName, docId))
	if env.Success {
		log.Printf("INFO: Deleted document '%s' from collection '%s'", docId, collName)
	}
}
