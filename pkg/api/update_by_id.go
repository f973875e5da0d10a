package api

import (
	"log"
	"net/http"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"github.com/gorilla/mux"
)

// HandleUpdateById handles PUT and PATCH requests. Both merge the body into
// the stored document; the identity field cannot be changed.
func (h *Handler) HandleUpdateById(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	docId := vars["id"]

	rules, ok := h.collection(collName)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "unknown collection "+collName)
		return
	}

	changes, err := decodeBody(r)
	if err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	delete(changes, domain.IDField)
	delete(changes, "id")

	op := domain.NewUpdate(collName, docId, changes)
	if rules.Exclusive != "" {
		op = op.WithExclusive(rules.Exclusive)
	}

	env := h.execute(w, r, op)
	if env.Success {
		log.Printf("INFO: Updated document '%s' in collection '%s'", docId, collName)
	}
}
