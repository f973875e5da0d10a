package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"github.com/gorilla/mux"
)

// decodeBody reads a JSON object request body.
func decodeBody(r *http.Request) (domain.Document, error) {
	var doc map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		return nil, err
	}
	return domain.Document(doc), nil
}

// HandleInsert handles POST requests creating a document. The identity (and a
// slug where configured) is assigned once here, so a retry on any strategy or
// a replay of the queued write stores the same document.
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	rules, ok := h.collection(collName)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "unknown collection "+collName)
		return
	}

	payload, err := decodeBody(r)
	if err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, doc := h.assigner.Assign(collName, payload)
	op := domain.NewWrite(collName, id, doc)
	if rules.Exclusive != "" {
		op = op.WithExclusive(rules.Exclusive)
	}

	env := h.execute(w, r, op)
	if env.Success {
		log.Printf("INFO: Insert successful for collection '%s', document '%s'", collName, id)
	}
}
