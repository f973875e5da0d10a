package api

import (
	"log"
	"net/http"
	"time"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// HandlePending lists writes waiting to be reconciled with the store.
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	docs := []domain.Document{}
	if h.queue != nil {
		for _, rec := range h.queue.Pending() {
			doc := domain.Document{
				"lsn":       rec.LSN,
				"key":       rec.Key,
				"timestamp": rec.Timestamp.Format(time.RFC3339),
				"attempts":  len(rec.Attempts),
			}
			if rec.Operation != nil {
				doc["collection"] = rec.Operation.Collection()
				doc["verb"] = string(rec.Operation.Verb())
				doc["documentId"] = rec.Operation.ID()
			}
			docs = append(docs, doc)
		}
	}
	writeEnvelope(w, http.StatusOK, domain.Envelope{Success: true, Count: len(docs), Data: docs, Source: "pending-log"})
}

// HandleReplayPending runs one replay pass of the pending log in this process,
// which owns the log while it serves.
func (h *Handler) HandleReplayPending(w http.ResponseWriter, r *http.Request) {
	if h.replayer == nil {
		WriteJSONError(w, http.StatusNotImplemented, "pending replay is not enabled")
		return
	}
	result, err := h.replayer.ReplayPending(r.Context())
	if err != nil {
		log.Printf("WARN: Pending replay requested over HTTP stopped: %v", err)
		writeEnvelope(w, http.StatusServiceUnavailable, domain.Envelope{
			Success: false,
			Message: "replay stopped, writes remain queued",
			Data:    result,
			Source:  "pending-log",
		})
		return
	}
	writeEnvelope(w, http.StatusOK, domain.Envelope{Success: true, Data: result, Source: "pending-log"})
}
