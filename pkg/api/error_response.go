package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
)

// WriteJSONError writes a failure envelope with the given status code and
// message. It is used for errors raised before an operation is executed.
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	kind := domain.KindValidation
	if statusCode == http.StatusNotFound {
		kind = domain.KindNotFound
	}
	writeEnvelope(w, statusCode, domain.Failure(kind, message))
}

// writeEnvelope is the only place response bodies are written.
func writeEnvelope(w http.ResponseWriter, statusCode int, env domain.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("ERROR: Encoding response failed: %v", err)
	}
}

// statusFor maps an executed envelope to the HTTP status. Outcomes that still
// carry a usable result, including degraded reads and queued writes, are 200.
func statusFor(op domain.Operation, env domain.Envelope) int {
	if env.Success {
		switch {
		case op.Verb() == domain.VerbReadOne && env.Kind == domain.KindNotFound:
			return http.StatusNotFound
		case op.Verb() == domain.VerbWrite:
			return http.StatusCreated
		}
		return http.StatusOK
	}

	switch env.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	}
	if env.Queued {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

// execute runs op and writes the resulting envelope.
func (h *Handler) execute(w http.ResponseWriter, r *http.Request, op domain.Operation) domain.Envelope {
	env := h.executor.Execute(r.Context(), op)
	status := statusFor(op, env)
	if status >= http.StatusInternalServerError {
		log.Printf("ERROR: %s failed: %s (attempts: %d)", op, env.Error, len(env.Attempts))
	}
	writeEnvelope(w, status, env)
	return env
}
