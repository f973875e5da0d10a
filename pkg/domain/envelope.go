package domain

import "time"

// Envelope is the single response shape returned to callers of the data-access
// layer. Data is either []Document (Read) or Document (every other verb).
type Envelope struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Data    interface{} `json:"data"`
	Source  string      `json:"source,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`

	// Kind is the taxonomy kind behind Error, or NotFound for an empty ReadOne.
	Kind ErrorKind `json:"-"`
	// Degraded is set when the data came from a last-resort strategy.
	Degraded bool `json:"-"`
	// Queued is set when a failed write was recorded in the pending-write log.
	Queued bool `json:"-"`
	// Attempts lists every strategy tried, for logs and diagnostics only.
	Attempts []Attempt `json:"-"`
}

// Attempt records the outcome of a single strategy run.
type Attempt struct {
	Strategy string        `json:"strategy"`
	Kind     ErrorKind     `json:"kind,omitempty"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the attempt ended in an error.
func (a Attempt) Failed() bool {
	return a.Kind != ""
}

// Documents returns the envelope data as a slice regardless of verb.
func (e Envelope) Documents() []Document {
	switch d := e.Data.(type) {
	case []Document:
		return d
	case Document:
		if d == nil {
			return nil
		}
		return []Document{d}
	}
	return nil
}

// Failure builds an unsuccessful envelope for the given kind.
func Failure(kind ErrorKind, message string) Envelope {
	if message == "" {
		message = kind.Describe()
	}
	return Envelope{Success: false, Data: []Document{}, Error: string(kind), Kind: kind, Message: message}
}
