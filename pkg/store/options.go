package store

import "time"

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithConnectTimeout bounds every connect, ping and direct dial.
func WithConnectTimeout(d time.Duration) HandleOption {
	return func(h *Handle) {
		if d > 0 {
			h.connectTimeout = d
		}
	}
}

// WithWaitBudget bounds how long a caller waits for another caller's connect.
func WithWaitBudget(d time.Duration) HandleOption {
	return func(h *Handle) {
		if d > 0 {
			h.waitBudget = d
		}
	}
}
