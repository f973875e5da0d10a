package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed taxonomy every store failure is converted to before it
// reaches the executor.
type ErrorKind string

const (
	KindConnectTimeout     ErrorKind = "ConnectTimeout"
	KindConnectRefused     ErrorKind = "ConnectRefused"
	KindAuthFailure        ErrorKind = "AuthFailure"
	KindNetworkUnreachable ErrorKind = "NetworkUnreachable"
	KindValidation         ErrorKind = "ValidationError"
	KindNotFound           ErrorKind = "NotFound"
	KindStoreUnavailable   ErrorKind = "StoreUnavailable"
	KindStaleHandle        ErrorKind = "StaleHandle"
	KindUnexpectedResult   ErrorKind = "UnexpectedResult"
	KindCancelled          ErrorKind = "Cancelled"
)

// descriptions are the only error texts that reach API consumers.
var descriptions = map[ErrorKind]string{
	KindConnectTimeout:     "the data store did not respond in time",
	KindConnectRefused:     "the data store refused the connection",
	KindAuthFailure:        "the data store rejected the credentials",
	KindNetworkUnreachable: "the data store could not be reached",
	KindValidation:         "the request is invalid",
	KindNotFound:           "the requested document was not found",
	KindStoreUnavailable:   "the data store is unavailable",
	KindStaleHandle:        "the store connection changed while the write was in flight",
	KindUnexpectedResult:   "the data store returned an unexpected result",
	KindCancelled:          "the request was cancelled",
}

// Describe returns a sanitized, client-safe description of the kind.
func (k ErrorKind) Describe() string {
	if d, ok := descriptions[k]; ok {
		return d
	}
	return "internal error"
}

// IsConnectivity reports whether the kind means the store could not be reached.
func (k ErrorKind) IsConnectivity() bool {
	switch k {
	case KindConnectTimeout, KindConnectRefused, KindNetworkUnreachable, KindStoreUnavailable, KindStaleHandle:
		return true
	}
	return false
}

// StoreError carries a taxonomy kind alongside the underlying cause.
type StoreError struct {
	Kind ErrorKind
	Op   string
	Err  error

	// detail is set when Err was written by this module and may be shown to
	// clients. Driver errors never set it.
	detail bool
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Sanitized returns the client-safe message for this error.
func (e *StoreError) Sanitized() string {
	return e.Kind.Describe()
}

// ClientMessage returns Err's text when it was written for clients, and the
// kind's description otherwise.
func (e *StoreError) ClientMessage() string {
	if e.detail && e.Err != nil {
		return e.Err.Error()
	}
	return e.Sanitized()
}

// NewError builds a StoreError around a cause that may come from a driver.
func NewError(kind ErrorKind, op string, err error) *StoreError {
	return &StoreError{Kind: kind, Op: op, Err: err}
}

// Errorf builds a StoreError with a formatted cause that is safe to show to
// clients. Do not format driver errors into it.
func Errorf(kind ErrorKind, op, format string, args ...interface{}) *StoreError {
	return &StoreError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...), detail: true}
}

// KindOf extracts the kind from err. Errors that were never classified report
// StoreUnavailable.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindStoreUnavailable
}

// IsNotFound reports whether err is a NotFound store error.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}
