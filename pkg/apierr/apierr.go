// Package apierr defines the error taxonomy shared by the public handlers.
// Every failure that crosses an HTTP boundary is one of these kinds; handlers
// catch at the top and write a JSON {"error": ...} envelope with the mapped
// status.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	BadRequest Kind = iota
	NotFound
	ConfigMissing
	TokenExchangeFailed
	RefreshFailed
	TenantDiscoveryFailed
	ObjectFetchFailed
	DownstreamCallFailed
	Internal
)

// Error carries a taxonomy kind plus a caller-facing message. DownstreamStatus
// is set only for DownstreamCallFailed.
type Error struct {
	Kind             Kind
	Message          string
	DownstreamStatus int
	Err              error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Downstream builds a DownstreamCallFailed error carrying the upstream status
// code and raw body text, propagated to the caller as-is.
func Downstream(status int, body string) *Error {
	return &Error{
		Kind:             DownstreamCallFailed,
		Message:          fmt.Sprintf("external API call failed: %d - %s", status, body),
		DownstreamStatus: status,
	}
}

// Status maps a kind to the HTTP status written to the caller.
func (e *Error) Status() int {
	switch e.Kind {
	case BadRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case TokenExchangeFailed, RefreshFailed, TenantDiscoveryFailed, ObjectFetchFailed, DownstreamCallFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Write renders err as the JSON error envelope. Non-taxonomy errors become 500.
func Write(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	var ae *Error
	if errors.As(err, &ae) {
		status = ae.Status()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// IsKind reports whether err is a taxonomy error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
