package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match with errors.Is; richer context travels
// in the typed errors below.
var (
	// ErrNotFound covers missing artifacts, versions and fingerprints.
	// Recoverable: surfaced to the caller, never retried internally.
	ErrNotFound = errors.New("not found")

	// ErrIntegrity marks a fingerprint collision with differing bytes.
	// Fatal: the operation must abort and commit nothing.
	ErrIntegrity = errors.New("content integrity violation")

	// ErrReferencedContent guards deletion of data something still
	// depends on: a blob while a version points at its fingerprint, an
	// artifact while versions exist.
	ErrReferencedContent = errors.New("content still referenced")

	// ErrAlreadyExists signals an artifact name collision on create.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidRange rejects a bisect start with low >= high.
	ErrInvalidRange = errors.New("invalid bisect range")

	// ErrOutOfRange rejects a bisect judgment outside the open interval.
	ErrOutOfRange = errors.New("sequence outside bisect range")

	// ErrSessionInProgress rejects starting a bisect session while one
	// is already active on the artifact.
	ErrSessionInProgress = errors.New("bisect session already in progress")

	// ErrSessionNotActive rejects judgments on a closed session.
	ErrSessionNotActive = errors.New("no active bisect session")
)

// NotFoundError wraps ErrNotFound with the missing entity.
type NotFoundError struct {
	Kind string // "artifact", "version", "blob"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// RangeError wraps ErrInvalidRange or ErrOutOfRange with the bounds
// that were valid at the time, so a caller can retry correctly.
type RangeError struct {
	Sequence int
	Low      int
	High     int
	Err      error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("sequence %d: %v (valid open interval %d..%d)", e.Sequence, e.Err, e.Low, e.High)
}

func (e *RangeError) Unwrap() error { return e.Err }

// QueryTypeError describes a comparison that degraded to false during
// query evaluation because its operand types do not line up (contains
// against a number, ordering on a free-form string, an unparseable
// time literal). It is reported for diagnostics, never returned:
// evaluation stays total.
type QueryTypeError struct {
	Field  string
	Op     string
	Reason string
}

func (e *QueryTypeError) Error() string {
	return fmt.Sprintf("query type error: %s %s: %s", e.Field, e.Op, e.Reason)
}

// SyntaxError names the offending token and its byte offset in a query
// string. Parsing aborts entirely on the first syntax error.
type SyntaxError struct {
	Token string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("query syntax error at offset %d: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("query syntax error at offset %d near %q: %s", e.Pos, e.Token, e.Msg)
}
