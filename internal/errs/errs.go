// Package errs defines the failure taxonomy of a pipeline run.
//
// Every failure returned from the top-level pipeline call is an *Error
// carrying one Kind. Stages wrap lower-level errors with the kind that
// describes what went wrong, and the entry point maps the kind to a process
// exit code.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// UnexpectedFailure is anything that is not one of the specific kinds.
	UnexpectedFailure Kind = iota
	// SourceUnavailable means a store could not be opened or a table is missing.
	SourceUnavailable
	// SchemaMismatch means an expected column is absent or a join key has the
	// wrong shape.
	SchemaMismatch
	// PersistenceFailure means writing the output table or export file failed.
	PersistenceFailure
)

// String returns the taxonomy name of k.
func (k Kind) String() string {
	switch k {
	case SourceUnavailable:
		return "SourceUnavailable"
	case SchemaMismatch:
		return "SchemaMismatch"
	case PersistenceFailure:
		return "PersistenceFailure"
	default:
		return "UnexpectedFailure"
	}
}

// Sentinel values usable with errors.Is, e.g. errors.Is(err, errs.ErrSchemaMismatch).
var (
	ErrSourceUnavailable  = &Error{Kind: SourceUnavailable}
	ErrSchemaMismatch     = &Error{Kind: SchemaMismatch}
	ErrPersistenceFailure = &Error{Kind: PersistenceFailure}
	ErrUnexpectedFailure  = &Error{Kind: UnexpectedFailure}
)

// Error is a classified failure. Op names the operation that failed
// (e.g. "read students", "persist export").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return e.Kind.String()
	}
}

// Unwrap implements errors.Unwrap.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind. Op and Err of the
// target are ignored so the package sentinels match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// E builds an *Error. A nil err yields nil.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an *Error from a formatted message.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// UnexpectedFailure when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnexpectedFailure
}

// Classify returns err unchanged if it already carries a kind, and wraps it
// as UnexpectedFailure otherwise.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: UnexpectedFailure, Op: op, Err: err}
}

// ExitCode maps err to a process exit status. Nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case SourceUnavailable:
		return 2
	case SchemaMismatch:
		return 3
	case PersistenceFailure:
		return 4
	default:
		return 1
	}
}
