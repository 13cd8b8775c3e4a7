package library

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification. Every *OpError matches the
// sentinel of its Kind through errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrReaderNotFound = errors.New("reader not found")
	ErrPersistence    = errors.New("persistence error")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindNotFound       ErrorKind = "not_found"
	KindReaderNotFound ErrorKind = "reader_not_found"
	KindPersistence    ErrorKind = "persistence"
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string // Optional: relevant file path
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is the sentinel for the error's kind.
func (e *OpError) Is(target error) bool {
	if e == nil {
		return false
	}
	return sentinelFor(e.Kind) == target
}

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindReaderNotFound:
		return ErrReaderNotFound
	case KindPersistence:
		return ErrPersistence
	}
	return nil
}

// IsKind helps callers classify errors without string matching.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

func validationError(op, format string, args ...any) error {
	return &OpError{Op: op, Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

func persistenceError(op, path string, err error) error {
	return &OpError{Op: op, Kind: KindPersistence, Path: path, Err: err}
}
