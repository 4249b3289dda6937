package document

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that no document exists under the requested id.
// It is an expected outcome for reads of never-written ids, not an
// operational failure, and is never logged as an error.
var ErrNotFound = errors.New("document not found")

// Kind classifies operational failures coming out of the storage and
// cache backends.
type Kind int

const (
	// KindTransient covers timeouts and connection failures. Callers may
	// retry with backoff.
	KindTransient Kind = iota
	// KindPermission covers credential and authorization failures.
	// Retrying cannot help until an operator fixes access.
	KindPermission
	// KindInvalid covers malformed ids or content: a caller bug, never
	// retried.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindPermission:
		return "permission"
	case KindInvalid:
		return "invalid"
	}
	return "transient"
}

// Error is an operational failure tagged with a Kind. The wrapped cause
// stays reachable through errors.Is/As.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err as an *Error with the given kind and operation name.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Ef builds an *Error from a formatted message with no wrapped cause.
func Ef(kind Kind, format string, v ...interface{}) *Error {
	return &Error{Kind: kind, Op: fmt.Sprintf(format, v...)}
}

// KindOf extracts the Kind from err. Untagged failures default to
// KindTransient so callers err on the side of retrying.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindTransient
}
