// Package errs defines the error kinds surfaced by the engine's construction
// and execution paths (spec §7).
package errs

import "fmt"

// Kind identifies which error-handling rule produced an Error.
type Kind int

const (
	// InvalidArgument means a shape/format/offset/count violated a
	// primitive's construction contract.
	InvalidArgument Kind = iota
	// NotImplemented means no implementation is registered for a dispatch key.
	NotImplemented
	// IoError means a weight file was missing, truncated, or malformed.
	IoError
	// OutOfMemory means an allocator failed to obtain storage.
	OutOfMemory
	// InternalInvariant means an assertion that should be unreachable fired.
	InternalInvariant
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case NotImplemented:
		return "NotImplemented"
	case IoError:
		return "IoError"
	case OutOfMemory:
		return "OutOfMemory"
	case InternalInvariant:
		return "InternalInvariant"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the single error type produced by this module. All kinds carry a
// human-readable message; InvalidArgument additionally carries Field and
// NotImplemented additionally carries Key.
type Error struct {
	Kind    Kind
	Message string
	Field   string // set for InvalidArgument
	Key     string // set for NotImplemented
}

func (e *Error) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %s (field %q)", e.Kind, e.Message, e.Field)
	case e.Key != "":
		return fmt.Sprintf("%s: %s (key %s)", e.Kind, e.Message, e.Key)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// InvalidArg builds an InvalidArgument error naming the offending field.
func InvalidArg(field, format string, args ...interface{}) error {
	return &Error{Kind: InvalidArgument, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotImpl builds a NotImplemented error naming the dispatch key.
func NotImpl(key, format string, args ...interface{}) error {
	return &Error{Kind: NotImplemented, Key: key, Message: fmt.Sprintf(format, args...)}
}

// IO builds an IoError.
func IO(format string, args ...interface{}) error {
	return &Error{Kind: IoError, Message: fmt.Sprintf(format, args...)}
}

// OOM builds an OutOfMemory error.
func OOM(format string, args ...interface{}) error {
	return &Error{Kind: OutOfMemory, Message: fmt.Sprintf(format, args...)}
}

// Invariant builds an InternalInvariant error.
func Invariant(format string, args ...interface{}) error {
	return &Error{Kind: InternalInvariant, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is an *Error of the given kind, so callers can
// branch with errors.Is-style checks without importing this package's type.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
