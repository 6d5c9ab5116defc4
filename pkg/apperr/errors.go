// Package apperr defines the error-kind contract shared by every promptforge
// component. Kinds are names, not types — callers compare against the Kind
// constants after unwrapping with errors.As, the same way tarsy's
// pkg/config/errors.go pairs sentinel errors with a ValidationError wrapper.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure. Kinds are contracts for the HTTP
// façade and for callers deciding whether to retry — never assert on the
// underlying Go type.
type Kind string

const (
	// KindInvalidInput means the request violated a schema or value range.
	KindInvalidInput Kind = "InvalidInput"
	// KindGeneratorUnavailable means the LLM generator failed after retries.
	KindGeneratorUnavailable Kind = "GeneratorUnavailable"
	// KindGeneratorTimeout means the LLM generator exceeded its deadline.
	KindGeneratorTimeout Kind = "GeneratorTimeout"
	// KindRetrievalUnavailable means both dense and lexical retrieval failed.
	KindRetrievalUnavailable Kind = "RetrievalUnavailable"
	// KindOverloaded means a bounded queue rejected work.
	KindOverloaded Kind = "Overloaded"
	// KindInvalidOutput is the request-path surfacing of a schema-repair
	// exhaustion (offline, the same condition is ExecutionMetrics.SchemaOK=false).
	KindInvalidOutput Kind = "InvalidOutput"
	// KindGoldenSetInvalid means the golden set failed load-time validation.
	KindGoldenSetInvalid Kind = "GoldenSetInvalid"
	// KindInternal is anything else; retriable is left to the caller.
	KindInternal Kind = "Internal"
)

// retriableByDefault records whether a Kind is retriable when the caller
// constructs an Error without specifying Retriable explicitly.
var retriableByDefault = map[Kind]bool{
	KindInvalidInput:         false,
	KindGeneratorUnavailable: true,
	KindGeneratorTimeout:     true,
	KindRetrievalUnavailable: true,
	KindOverloaded:           true,
	KindInvalidOutput:        false,
	KindGoldenSetInvalid:     false,
	KindInternal:             true,
}

// Error is the structured error every component boundary returns. The HTTP
// façade translates it directly into the §6.3 wire envelope
// {error:{kind,message,retriable}}.
type Error struct {
	Kind      Kind
	Message   string
	Retriable bool
	Cause     error
}

// New constructs an Error with the default retriability for kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Retriable: retriableByDefault[kind]}
}

// Wrap constructs an Error around cause with the default retriability for kind.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Retriable: retriableByDefault[kind], Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, apperr.New(KindOverloaded, "")) to match any
// *Error with the same Kind, regardless of message.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// KindOf extracts the Kind from err, defaulting to KindInternal when err is
// not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetriable reports whether err (if an *Error) is retriable. Non-Error
// errors are treated as retriable (KindInternal default), matching §7's
// "anything else (retriable at caller's discretion)".
func IsRetriable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retriable
	}
	return true
}
