package cyaml

import (
	"errors"
	"fmt"
)

// Error is the closed set of failure kinds this module can return, per
// spec.md §4.1. The zero value is Ok.
type Error int

const (
	Ok Error = iota
	ErrOutOfMemory
	ErrAlloc
	ErrMappingKeyUnknown
	ErrMappingKeyDuplicate
	ErrMappingFieldMissing
	ErrSequenceTooShort
	ErrSequenceTooLong
	ErrInvalidScalar
	ErrInvalidBool
	ErrInvalidEnum
	ErrInvalidFlag
	ErrStringTooShort
	ErrStringTooLong
	ErrUnexpectedEvent
	ErrSchemaInvalid
	ErrDataTargetNonNull
	ErrYAMLError
	ErrInternalError
)

var errorStrings = [...]string{
	Ok:                     "Success",
	ErrOutOfMemory:         "out of memory",
	ErrAlloc:               "allocator refused to free a nonzero block",
	ErrMappingKeyUnknown:   "unknown mapping key",
	ErrMappingKeyDuplicate: "duplicate mapping key",
	ErrMappingFieldMissing: "required mapping field missing",
	ErrSequenceTooShort:    "sequence has fewer elements than min_count",
	ErrSequenceTooLong:     "sequence has more elements than max_count",
	ErrInvalidScalar:       "invalid scalar value",
	ErrInvalidBool:         "invalid boolean value",
	ErrInvalidEnum:         "invalid enum value",
	ErrInvalidFlag:         "invalid flag value",
	ErrStringTooShort:      "string shorter than min_len",
	ErrStringTooLong:       "string longer than capacity",
	ErrUnexpectedEvent:     "unexpected YAML event",
	ErrSchemaInvalid:       "schema failed validation",
	ErrDataTargetNonNull:   "load target is already non-nil",
	ErrYAMLError:           "YAML parser or emitter error",
	ErrInternalError:       "internal error",
}

// Error implements the standard error interface, returning the same
// stable, non-empty human string every caller of strerror(code) would see
// (spec.md §8 property 6: distinct codes never share a string).
func (e Error) Error() string {
	if e < 0 || int(e) >= len(errorStrings) || errorStrings[e] == "" {
		return fmt.Sprintf("cyaml: unknown error code %d", int(e))
	}
	return errorStrings[e]
}

// detailedError wraps an Error with load/save-time context (a path within
// the data graph, a YAML position) without changing the control-flow
// meaning of the wrapped Error: callers that want the bare kind should use
// errors.Is / errors.As against the wrapped cyaml.Error, not string-match
// detailedError's own text.
type detailedError struct {
	kind   Error
	path   string
	detail string
}

func (e *detailedError) Error() string {
	if e.path == "" {
		return fmt.Sprintf("cyaml: %s: %s", e.kind, e.detail)
	}
	return fmt.Sprintf("cyaml: %s at %s: %s", e.kind, e.path, e.detail)
}

func (e *detailedError) Unwrap() error { return e.kind }

func wrapErr(kind Error, path, detail string) error {
	return &detailedError{kind: kind, path: path, detail: detail}
}

// KindOf extracts the Error kind from any error this module returned, or
// ErrInternalError if err is non-nil but wasn't produced by this module.
func KindOf(err error) Error {
	if err == nil {
		return Ok
	}
	var de *detailedError
	if errors.As(err, &de) {
		return de.kind
	}
	var e Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternalError
}
