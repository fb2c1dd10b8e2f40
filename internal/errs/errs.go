// Package errs defines the pipeline error taxonomy. Every failure a
// pipeline run can surface carries one of the kinds below so callers can
// dispatch on the category without parsing messages.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the category of a pipeline error.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindFormat              Kind = "format"
	KindSchemaMismatch      Kind = "schema_mismatch"
	KindUnknownColumn       Kind = "unknown_column"
	KindUnsupportedFunction Kind = "unsupported_function"
	KindEmptyPartition      Kind = "empty_partition"
	KindUnsupportedFormat   Kind = "unsupported_format"
	KindWrite               Kind = "write"
)

// Error is a pipeline error with a taxonomy kind, a human-readable message
// and optional structured details naming the offending input, column or
// destination.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind wrapping a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetail attaches a structured detail and returns the same error.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// KindOf returns the taxonomy kind of err, or the empty kind if err does not
// carry one anywhere in its chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given taxonomy kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// NotFound reports a missing source path.
func NotFound(path string) *Error {
	return New(KindNotFound, fmt.Sprintf("source %s does not exist", path)).
		WithDetail("path", path)
}

// Format reports a source that cannot be parsed as tabular data.
func Format(source, reason string, err error) *Error {
	e := Wrap(KindFormat, fmt.Sprintf("cannot parse %s: %s", source, reason), err)
	return e.WithDetail("source", source)
}

// SchemaMismatch reports concatenated sources that disagree on column sets.
func SchemaMismatch(source string, want, got []string) *Error {
	return New(KindSchemaMismatch,
		fmt.Sprintf("source %s columns [%s] do not match [%s]",
			source, strings.Join(got, ","), strings.Join(want, ","))).
		WithDetail("source", source).
		WithDetail("expected", strings.Join(want, ",")).
		WithDetail("actual", strings.Join(got, ","))
}

// UnknownColumn reports a requested column absent from the table.
func UnknownColumn(column string) *Error {
	return New(KindUnknownColumn, fmt.Sprintf("column %q not present in table", column)).
		WithDetail("column", column)
}

// UnsupportedFunction reports an unrecognized aggregation function.
func UnsupportedFunction(fn string) *Error {
	return New(KindUnsupportedFunction, fmt.Sprintf("aggregation function %q is not supported", fn)).
		WithDetail("function", fn)
}

// EmptyPartition reports an aggregation that is undefined over an empty
// partition.
func EmptyPartition(label, group string) *Error {
	e := New(KindEmptyPartition, fmt.Sprintf("indicator %q is undefined over an empty partition", label)).
		WithDetail("indicator", label)
	if group != "" {
		e.WithDetail("group", group)
	}
	return e
}

// UnsupportedFormat reports an unrecognized artifact format descriptor.
func UnsupportedFormat(format string) *Error {
	return New(KindUnsupportedFormat, fmt.Sprintf("output format %q is not supported", format)).
		WithDetail("format", format)
}

// WriteFailed reports a destination that could not be written.
func WriteFailed(path string, err error) *Error {
	return Wrap(KindWrite, fmt.Sprintf("cannot write artifact %s", path), err).
		WithDetail("path", path)
}
