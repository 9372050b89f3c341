// Package httpcore ties the header, parser, and serializer packages
// together behind a single installed configuration: a Context holds
// the parser and serializer settings an embedder chooses once, and
// every parser/serializer constructed against it shares them.
package httpcore

import (
	"errors"

	"github.com/watt-toolkit/httpcore/filter"
	"github.com/watt-toolkit/httpcore/header"
	"github.com/watt-toolkit/httpcore/parser"
	"github.com/watt-toolkit/httpcore/serializer"
)

// Kind classifies an Error the way a switch over an error code would
// in a language without wrapped sentinel values, so a caller can
// branch on category without string-matching error text.
type Kind int

const (
	// KindUnknown is the zero value; never returned by this package.
	KindUnknown Kind = iota
	// KindMalformed marks a wire-format violation (bad start-line,
	// bad field syntax, invalid chunk framing).
	KindMalformed
	// KindLimitExceeded marks a configured resource ceiling being hit
	// (header size, field count, body size).
	KindLimitExceeded
	// KindFraming marks a framing-declaration conflict (both
	// Content-Length and Transfer-Encoding, duplicate unequal
	// Content-Length values, non-final chunked coding).
	KindFraming
	// KindFilter marks a failure reported by the decompression/
	// compression filter.
	KindFilter
	// KindIO marks a hard failure from a caller-supplied serializer
	// Source (serializer.ErrSourceFailed). Errors returned by a parser
	// Sink or Elastic are not recognized by ClassifyError and fall to
	// KindMalformed, except parser.ErrBufferOverflow, which is
	// KindLimitExceeded.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindLimitExceeded:
		return "limit_exceeded"
	case KindFraming:
		return "framing"
	case KindFilter:
		return "filter"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error wraps an underlying sentinel error from header/parser/
// serializer with a Kind, so callers can either switch on Kind or keep
// using errors.Is against the package-level sentinels those packages
// already export.
type Error struct {
	kind Kind
	err  error
}

func newError(k Kind, err error) *Error {
	return &Error{kind: k, err: err}
}

// ClassifyError wraps err (as returned by a parser.Parser or
// serializer.Serializer method) in an *Error carrying the matching
// Kind, for callers that want to switch on category instead of
// comparing against every package's sentinels individually. Flow-
// control signals (need-data, end-of-message, expect-100-continue)
// and nil pass through unchanged, since they aren't failures.
func ClassifyError(err error) error {
	switch {
	case err == nil,
		errors.Is(err, parser.ErrNeedData),
		errors.Is(err, parser.ErrEndOfMessage),
		errors.Is(err, serializer.ErrNeedData),
		errors.Is(err, serializer.ErrExpect100Continue):
		return err
	}

	switch {
	case errors.Is(err, parser.ErrHeadersLimit),
		errors.Is(err, parser.ErrFieldSizeLimit),
		errors.Is(err, parser.ErrFieldsLimit),
		errors.Is(err, parser.ErrBodyLimitExceeded),
		errors.Is(err, parser.ErrBufferOverflow),
		errors.Is(err, serializer.ErrBodyLimitExceeded),
		errors.Is(err, header.ErrLengthError):
		return newError(KindLimitExceeded, err)

	case errors.Is(err, parser.ErrBadPayload),
		errors.Is(err, parser.ErrBadContentLength),
		errors.Is(err, parser.ErrMultipleContentLength),
		errors.Is(err, parser.ErrBadTransferEncoding),
		errors.Is(err, parser.ErrBadConnection),
		errors.Is(err, parser.ErrBadUpgrade),
		errors.Is(err, parser.ErrBadExpect):
		return newError(KindFraming, err)

	case errors.Is(err, parser.ErrBadFieldName),
		errors.Is(err, parser.ErrBadFieldValue),
		errors.Is(err, parser.ErrBadFieldSmuggle),
		errors.Is(err, header.ErrBadFieldName),
		errors.Is(err, header.ErrBadFieldValue),
		errors.Is(err, header.ErrFieldSmuggle):
		return newError(KindMalformed, err)

	case errors.Is(err, filter.ErrFilter),
		errors.Is(err, serializer.ErrFilterFailed):
		return newError(KindFilter, err)

	case errors.Is(err, serializer.ErrSourceFailed):
		return newError(KindIO, err)

	default:
		return newError(KindMalformed, err)
	}
}

func (e *Error) Error() string { return e.err.Error() }

// Unwrap exposes the underlying sentinel so errors.Is(err,
// parser.ErrBodyLimitExceeded) keeps working through an *Error.
func (e *Error) Unwrap() error { return e.err }

// Kind reports this error's category.
func (e *Error) Kind() Kind { return e.kind }

// LogicError marks a contract violation: calling an API out of
// sequence, a double Start, mutating after completion. These are
// programming bugs, not runtime conditions a well-behaved caller
// reacts to, so they surface as a panic value rather than a returned
// error — recoverable only via recover() in code that chooses to.
type LogicError struct {
	msg string
}

func (e *LogicError) Error() string { return e.msg }

// AsLogicError converts r (typically the value recovered from a panic
// originating in header/parser/serializer) into a typed LogicError,
// unwrapping the plain-string panics those packages raise. It accepts
// any string or error value, whatever its origin, and reports false
// only for other panic values.
func AsLogicError(r any) (*LogicError, bool) {
	switch v := r.(type) {
	case *LogicError:
		return v, true
	case string:
		return &LogicError{msg: v}, true
	case error:
		return &LogicError{msg: v.Error()}, true
	default:
		return nil, false
	}
}
