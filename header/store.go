// Package header implements the header container: a mutable store
// that holds a start-line plus an ordered set of fields, incrementally
// maintaining the metadata summaries of the metadata package on every
// insert, erase, and set, plus the read-only message views built on
// top of it.
//
// See DESIGN.md D1 for why the store is two slices (buf + entries)
// rather than one shared allocation with a reverse-growing tail table,
// as the C++ original does.
package header

import (
	"errors"

	"github.com/watt-toolkit/httpcore/grammar"
	"github.com/watt-toolkit/httpcore/metadata"
)

// Kind distinguishes the three header store shapes: a bare field list,
// a request (method + target + fields), or a response (status +
// reason + fields).
type Kind = metadata.Kind

const (
	KindFields   = metadata.KindFields
	KindRequest  = metadata.KindRequest
	KindResponse = metadata.KindResponse
)

// ErrLengthError is returned when an operation would grow the store
// beyond MaxCapacity, or beyond its 16-bit offset/length/count
// ceilings.
var ErrLengthError = errors.New("header: length error")

// ErrBadFieldName is returned when a field name fails the token
// grammar.
var ErrBadFieldName = errors.New("header: bad field name")

// ErrBadFieldValue is returned when a field value fails the
// field-value grammar.
var ErrBadFieldValue = errors.New("header: bad field value")

// ErrFieldSmuggle is returned when a field value contains an embedded
// CRLF that would terminate the field early and smuggle a second field
// or request into the wire stream.
var ErrFieldSmuggle = errors.New("header: embedded CRLF in field value")

const defaultMaxCapacity = maxFieldOffset

// Store is the header container. The zero value is not usable;
// construct one with NewFields, NewRequest, or NewResponse.
type Store struct {
	buf     []byte
	entries []entry // ascending by nameOffset

	kind    Kind
	version grammar.Version
	prefix  int // length of the start-line, including its CRLF

	maxCapacity int

	// request-only
	methodID FieldMethod
	// response-only
	statusCode int

	meta metadata.Summary
}

// FieldMethod is the request method enumeration request views expose
// as MethodID. Convenience enums over header fields are out of scope
// generally, but the store still needs a method code internally to
// answer MethodID() in O(1); this is the minimal enum the store itself
// depends on.
type FieldMethod uint8

const (
	MethodGet FieldMethod = iota
	MethodOther
)

func classifyMethod(m []byte) FieldMethod {
	if grammar.EqualFold(m, []byte("GET")) {
		return MethodGet
	}
	return MethodOther
}

// NewFields creates an empty fields-only container: default body is a
// bare blank line.
func NewFields() *Store {
	s := &Store{kind: KindFields, version: grammar.HTTP11, maxCapacity: defaultMaxCapacity}
	s.buf = append(s.buf, "\r\n"...)
	s.prefix = 0
	return s
}

// NewRequest creates an empty request container with the default
// start-line "GET / HTTP/1.1".
func NewRequest() *Store {
	s := &Store{kind: KindRequest, version: grammar.HTTP11, maxCapacity: defaultMaxCapacity}
	s.buf = append(s.buf, "GET / HTTP/1.1\r\n\r\n"...)
	s.prefix = 16
	s.methodID = MethodGet
	s.refreshPayload()
	return s
}

// NewResponse creates an empty response container with the default
// start-line "HTTP/1.1 200 OK".
func NewResponse() *Store {
	s := &Store{kind: KindResponse, version: grammar.HTTP11, maxCapacity: defaultMaxCapacity}
	s.buf = append(s.buf, "HTTP/1.1 200 OK\r\n\r\n"...)
	s.prefix = 17
	s.statusCode = 200
	s.refreshPayload()
	return s
}

// Kind reports whether this store is a fields, request, or response
// container.
func (s *Store) Kind() Kind { return s.kind }

// Version reports the HTTP version the start-line declares.
func (s *Store) Version() grammar.Version { return s.version }

// SetVersion changes the declared HTTP version, which can change
// Upgrade's validity and keep-alive's derivation; metadata is
// refreshed accordingly. It does not rewrite the start-line bytes
// themselves beyond updating a request/response's version token; call
// SetMethod/SetTarget/SetStatus/SetReason for those if also needed —
// here we simply rewrite the version token within the existing
// prefix slot.
func (s *Store) SetVersion(v grammar.Version) error {
	if s.kind == KindFields {
		s.version = v
		s.rescanCategory(IDUpgrade)
		s.refreshPayload()
		return nil
	}
	newTok := "HTTP/1.0"
	if v == grammar.HTTP11 {
		newTok = "HTTP/1.1"
	}
	if s.kind == KindRequest {
		rl, err := grammar.ParseRequestLine(s.buf, 0)
		if err != nil {
			return err
		}
		if err := s.rewriteStartLine(methodText(s, rl), rl.Target, newTok); err != nil {
			return err
		}
		s.version = v
		s.rescanCategory(IDUpgrade)
		s.refreshPayload()
		return nil
	}
	sl, err := grammar.ParseStatusLine(s.buf, 0)
	if err != nil {
		return err
	}
	if err := s.rewriteStartLine(newTok, statusCodeBytes(sl.Code), sl.Reason); err != nil {
		return err
	}
	s.version = v
	s.rescanCategory(IDUpgrade)
	s.refreshPayload()
	return nil
}

func methodText(s *Store, rl grammar.RequestLine) string { return string(rl.Method) }

// MaxCapacity returns the configured capacity ceiling.
func (s *Store) MaxCapacity() int { return s.maxCapacity }

// SetMaxCapacity adjusts the capacity ceiling. It never shrinks below
// the store's current size.
func (s *Store) SetMaxCapacity(n int) error {
	if n < len(s.buf) {
		return ErrLengthError
	}
	if n > maxFieldOffset {
		n = maxFieldOffset
	}
	s.maxCapacity = n
	return nil
}

// Size returns the total number of payload bytes (start-line + fields
// + terminating blank line).
func (s *Store) Size() int { return len(s.buf) }

// Count returns the number of field entries.
func (s *Store) Count() int { return len(s.entries) }

// Metadata returns the current metadata summary. The returned value is
// a snapshot copy; mutating it has no effect on the store.
func (s *Store) Metadata() metadata.Summary { return s.meta }

// ReserveBytes grows the backing buffer to hold at least n payload
// bytes, doubling capacity as needed up to MaxCapacity.
func (s *Store) ReserveBytes(n int) error {
	if n > s.maxCapacity {
		return ErrLengthError
	}
	if cap(s.buf) >= n {
		return nil
	}
	newCap := cap(s.buf)
	if newCap == 0 {
		newCap = 64
	}
	for newCap < n {
		newCap *= 2
	}
	if newCap > s.maxCapacity {
		newCap = s.maxCapacity
	}
	grown := make([]byte, len(s.buf), newCap)
	copy(grown, s.buf)
	s.buf = grown
	return nil
}

// ShrinkToFit reallocates the backing buffer to the minimal size
// needed for the current content.
func (s *Store) ShrinkToFit() {
	if cap(s.buf) == len(s.buf) {
		return
	}
	shrunk := make([]byte, len(s.buf))
	copy(shrunk, s.buf)
	s.buf = shrunk
}

// Clear resets the store to its kind's default start-line, preserving
// the backing buffer's capacity.
func (s *Store) Clear() {
	buf := s.buf[:0]
	switch s.kind {
	case KindFields:
		buf = append(buf, "\r\n"...)
		s.prefix = 0
	case KindRequest:
		buf = append(buf, "GET / HTTP/1.1\r\n\r\n"...)
		s.prefix = 16
		s.methodID = MethodGet
	case KindResponse:
		buf = append(buf, "HTTP/1.1 200 OK\r\n\r\n"...)
		s.prefix = 17
		s.statusCode = 200
	}
	s.buf = buf
	s.entries = s.entries[:0]
	s.version = grammar.HTTP11
	s.meta = metadata.Summary{}
	s.refreshPayload()
}

// Bytes returns the complete on-wire byte representation: start-line,
// every field, and the terminating blank line. The returned slice
// aliases the store's internal buffer and is invalidated by any
// mutating call.
func (s *Store) Bytes() []byte { return s.buf }
