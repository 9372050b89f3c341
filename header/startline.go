package header

import (
	"strconv"

	"github.com/watt-toolkit/httpcore/grammar"
)

// rewriteStartLine replaces the entire start-line region [0, prefix)
// with a freshly built line from the given parts, shifting every
// field entry's offsets by the resulting delta. Requests pass method,
// target and version; responses pass version, the status-code digits
// (in targetOrCode) and the reason.
func (s *Store) rewriteStartLine(methodOrVersion string, targetOrCode []byte, versionOrReason interface{}) error {
	var line []byte
	switch s.kind {
	case KindRequest:
		version := versionOrReason.(string)
		line = make([]byte, 0, len(methodOrVersion)+1+len(targetOrCode)+1+len(version)+2)
		line = append(line, methodOrVersion...)
		line = append(line, ' ')
		line = append(line, targetOrCode...)
		line = append(line, ' ')
		line = append(line, version...)
		line = append(line, '\r', '\n')
	case KindResponse:
		reason := versionOrReason.([]byte)
		line = make([]byte, 0, len(methodOrVersion)+1+len(targetOrCode)+1+len(reason)+2)
		line = append(line, methodOrVersion...)
		line = append(line, ' ')
		line = append(line, targetOrCode...)
		line = append(line, ' ')
		line = append(line, reason...)
		line = append(line, '\r', '\n')
	default:
		panic("header: rewriteStartLine on a fields-only store")
	}

	oldPrefix := s.prefix
	oldLen := len(s.buf)
	delta := len(line) - oldPrefix
	newSize := oldLen + delta
	if newSize > s.maxCapacity || newSize > maxFieldOffset {
		return ErrLengthError
	}
	if err := s.ReserveBytes(newSize); err != nil {
		return err
	}

	if delta > 0 {
		s.buf = append(s.buf, make([]byte, delta)...)
	}
	copy(s.buf[len(line):], s.buf[oldPrefix:oldLen])
	if delta < 0 {
		s.buf = s.buf[:newSize]
	}
	copy(s.buf[:len(line)], line)

	s.prefix = len(line)
	for i := range s.entries {
		s.entries[i].nameOffset += delta
		s.entries[i].valueOffset += delta
	}
	return nil
}

// Method returns the request method bytes (e.g. "GET"). Panics if this
// store is not a request.
func (s *Store) Method() []byte {
	rl, err := grammar.ParseRequestLine(s.buf, 0)
	if err != nil {
		panic("header: corrupt request start-line")
	}
	return rl.Method
}

// MethodID returns the cached method enum (see FieldMethod's doc
// comment on why only GET is distinguished).
func (s *Store) MethodID() FieldMethod { return s.methodID }

// Target returns the request-target bytes.
func (s *Store) Target() []byte {
	rl, err := grammar.ParseRequestLine(s.buf, 0)
	if err != nil {
		panic("header: corrupt request start-line")
	}
	return rl.Target
}

// SetMethod rewrites the request method, shifting the field area if
// the new method doesn't fit in the existing prefix slot.
func (s *Store) SetMethod(method []byte) error {
	if s.kind != KindRequest {
		panic("header: SetMethod on a non-request store")
	}
	if !grammar.ValidToken(method) {
		return ErrBadFieldName
	}
	rl, err := grammar.ParseRequestLine(s.buf, 0)
	if err != nil {
		return err
	}
	version := "HTTP/1.1"
	if rl.Version == grammar.HTTP10 {
		version = "HTTP/1.0"
	}
	if err := s.rewriteStartLine(string(method), rl.Target, version); err != nil {
		return err
	}
	s.methodID = classifyMethod(method)
	return nil
}

// SetTarget rewrites the request-target.
func (s *Store) SetTarget(target []byte) error {
	if s.kind != KindRequest {
		panic("header: SetTarget on a non-request store")
	}
	if len(target) == 0 {
		return ErrBadFieldValue
	}
	rl, err := grammar.ParseRequestLine(s.buf, 0)
	if err != nil {
		return err
	}
	version := "HTTP/1.1"
	if rl.Version == grammar.HTTP10 {
		version = "HTTP/1.0"
	}
	return s.rewriteStartLine(string(rl.Method), target, version)
}

// StatusCode returns the response status code.
func (s *Store) StatusCode() int {
	if s.kind != KindResponse {
		panic("header: StatusCode on a non-response store")
	}
	return s.statusCode
}

// Reason returns the response reason-phrase.
func (s *Store) Reason() []byte {
	sl, err := grammar.ParseStatusLine(s.buf, 0)
	if err != nil {
		panic("header: corrupt response start-line")
	}
	return sl.Reason
}

// SetStatus rewrites the response status code, leaving the reason
// phrase untouched.
func (s *Store) SetStatus(code int) error {
	if s.kind != KindResponse {
		panic("header: SetStatus on a non-response store")
	}
	if code < 100 || code > 999 {
		return ErrBadFieldValue
	}
	sl, err := grammar.ParseStatusLine(s.buf, 0)
	if err != nil {
		return err
	}
	version := "HTTP/1.1"
	if sl.Version == grammar.HTTP10 {
		version = "HTTP/1.0"
	}
	if err := s.rewriteStartLine(version, statusCodeBytes(code), append([]byte(nil), sl.Reason...)); err != nil {
		return err
	}
	s.statusCode = code
	s.refreshPayload()
	return nil
}

// SetReason rewrites the response reason-phrase.
func (s *Store) SetReason(reason []byte) error {
	if s.kind != KindResponse {
		panic("header: SetReason on a non-response store")
	}
	if !grammar.ValidFieldValueBytes(reason) {
		return ErrBadFieldValue
	}
	sl, err := grammar.ParseStatusLine(s.buf, 0)
	if err != nil {
		return err
	}
	version := "HTTP/1.1"
	if sl.Version == grammar.HTTP10 {
		version = "HTTP/1.0"
	}
	return s.rewriteStartLine(version, statusCodeBytes(sl.Code), reason)
}

func statusCodeBytes(code int) []byte {
	return []byte(strconv.Itoa(code))
}
