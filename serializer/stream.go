package serializer

import "github.com/watt-toolkit/httpcore/header"

// Stream is the inverted-control body style: the caller that started
// it pushes body bytes in via Prepare/Commit while the Serializer's
// own Prepare/Consume loop drains wire-ready output on its own
// schedule. Neither side suspends waiting on the other; an empty
// Serializer.Prepare result (ErrNeedData) just means nothing has been
// committed yet.
type Stream struct {
	sr     *Serializer
	closed bool
	cur    []byte // outstanding region returned by the last Prepare call
}

// IsOpen reports whether Close has not yet been called.
func (s *Stream) IsOpen() bool { return !s.closed }

// Capacity returns the size of the region Prepare would currently
// return, without allocating one.
func (s *Stream) Capacity() int {
	sz := s.sr.cfg.PayloadBufferSize
	if sz <= 0 {
		sz = 8192
	}
	return sz
}

// Prepare returns a writable region for the caller to fill with body
// bytes. Exactly one Prepare must be outstanding at a time; call
// Commit before the next Prepare.
func (s *Stream) Prepare() []byte {
	if s.closed {
		panic("serializer: Stream.Prepare called after Close")
	}
	if s.cur != nil {
		panic("serializer: Stream.Prepare called with an uncommitted reservation")
	}
	s.cur = make([]byte, s.Capacity())
	return s.cur
}

// Commit queues the first n bytes of the region returned by the last
// Prepare call as body data ready to be drained by the Serializer.
func (s *Stream) Commit(n int) {
	if s.cur == nil {
		panic("serializer: Stream.Commit without a matching Prepare")
	}
	if n < 0 || n > len(s.cur) {
		panic("serializer: Stream.Commit out of range of the last Prepare")
	}
	if n > 0 {
		s.sr.pending = append(s.sr.pending, s.cur[:n])
	}
	s.cur = nil
}

// Close signals that no further Commit calls will occur, letting the
// Serializer finalize the body (appending the chunked terminator, if
// framing is chunked) once queued bytes are drained.
func (s *Stream) Close() {
	if s.closed {
		panic("serializer: Stream.Close called twice")
	}
	s.closed = true
	s.cur = nil
	s.sr.moreInput = false
}

// CloseWithTrailer is Close, additionally supplying trailer fields to
// emit after the final chunk when chunked framing is in effect.
// Ignored (beyond being recorded) for non-chunked bodies.
func (s *Stream) CloseWithTrailer(trailer *header.Store) {
	s.sr.trailer = trailer
	s.Close()
}
