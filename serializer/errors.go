package serializer

import "errors"

// Sentinel errors returned by Prepare. ErrNeedData and
// ErrExpect100Continue are flow-control signals, not faults; all
// others are unrecoverable and require Reset before reuse.
var (
	// ErrNeedData is returned by Prepare for Stream style when no body
	// bytes are queued and the stream has not been closed.
	ErrNeedData = errors.New("serializer: need more data")

	// ErrExpect100Continue is returned exactly once, immediately after
	// the header of a request declaring Expect: 100-continue has been
	// fully consumed, to signal the caller to await the interim
	// response before sending the body.
	ErrExpect100Continue = errors.New("serializer: awaiting 100-continue")

	// ErrBodyLimitExceeded is returned when the body supplied by the
	// active style exceeds Config.BodyLimit.
	ErrBodyLimitExceeded = errors.New("serializer: body exceeds configured limit")

	// ErrSourceFailed is returned in place of a hard error from a
	// Source's Read method; the Source's own error is not retained. It
	// taints the serializer; only Reset recovers.
	ErrSourceFailed = errors.New("serializer: source read failed")

	// ErrFilterFailed is returned in place of a failure reported by the
	// optional encoding filter; the filter's own error is not retained.
	ErrFilterFailed = errors.New("serializer: content-encoding filter failed")
)
