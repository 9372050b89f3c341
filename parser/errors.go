package parser

import "errors"

// Sentinel errors returned by Parse and the body-reception calls. All
// of them except ErrNeedData and ErrEndOfMessage (when more pipelined
// data may follow) are unrecoverable: the parser requires Reset before
// reuse.
var (
	ErrEndOfStream  = errors.New("parser: end of stream")
	ErrEndOfMessage = errors.New("parser: end of message")
	ErrIncomplete   = errors.New("parser: incomplete message at end of stream")
	ErrNeedData     = errors.New("parser: need more data")

	ErrHeadersLimit   = errors.New("parser: headers exceed configured limit")
	ErrFieldSizeLimit = errors.New("parser: field exceeds configured size limit")
	ErrFieldsLimit    = errors.New("parser: too many fields")

	ErrBodyLimitExceeded = errors.New("parser: body exceeds configured limit")
	ErrBufferOverflow    = errors.New("parser: elastic buffer exceeded its maximum size")

	ErrBadPayload            = errors.New("parser: malformed body framing")
	ErrBadContentLength      = errors.New("parser: malformed Content-Length")
	ErrMultipleContentLength = errors.New("parser: conflicting Content-Length values")
	ErrBadTransferEncoding   = errors.New("parser: malformed Transfer-Encoding")
	ErrBadConnection         = errors.New("parser: malformed Connection")
	ErrBadUpgrade            = errors.New("parser: malformed Upgrade")
	ErrBadExpect             = errors.New("parser: malformed Expect")
	ErrBadFieldName          = errors.New("parser: malformed field name")
	ErrBadFieldValue         = errors.New("parser: malformed field value")
	ErrBadFieldSmuggle       = errors.New("parser: embedded CRLF in field value")
)
