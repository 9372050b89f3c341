package grammar

import "bytes"

// Version is the two HTTP/1.x versions this codec understands.
type Version uint8

const (
	HTTP10 Version = iota
	HTTP11
)

func (v Version) String() string {
	if v == HTTP11 {
		return "HTTP/1.1"
	}
	return "HTTP/1.0"
}

// RequestLine is the parsed result of the request-line grammar:
//
//	request-line = method SP request-target SP HTTP-version CRLF
type RequestLine struct {
	Method  []byte
	Target  []byte
	Version Version
	// End is the offset just past the terminating CRLF.
	End int
}

var (
	http10Bytes = []byte("HTTP/1.0")
	http11Bytes = []byte("HTTP/1.1")
)

// ParseRequestLine parses a request-line starting at pos. It locates
// the terminating CRLF itself: ErrNeedMore means no CRLF is present in
// buf yet (wait for more bytes), and ErrMismatch means the line is
// present but malformed.
func ParseRequestLine(buf []byte, pos int) (RequestLine, error) {
	lineEnd := bytes.Index(buf[pos:], []byte("\r\n"))
	if lineEnd == -1 {
		return RequestLine{}, ErrNeedMore
	}
	line := buf[pos : pos+lineEnd]

	sp1 := bytes.IndexByte(line, ' ')
	if sp1 <= 0 {
		return RequestLine{}, ErrMismatch
	}
	method := line[:sp1]
	if _, _, err := Token(method, 0); err != nil {
		return RequestLine{}, ErrMismatch
	}

	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 <= 0 {
		return RequestLine{}, ErrMismatch
	}
	target := rest[:sp2]
	if len(target) == 0 {
		return RequestLine{}, ErrMismatch
	}

	versionBytes := rest[sp2+1:]
	var version Version
	switch {
	case bytes.Equal(versionBytes, http11Bytes):
		version = HTTP11
	case bytes.Equal(versionBytes, http10Bytes):
		version = HTTP10
	default:
		return RequestLine{}, ErrMismatch
	}

	return RequestLine{
		Method:  method,
		Target:  target,
		Version: version,
		End:     pos + lineEnd + 2,
	}, nil
}

// StatusLine is the parsed result of the status-line grammar:
//
//	status-line = HTTP-version SP status-code SP reason-phrase CRLF
type StatusLine struct {
	Version Version
	Code    int
	Reason  []byte
	End     int
}

// ParseStatusLine parses a status-line starting at pos, with the same
// ErrNeedMore/ErrMismatch contract as ParseRequestLine.
func ParseStatusLine(buf []byte, pos int) (StatusLine, error) {
	lineEnd := bytes.Index(buf[pos:], []byte("\r\n"))
	if lineEnd == -1 {
		return StatusLine{}, ErrNeedMore
	}
	line := buf[pos : pos+lineEnd]

	sp1 := bytes.IndexByte(line, ' ')
	if sp1 <= 0 {
		return StatusLine{}, ErrMismatch
	}
	versionBytes := line[:sp1]
	var version Version
	switch {
	case bytes.Equal(versionBytes, http11Bytes):
		version = HTTP11
	case bytes.Equal(versionBytes, http10Bytes):
		version = HTTP10
	default:
		return StatusLine{}, ErrMismatch
	}

	rest := line[sp1+1:]
	if len(rest) < 3 {
		return StatusLine{}, ErrMismatch
	}
	codeBytes := rest[:3]
	code := 0
	for _, b := range codeBytes {
		if b < '0' || b > '9' {
			return StatusLine{}, ErrMismatch
		}
		code = code*10 + int(b-'0')
	}

	reason := rest[3:]
	if len(reason) > 0 {
		if reason[0] != ' ' {
			return StatusLine{}, ErrMismatch
		}
		reason = reason[1:]
	}
	for _, b := range reason {
		if !isVChar(b) && b != ' ' && b != '\t' {
			return StatusLine{}, ErrMismatch
		}
	}

	return StatusLine{
		Version: version,
		Code:    code,
		Reason:  reason,
		End:     pos + lineEnd + 2,
	}, nil
}
