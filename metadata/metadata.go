// Package metadata implements the incrementally-maintained semantic
// summaries of the special header fields: parsed views of the Connection,
// Content-Length, Expect, Transfer-Encoding, Upgrade, and
// Content-Encoding fields, plus the payload classification and
// keep-alive rules derived from them. Nothing here scans the whole
// header store; each Rescan* function rebuilds one category's summary
// from that category's field values, and the header store calls the
// affected category's Rescan* after every insert, erase, or set rather
// than updating counters per field.
package metadata

import (
	"github.com/watt-toolkit/httpcore/grammar"
)

// ContentEncoding is the recognized set of Content-Encoding codings.
type ContentEncoding int

const (
	EncodingIdentity ContentEncoding = iota
	EncodingDeflate
	EncodingGzip
	EncodingBrotli
	EncodingUnknown
)

// Connection summarizes every Connection field seen so far.
type Connection struct {
	Count         int
	HasClose      bool
	HasKeepAlive  bool
	HasUpgrade    bool
	ParseError    bool
}

// ContentLength summarizes every Content-Length field seen so far.
type ContentLength struct {
	Count      int
	Value      uint64
	ParseError bool // multiple_content_length: differing values
}

// Expect summarizes every Expect field seen so far.
type Expect struct {
	Count         int
	Is100Continue bool
	ParseError    bool
}

// TransferEncoding summarizes every Transfer-Encoding field seen so far.
type TransferEncoding struct {
	Count      int
	Codings    []grammar.TransferCoding
	IsChunked  bool
	Encoding   ContentEncoding // the non-chunked coding immediately preceding chunked, if any
	ParseError bool
}

// Upgrade summarizes every Upgrade field seen so far.
type Upgrade struct {
	Count      int
	Websocket  bool
	ParseError bool
}

// Payload is the derived body-framing classification.
type Payload int

const (
	PayloadNone Payload = iota
	PayloadSize
	PayloadChunked
	PayloadToEOF
	PayloadError
)

// Kind distinguishes a header store's start-line shape, since payload
// classification and keep-alive both depend on it.
type Kind int

const (
	KindFields Kind = iota
	KindRequest
	KindResponse
)

// Summary is the full metadata block attached to one header store. It
// is recomputed one category at a time: a Rescan* call rebuilds that
// category's counters and ParseError flag from all of its current
// values, and RefreshPayload recomputes Payload/PayloadSize/KeepAlive
// from the current counters plus start-line facts the header store
// passes in.
type Summary struct {
	Connection       Connection
	ContentLength    ContentLength
	Expect           Expect
	TransferEncoding TransferEncoding
	Upgrade          Upgrade
	ContentEncoding  ContentEncoding

	Payload     Payload
	PayloadSize uint64
	KeepAlive   bool
}

// parseContentEncoding maps a single Content-Encoding token to its
// ContentEncoding code.
func parseContentEncoding(tok []byte) ContentEncoding {
	switch {
	case grammar.EqualFold(tok, []byte("identity")):
		return EncodingIdentity
	case grammar.EqualFold(tok, []byte("deflate")):
		return EncodingDeflate
	case grammar.EqualFold(tok, []byte("gzip")), grammar.EqualFold(tok, []byte("x-gzip")):
		return EncodingGzip
	case grammar.EqualFold(tok, []byte("br")):
		return EncodingBrotli
	default:
		return EncodingUnknown
	}
}

// RescanConnection rebuilds the Connection summary from the values of
// every remaining Connection field (called after erasing one of
// several).
func RescanConnection(values [][]byte) Connection {
	var c Connection
	for _, v := range values {
		c.Count++
		toks, ok := grammar.SplitTokenList(v)
		if !ok {
			c.ParseError = true
			continue
		}
		for _, t := range toks {
			switch {
			case grammar.EqualFold(t, []byte("close")):
				c.HasClose = true
			case grammar.EqualFold(t, []byte("keep-alive")):
				c.HasKeepAlive = true
			case grammar.EqualFold(t, []byte("upgrade")):
				c.HasUpgrade = true
			}
		}
	}
	return c
}

// RescanContentLength rebuilds the Content-Length summary from every
// remaining value. Equal duplicate values are fine; any differing
// numeric value sets ParseError (multiple_content_length).
func RescanContentLength(values [][]byte) ContentLength {
	var cl ContentLength
	haveValue := false
	for _, v := range values {
		cl.Count++
		n, next, err := grammar.DecimalNumber(v, 0)
		if err != nil || next != len(v) {
			cl.ParseError = true
			continue
		}
		if !haveValue {
			cl.Value = n
			haveValue = true
		} else if cl.Value != n {
			cl.ParseError = true
		}
	}
	return cl
}

// RescanExpect rebuilds the Expect summary. RFC 7230 §5.1.1 permits
// only "100-continue"; any other value, or more than one Expect field,
// is a parse error.
func RescanExpect(values [][]byte) Expect {
	var e Expect
	for _, v := range values {
		e.Count++
		if grammar.EqualFold(v, []byte("100-continue")) {
			e.Is100Continue = true
		} else {
			e.ParseError = true
		}
	}
	if e.Count > 1 {
		e.ParseError = true
	}
	return e
}

// RescanTransferEncoding rebuilds the Transfer-Encoding summary.
// "chunked" must appear exactly once and only as the last coding in
// the last Transfer-Encoding field; any other arrangement is an error.
func RescanTransferEncoding(values [][]byte) TransferEncoding {
	var te TransferEncoding
	var all []grammar.TransferCoding
	for _, v := range values {
		te.Count++
		codings, ok := grammar.SplitTransferCodingList(v)
		if !ok {
			te.ParseError = true
			continue
		}
		all = append(all, codings...)
	}
	te.Codings = all
	for i, c := range all {
		if grammar.EqualFold(c.Name, []byte("chunked")) {
			if i != len(all)-1 {
				te.ParseError = true
			}
			if te.IsChunked {
				// chunked appeared more than once
				te.ParseError = true
			}
			te.IsChunked = true
		}
	}
	if te.IsChunked && len(all) >= 2 {
		te.Encoding = parseContentEncoding(all[len(all)-2].Name)
	} else {
		te.Encoding = EncodingIdentity
	}
	return te
}

// RescanUpgrade rebuilds the Upgrade summary. Upgrade is only
// meaningful under HTTP/1.1; under 1.0 it is recorded as a parse error
// (see DESIGN.md D2).
func RescanUpgrade(values [][]byte, version grammar.Version) Upgrade {
	var u Upgrade
	if version != grammar.HTTP11 {
		if len(values) > 0 {
			u.Count = len(values)
			u.ParseError = true
		}
		return u
	}
	for _, v := range values {
		u.Count++
		toks, ok := grammar.SplitTokenList(v)
		if !ok {
			u.ParseError = true
			continue
		}
		for _, t := range toks {
			if grammar.EqualFold(t, []byte("websocket")) {
				u.Websocket = true
			}
		}
	}
	return u
}

// RescanContentEncoding computes the Content-Encoding summary from the
// (at most logically one, per typical usage) set of values; the last
// coding of the last field wins, matching how Transfer-Encoding chains
// codings.
func RescanContentEncoding(values [][]byte) ContentEncoding {
	enc := EncodingIdentity
	for _, v := range values {
		toks, ok := grammar.SplitTokenList(v)
		if !ok || len(toks) == 0 {
			continue
		}
		enc = parseContentEncoding(toks[len(toks)-1])
	}
	return enc
}

// RefreshPayload recomputes Payload, PayloadSize, and KeepAlive from
// the current Content-Length/Transfer-Encoding summaries plus
// start-line facts.
func (s *Summary) RefreshPayload(kind Kind, version grammar.Version, statusCode int) {
	switch {
	case s.ContentLength.Count > 0 && s.TransferEncoding.Count > 0:
		s.Payload = PayloadError
	case s.ContentLength.ParseError || s.TransferEncoding.ParseError:
		s.Payload = PayloadError
	case kind == KindResponse && (statusCode/100 == 1 || statusCode == 204 || statusCode == 304):
		s.Payload = PayloadNone
	case s.TransferEncoding.IsChunked:
		s.Payload = PayloadChunked
	case s.ContentLength.Count > 0:
		if s.ContentLength.Value == 0 {
			s.Payload = PayloadNone
		} else {
			s.Payload = PayloadSize
		}
	case kind == KindRequest:
		s.Payload = PayloadNone
	case kind == KindResponse:
		s.Payload = PayloadToEOF
	default:
		s.Payload = PayloadNone
	}

	if s.Payload == PayloadSize {
		s.PayloadSize = s.ContentLength.Value
	} else {
		s.PayloadSize = 0
	}

	s.KeepAlive = s.computeKeepAlive(version)
}

func (s *Summary) computeKeepAlive(version grammar.Version) bool {
	if s.Payload == PayloadError || s.Payload == PayloadToEOF {
		return false
	}
	if version == grammar.HTTP11 {
		return !s.Connection.HasClose
	}
	return s.Connection.HasKeepAlive
}
