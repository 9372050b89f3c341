package metadata

import (
	"testing"

	"github.com/watt-toolkit/httpcore/grammar"
)

func TestRescanConnection(t *testing.T) {
	c := RescanConnection([][]byte{[]byte("upgrade, close, keep-alive")})
	if !c.HasClose || !c.HasKeepAlive || !c.HasUpgrade || c.Count != 1 {
		t.Fatalf("unexpected summary: %+v", c)
	}
}

func TestRescanContentLengthDuplicates(t *testing.T) {
	cl := RescanContentLength([][]byte{[]byte("5"), []byte("5")})
	if cl.ParseError || cl.Value != 5 || cl.Count != 2 {
		t.Fatalf("equal duplicates should not error: %+v", cl)
	}
	cl = RescanContentLength([][]byte{[]byte("5"), []byte("6")})
	if !cl.ParseError {
		t.Fatalf("differing values must set ParseError")
	}
}

func TestRescanTransferEncodingOrder(t *testing.T) {
	te := RescanTransferEncoding([][]byte{[]byte("gzip, chunked")})
	if !te.IsChunked || te.ParseError {
		t.Fatalf("unexpected: %+v", te)
	}
	te = RescanTransferEncoding([][]byte{[]byte("chunked, gzip")})
	if !te.ParseError {
		t.Fatalf("chunked must be last")
	}
	te = RescanTransferEncoding([][]byte{[]byte("chunked"), []byte("chunked")})
	if !te.ParseError {
		t.Fatalf("duplicate chunked must error")
	}
}

func TestRescanUpgradeUnderHTTP10(t *testing.T) {
	u := RescanUpgrade([][]byte{[]byte("websocket")}, grammar.HTTP10)
	if !u.ParseError {
		t.Fatalf("upgrade under HTTP/1.0 must be a parse error")
	}
}

func TestRefreshPayloadStatusOverridesLength(t *testing.T) {
	var s Summary
	s.ContentLength = RescanContentLength([][]byte{[]byte("50")})
	s.RefreshPayload(KindResponse, grammar.HTTP11, 204)
	if s.Payload != PayloadNone {
		t.Fatalf("204 must classify as none regardless of length, got %v", s.Payload)
	}
}

func TestRefreshPayloadBothLengthAndTransferEncodingIsError(t *testing.T) {
	var s Summary
	s.ContentLength = RescanContentLength([][]byte{[]byte("5")})
	s.TransferEncoding = RescanTransferEncoding([][]byte{[]byte("chunked")})
	s.RefreshPayload(KindRequest, grammar.HTTP11, 0)
	if s.Payload != PayloadError {
		t.Fatalf("want error, got %v", s.Payload)
	}
}

func TestKeepAliveFalseOnToEOF(t *testing.T) {
	var s Summary
	s.RefreshPayload(KindResponse, grammar.HTTP11, 200)
	if s.Payload != PayloadToEOF || s.KeepAlive {
		t.Fatalf("to_eof response must not keep-alive: %+v", s)
	}
}

func TestEraseAllTransferEncodingYieldsNone(t *testing.T) {
	var s Summary
	s.TransferEncoding = RescanTransferEncoding([][]byte{[]byte("gzip"), []byte("compress"), []byte("chunked")})
	if !s.TransferEncoding.IsChunked {
		t.Fatalf("setup: expected chunked")
	}
	s.TransferEncoding = RescanTransferEncoding(nil)
	s.RefreshPayload(KindRequest, grammar.HTTP11, 0)
	if s.Payload != PayloadNone || s.TransferEncoding.Count != 0 || s.TransferEncoding.IsChunked {
		t.Fatalf("unexpected after erase-all: %+v", s)
	}
}
