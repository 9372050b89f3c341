package httpcore

import (
	"bytes"
	"errors"
	"testing"

	"github.com/watt-toolkit/httpcore/header"
	"github.com/watt-toolkit/httpcore/metadata"
	"github.com/watt-toolkit/httpcore/parser"
	"github.com/watt-toolkit/httpcore/serializer"
)

func newCtx(t *testing.T) *Context {
	t.Helper()
	c := NewContext()
	c.InstallParserService(DefaultParserConfig())
	c.InstallSerializerService(DefaultSerializerConfig())
	return c
}

func serializeAll(t *testing.T, s *serializer.Serializer) []byte {
	t.Helper()
	var out bytes.Buffer
	for !s.IsDone() {
		bufs, err := s.Prepare()
		switch {
		case err == nil:
			n := 0
			for _, b := range bufs {
				out.Write(b)
				n += len(b)
			}
			s.Consume(n)
		case errors.Is(err, serializer.ErrExpect100Continue):
			continue
		default:
			t.Fatalf("Prepare: %v", err)
		}
	}
	return out.Bytes()
}

func feedAll(t *testing.T, p *parser.Parser, data []byte, chunkSize int) error {
	t.Helper()
	for len(data) > 0 {
		n := chunkSize
		if n > len(data) || n <= 0 {
			n = len(data)
		}
		dst := p.Prepare(n)
		copy(dst, data[:n])
		p.Commit(n)
		data = data[n:]
		if err := p.Parse(); err != nil && err != parser.ErrNeedData {
			return err
		}
	}
	return p.Parse()
}

// TestScenario1 mirrors the concrete sized-body example: a POST with
// Content-Length 5 round-trips through both directions exactly.
func TestScenario1(t *testing.T) {
	ctx := newCtx(t)

	s := header.NewRequest()
	if err := s.SetMethod([]byte("POST")); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTarget([]byte("/x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]byte("Content-Length"), []byte("5")); err != nil {
		t.Fatal(err)
	}

	ser := ctx.NewSerializer()
	defer ser.Release()
	ser.StartBuffers(s, [][]byte{[]byte("hello")})
	wire := serializeAll(t, ser)

	want := "POST /x HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"
	if string(wire) != want {
		t.Fatalf("wire = %q, want %q", wire, want)
	}

	p := ctx.NewRequestParser()
	defer p.Release()
	store := header.NewRequest()
	if err := p.Start(store); err != nil {
		t.Fatal(err)
	}
	if err := feedAll(t, p, wire, len(wire)); err != parser.ErrEndOfMessage {
		t.Fatalf("Parse = %v, want ErrEndOfMessage", err)
	}
	if string(store.Method()) != "POST" || string(store.Target()) != "/x" {
		t.Fatalf("method/target = %q %q", store.Method(), store.Target())
	}
	if store.Count() != 1 {
		t.Fatalf("field count = %d", store.Count())
	}
	if got := string(p.PullBody()); got != "hello" {
		t.Fatalf("body = %q", got)
	}
}

// TestScenario2 checks the Connection token summary for a
// comma-joined list with all three recognized tokens.
func TestScenario2(t *testing.T) {
	ctx := newCtx(t)
	p := ctx.NewRequestParser()
	defer p.Release()

	store := header.NewRequest()
	if err := p.Start(store); err != nil {
		t.Fatal(err)
	}
	raw := "GET / HTTP/1.1\r\nConnection: upgrade, close, keep-alive\r\n\r\n"
	if err := feedAll(t, p, []byte(raw), len(raw)); err != parser.ErrEndOfMessage {
		t.Fatalf("Parse = %v, want ErrEndOfMessage", err)
	}
	m := store.Metadata()
	if !m.Connection.HasClose || !m.Connection.HasKeepAlive || !m.Connection.HasUpgrade {
		t.Fatalf("connection = %+v", m.Connection)
	}
	if m.Connection.Count != 1 {
		t.Fatalf("count = %d", m.Connection.Count)
	}
}

// TestScenario3 checks the Expect:100-continue handshake end to end.
func TestScenario3(t *testing.T) {
	ctx := newCtx(t)

	s := header.NewRequest()
	if err := s.SetMethod([]byte("POST")); err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]byte("Expect"), []byte("100-continue")); err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]byte("Content-Length"), []byte("5")); err != nil {
		t.Fatal(err)
	}

	ser := ctx.NewSerializer()
	defer ser.Release()
	ser.StartBuffers(s, [][]byte{[]byte("12345")})

	bufs, err := ser.Prepare()
	if err != nil {
		t.Fatalf("first Prepare: %v", err)
	}
	n := 0
	for _, b := range bufs {
		n += len(b)
	}
	ser.Consume(n)

	if _, err := ser.Prepare(); !errors.Is(err, serializer.ErrExpect100Continue) {
		t.Fatalf("Prepare = %v, want ErrExpect100Continue", err)
	}

	bufs, err = ser.Prepare()
	if err != nil {
		t.Fatalf("body Prepare: %v", err)
	}
	got := ""
	for _, b := range bufs {
		got += string(b)
	}
	if got != "12345" {
		t.Fatalf("body = %q", got)
	}
}

// TestScenario4 checks chunked response decoding.
func TestScenario4(t *testing.T) {
	ctx := newCtx(t)
	p := ctx.NewResponseParser()
	defer p.Release()

	store := header.NewResponse()
	if err := p.Start(store); err != nil {
		t.Fatal(err)
	}
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"d\r\nhello, world!\r\n0\r\n\r\n"
	if err := feedAll(t, p, []byte(raw), 7); err != parser.ErrEndOfMessage {
		t.Fatalf("Parse = %v, want ErrEndOfMessage", err)
	}
	if got := string(p.PullBody()); got != "hello, world!" {
		t.Fatalf("body = %q", got)
	}
}

// TestScenario5 checks that a zero-length Content-Length response with
// Connection: close reports no keep-alive and no payload.
func TestScenario5(t *testing.T) {
	ctx := newCtx(t)
	p := ctx.NewResponseParser()
	defer p.Release()

	store := header.NewResponse()
	if err := p.Start(store); err != nil {
		t.Fatal(err)
	}
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: close\r\n\r\n"
	if err := feedAll(t, p, []byte(raw), len(raw)); err != parser.ErrEndOfMessage {
		t.Fatalf("Parse = %v, want ErrEndOfMessage", err)
	}
	m := store.Metadata()
	if m.KeepAlive {
		t.Fatal("keep-alive = true, want false")
	}
	if m.Payload != metadata.PayloadNone {
		t.Fatalf("payload = %v, want none", m.Payload)
	}
}

// TestScenario6 round-trips a gzip-coded, chunk-framed 1 MiB body
// through the serializer's transparent encoder and the parser's
// transparent decoder, then checks body_limit enforcement one byte
// under the actual size.
func TestScenario6(t *testing.T) {
	body := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 1<<20/44+1)
	body = body[:1 << 20]

	cfg := DefaultSerializerConfig()
	cfg.ApplyGzipEncoder = true
	ctx := NewContext()
	ctx.InstallParserService(DefaultParserConfig())
	ctx.InstallSerializerService(cfg)

	s := header.NewResponse()
	if err := s.Append([]byte("Content-Encoding"), []byte("gzip")); err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]byte("Transfer-Encoding"), []byte("chunked")); err != nil {
		t.Fatal(err)
	}

	ser := ctx.NewSerializer()
	defer ser.Release()
	ser.StartBuffers(s, [][]byte{body})
	wire := serializeAll(t, ser)

	pcfg := DefaultParserConfig()
	pcfg.ApplyGzipDecoder = true
	pcfg.BodyLimit = 1 << 20
	pctx := NewContext()
	pctx.InstallParserService(pcfg)

	p := pctx.NewResponseParser()
	defer p.Release()
	store := header.NewResponse()
	if err := p.Start(store); err != nil {
		t.Fatal(err)
	}
	if err := feedAll(t, p, wire, 4096); err != parser.ErrEndOfMessage {
		t.Fatalf("Parse = %v, want ErrEndOfMessage", err)
	}
	if got := p.PullBody(); !bytes.Equal(got, body) {
		t.Fatalf("body mismatch: got %d bytes, want %d", len(got), len(body))
	}

	pcfg.BodyLimit = 1<<20 - 1
	pctx2 := NewContext()
	pctx2.InstallParserService(pcfg)
	p2 := pctx2.NewResponseParser()
	defer p2.Release()
	store2 := header.NewResponse()
	if err := p2.Start(store2); err != nil {
		t.Fatal(err)
	}
	if err := feedAll(t, p2, wire, 4096); !errors.Is(err, parser.ErrBodyLimitExceeded) {
		t.Fatalf("Parse = %v, want ErrBodyLimitExceeded", err)
	}
}

// TestEraseAllMetadata mirrors the erase-all-Transfer-Encoding case.
func TestEraseAllMetadata(t *testing.T) {
	s := header.NewRequest()
	raw := "GET / HTTP/1.1\r\nTransfer-Encoding: gzip\r\nTransfer-Encoding: compress\r\nTransfer-Encoding: chunked\r\n\r\n"

	ctx := newCtx(t)
	p := ctx.NewRequestParser()
	defer p.Release()
	if err := p.Start(s); err != nil {
		t.Fatal(err)
	}
	// The header declares a chunked body that raw does not carry, so the
	// parser stops in the body state waiting for the first chunk size.
	if err := feedAll(t, p, []byte(raw), len(raw)); err != parser.ErrNeedData {
		t.Fatalf("Parse = %v, want ErrNeedData", err)
	}

	for {
		idx := s.Find([]byte("Transfer-Encoding"))
		if idx < 0 {
			break
		}
		if err := s.Erase(idx); err != nil {
			t.Fatal(err)
		}
	}
	m := s.Metadata()
	if m.Payload != metadata.PayloadNone {
		t.Fatalf("payload = %v, want none", m.Payload)
	}
	if m.TransferEncoding.Count != 0 || m.TransferEncoding.IsChunked {
		t.Fatalf("transfer-encoding = %+v", m.TransferEncoding)
	}
}

// TestPipelining feeds two concatenated requests to one parser.
func TestPipelining(t *testing.T) {
	ctx := newCtx(t)
	p := ctx.NewRequestParser()
	defer p.Release()

	first := "GET /a HTTP/1.1\r\nContent-Length: 0\r\n\r\n"
	second := "GET /b HTTP/1.1\r\nContent-Length: 0\r\n\r\n"

	s1 := header.NewRequest()
	if err := p.Start(s1); err != nil {
		t.Fatal(err)
	}
	// Both messages land in the parser's buffer in one Commit, so the
	// second message's bytes are present as overread when the first
	// completes.
	if err := feedAll(t, p, []byte(first+second), len(first+second)); err != parser.ErrEndOfMessage {
		t.Fatalf("first Parse = %v", err)
	}
	if string(s1.Target()) != "/a" {
		t.Fatalf("first target = %q", s1.Target())
	}

	s2 := header.NewRequest()
	if err := p.Start(s2); err != nil {
		t.Fatal(err)
	}
	if err := p.Parse(); err != parser.ErrEndOfMessage {
		t.Fatalf("second Parse = %v", err)
	}
	if string(s2.Target()) != "/b" {
		t.Fatalf("second target = %q", s2.Target())
	}
}

// TestClassifyError checks the Kind mapping for a representative
// failure from each package.
func TestClassifyError(t *testing.T) {
	err := ClassifyError(parser.ErrBodyLimitExceeded)
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("ClassifyError did not return *Error: %v", err)
	}
	if e.Kind() != KindLimitExceeded {
		t.Fatalf("kind = %v, want limit_exceeded", e.Kind())
	}
	if !errors.Is(err, parser.ErrBodyLimitExceeded) {
		t.Fatal("errors.Is through ClassifyError failed")
	}

	if got := ClassifyError(parser.ErrNeedData); got != parser.ErrNeedData {
		t.Fatalf("flow-control signal got wrapped: %v", got)
	}
}
