package serializer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/watt-toolkit/httpcore/header"
)

func newResponse(t *testing.T, status int, fields [][2]string) *header.Store {
	t.Helper()
	s := header.NewResponse()
	if err := s.SetStatus(status); err != nil {
		t.Fatal(err)
	}
	for _, f := range fields {
		if err := s.Append([]byte(f[0]), []byte(f[1])); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

// drain pulls every ready buffer from p until IsDone, concatenating
// the wire bytes produced. It treats ErrExpect100Continue as an event
// the caller would react to out-of-band and just continues.
func drain(t *testing.T, p *Serializer) []byte {
	t.Helper()
	var out bytes.Buffer
	for !p.IsDone() {
		bufs, err := p.Prepare()
		switch {
		case err == nil:
			n := 0
			for _, b := range bufs {
				out.Write(b)
				n += len(b)
			}
			p.Consume(n)
		case errors.Is(err, ErrExpect100Continue):
			continue
		case errors.Is(err, ErrNeedData):
			t.Fatal("drain: ErrNeedData with no pending input; test would hang")
		default:
			t.Fatalf("Prepare: %v", err)
		}
	}
	return out.Bytes()
}

func TestSerializeEmptyBody(t *testing.T) {
	p := NewSerializer(DefaultConfig())
	defer p.Release()

	s := newResponse(t, 204, [][2]string{{"Connection", "close"}})
	p.StartEmpty(s)

	got := string(drain(t, p))
	if got != string(s.Bytes()) {
		t.Fatalf("output = %q, want header bytes only %q", got, s.Bytes())
	}
	if p.State() != StateDone {
		t.Fatalf("state = %v", p.State())
	}
}

func TestSerializeBuffersSizedBody(t *testing.T) {
	p := NewSerializer(DefaultConfig())
	defer p.Release()

	s := newResponse(t, 200, [][2]string{{"Content-Length", "13"}})
	p.StartBuffers(s, [][]byte{[]byte("hello, "), []byte("world!")})

	got := string(drain(t, p))
	want := string(s.Bytes()) + "hello, world!"
	if got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestSerializeChunkedBody(t *testing.T) {
	p := NewSerializer(DefaultConfig())
	defer p.Release()

	s := newResponse(t, 200, [][2]string{{"Transfer-Encoding", "chunked"}})
	p.StartBuffers(s, [][]byte{[]byte("hello, world!")})

	got := string(drain(t, p))
	want := string(s.Bytes()) + "d\r\nhello, world!\r\n0\r\n\r\n"
	if got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestSerializeChunkedWithTrailer(t *testing.T) {
	p := NewSerializer(DefaultConfig())
	defer p.Release()

	s := newResponse(t, 200, [][2]string{{"Transfer-Encoding", "chunked"}, {"Trailer", "X-Checksum"}})
	stream := p.StartStream(s)

	dst := stream.Prepare()
	n := copy(dst, "payload")
	stream.Commit(n)

	trailer := header.NewFields()
	if err := trailer.Append([]byte("X-Checksum"), []byte("deadbeef")); err != nil {
		t.Fatal(err)
	}
	stream.CloseWithTrailer(trailer)

	got := string(drain(t, p))
	want := string(s.Bytes()) + "7\r\npayload\r\n0\r\nX-Checksum: deadbeef\r\n\r\n"
	if got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

type sliceSource struct {
	parts [][]byte
	i     int
}

func (s *sliceSource) Read(p []byte) (int, bool, error) {
	if s.i >= len(s.parts) {
		return 0, true, nil
	}
	n := copy(p, s.parts[s.i])
	s.i++
	return n, s.i >= len(s.parts), nil
}

func TestSerializeSourceBody(t *testing.T) {
	p := NewSerializer(DefaultConfig())
	defer p.Release()

	s := newResponse(t, 200, [][2]string{{"Transfer-Encoding", "chunked"}})
	src := &sliceSource{parts: [][]byte{[]byte("ab"), []byte("cd")}}
	p.StartSource(s, src)

	got := string(drain(t, p))
	want := string(s.Bytes()) + "2\r\nab\r\n2\r\ncd\r\n0\r\n\r\n"
	if got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

type failingSource struct{}

func (failingSource) Read(p []byte) (int, bool, error) {
	return 0, false, errors.New("boom")
}

func TestSerializeSourceFailureFaults(t *testing.T) {
	p := NewSerializer(DefaultConfig())
	defer p.Release()

	s := newResponse(t, 200, [][2]string{{"Transfer-Encoding", "chunked"}})
	p.StartSource(s, failingSource{})

	// The first Prepare already calls fill(), which pulls from the
	// source alongside the header bytes, so the failure surfaces here.
	_, err := p.Prepare()
	if !errors.Is(err, ErrSourceFailed) {
		t.Fatalf("first Prepare: err = %v, want ErrSourceFailed", err)
	}
	if p.State() != StateFaulted {
		t.Fatalf("state = %v, want faulted", p.State())
	}

	_, err = p.Prepare() // a faulted serializer keeps returning the same error
	if !errors.Is(err, ErrSourceFailed) {
		t.Fatalf("err = %v, want ErrSourceFailed", err)
	}
}

func TestSerializeExpect100Continue(t *testing.T) {
	p := NewSerializer(DefaultConfig())
	defer p.Release()

	s := header.NewRequest()
	if err := s.SetMethod([]byte("POST")); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTarget([]byte("/upload")); err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]byte("Expect"), []byte("100-continue")); err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]byte("Content-Length"), []byte("5")); err != nil {
		t.Fatal(err)
	}
	p.StartBuffers(s, [][]byte{[]byte("hello")})

	bufs, err := p.Prepare()
	if err != nil {
		t.Fatalf("header Prepare: %v", err)
	}
	n := 0
	for _, b := range bufs {
		n += len(b)
	}
	p.Consume(n)

	if _, err := p.Prepare(); !errors.Is(err, ErrExpect100Continue) {
		t.Fatalf("Prepare = %v, want ErrExpect100Continue", err)
	}
	if p.State() != StateStreamingBody {
		t.Fatalf("state = %v", p.State())
	}

	bufs, err = p.Prepare()
	if err != nil {
		t.Fatalf("body Prepare: %v", err)
	}
	got := ""
	for _, b := range bufs {
		got += string(b)
	}
	if got != "hello" {
		t.Fatalf("body = %q", got)
	}
}

func TestSerializeBodyLimitExceeded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BodyLimit = 4
	p := NewSerializer(cfg)
	defer p.Release()

	s := newResponse(t, 200, [][2]string{{"Transfer-Encoding", "chunked"}})
	p.StartBuffers(s, [][]byte{[]byte("too much data")})

	bufs, _ := p.Prepare() // already faults: fill() pulls the whole body on the first Prepare
	n := 0
	for _, b := range bufs {
		n += len(b)
	}
	p.Consume(n)

	_, err := p.Prepare()
	if !errors.Is(err, ErrBodyLimitExceeded) {
		t.Fatalf("err = %v, want ErrBodyLimitExceeded", err)
	}
	if p.State() != StateFaulted {
		t.Fatalf("state = %v", p.State())
	}
}

func TestReuseAfterReset(t *testing.T) {
	p := NewSerializer(DefaultConfig())
	defer p.Release()

	s1 := newResponse(t, 200, [][2]string{{"Content-Length", "2"}})
	p.StartBuffers(s1, [][]byte{[]byte("hi")})
	drain(t, p)
	if p.State() != StateDone {
		t.Fatalf("state = %v", p.State())
	}

	s2 := newResponse(t, 204, nil)
	p.StartEmpty(s2)
	got := string(drain(t, p))
	if got != string(s2.Bytes()) {
		t.Fatalf("output = %q, want %q", got, s2.Bytes())
	}
}
