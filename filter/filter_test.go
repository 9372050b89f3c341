package filter

import (
	"bytes"
	"testing"
	"time"
)

func TestIdentityCopiesAndFinishes(t *testing.T) {
	var f Identity
	out := make([]byte, 5)
	r := f.Process(out, []byte("hello"), false)
	if r.Consumed != 5 || r.Produced != 5 || !r.Finished {
		t.Fatalf("unexpected result: %+v", r)
	}
	if string(out) != "hello" {
		t.Fatalf("got %q", out)
	}
}

func TestDeflateRoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 50)
	roundTrip(t, NewDeflateEncoder(6), NewDeflateDecoder(), plain)
}

func TestGzipRoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("gzip round trip payload "), 40)
	roundTrip(t, NewGzipEncoder(6), NewGzipDecoder(), plain)
}

func TestBrotliRoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("brotli round trip payload "), 40)
	roundTrip(t, NewBrotliEncoder(4), NewBrotliDecoder(), plain)
}

// roundTrip feeds plain through enc to produce compressed bytes, then
// drives dec over those bytes in small chunks and checks the output
// matches plain exactly.
func roundTrip(t *testing.T, enc, dec Filter, plain []byte) {
	t.Helper()

	var compressed bytes.Buffer
	chunk := make([]byte, 4096)
	pos := 0
	for pos < len(plain) {
		end := pos + 256
		if end > len(plain) {
			end = len(plain)
		}
		r := enc.Process(chunk, plain[pos:end], true)
		compressed.Write(chunk[:r.Produced])
		pos += r.Consumed
		if r.Err != nil {
			t.Fatalf("encode error: %v", r.Err)
		}
	}
	// Final call with no input and moreInput=false closes the stream
	// and flushes any trailing bytes; keep calling until Finished.
	for {
		r := enc.Process(chunk, nil, false)
		compressed.Write(chunk[:r.Produced])
		if r.Err != nil {
			t.Fatalf("encode close error: %v", r.Err)
		}
		if r.Finished {
			break
		}
	}
	enc.Close()

	var decoded bytes.Buffer
	compBytes := compressed.Bytes()
	cpos := 0
	deadline := time.Now().Add(5 * time.Second)
	for {
		more := cpos < len(compBytes)
		end := cpos + 128
		if end > len(compBytes) {
			end = len(compBytes)
		}
		r := dec.Process(chunk, compBytes[cpos:end], more)
		decoded.Write(chunk[:r.Produced])
		cpos += r.Consumed
		if r.Err != nil {
			t.Fatalf("decode error: %v", r.Err)
		}
		if r.Finished {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("decode did not finish in time")
		}
	}
	dec.Close()

	if !bytes.Equal(decoded.Bytes(), plain) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", decoded.Len(), len(plain))
	}
}
