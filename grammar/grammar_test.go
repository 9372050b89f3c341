package grammar

import (
	"bytes"
	"testing"
)

func TestToken(t *testing.T) {
	cases := []struct {
		in      string
		wantTok string
		wantErr error
	}{
		{"GET /x", "GET", nil},
		{"chunked", "chunked", nil},
		{"", "", ErrNeedMore},
		{" GET", "", ErrMismatch},
	}
	for _, c := range cases {
		tok, _, err := Token([]byte(c.in), 0)
		if err != c.wantErr {
			t.Fatalf("Token(%q): err = %v, want %v", c.in, err, c.wantErr)
		}
		if err == nil && string(tok) != c.wantTok {
			t.Fatalf("Token(%q) = %q, want %q", c.in, tok, c.wantTok)
		}
	}
}

func TestParseRequestLine(t *testing.T) {
	rl, err := ParseRequestLine([]byte("POST /x HTTP/1.1\r\nHost: a\r\n\r\n"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(rl.Method) != "POST" || string(rl.Target) != "/x" || rl.Version != HTTP11 {
		t.Fatalf("unexpected parse: %+v", rl)
	}
}

func TestParseStatusLine(t *testing.T) {
	sl, err := ParseStatusLine([]byte("HTTP/1.1 200 OK\r\n\r\n"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sl.Code != 200 || string(sl.Reason) != "OK" || sl.Version != HTTP11 {
		t.Fatalf("unexpected parse: %+v", sl)
	}
}

func TestSplitTokenList(t *testing.T) {
	toks, ok := SplitTokenList([]byte("upgrade, close, keep-alive"))
	if !ok {
		t.Fatalf("expected ok")
	}
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3", len(toks))
	}
	if !bytes.Equal(toks[0], []byte("upgrade")) {
		t.Fatalf("unexpected token: %q", toks[0])
	}
}

func TestRewriteObsFold(t *testing.T) {
	got := RewriteObsFold([]byte("a\r\n b"))
	if string(got) != "a b" {
		t.Fatalf("got %q", got)
	}
}

func TestHexNumber(t *testing.T) {
	v, n, err := HexNumber([]byte("1a3\r\n"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0x1a3 || n != 3 {
		t.Fatalf("got v=%d n=%d", v, n)
	}
}
