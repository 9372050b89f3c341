package grammar

import "bytes"

// SplitTokenList splits a comma-separated list of OWS-padded tokens,
// the grammar shared by Connection, Transfer-Encoding (minus
// parameters), and Upgrade. Empty elements (from consecutive commas or
// leading/trailing commas) are skipped, per RFC 7230 §7's "empty
// element" allowance — a list like "a,, b ,c" yields ["a","b","c"].
//
// It returns ok=false if any non-empty element fails the token
// grammar, which callers use to set a category's parse_error flag.
func SplitTokenList(value []byte) (tokens [][]byte, ok bool) {
	parts := bytes.Split(value, []byte(","))
	tokens = make([][]byte, 0, len(parts))
	for _, p := range parts {
		p = trimOWS(p)
		if len(p) == 0 {
			continue
		}
		if _, _, err := Token(p, 0); err != nil {
			return nil, false
		}
		tokens = append(tokens, p)
	}
	return tokens, true
}

func trimOWS(b []byte) []byte {
	for len(b) > 0 && isOWS(b[0]) {
		b = b[1:]
	}
	for len(b) > 0 && isOWS(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return b
}

// TransferCoding is one element of a Transfer-Encoding list: a coding
// name plus any parameters (parameters are recognized but not
// interpreted — callers only care whether the coding name is
// "chunked").
type TransferCoding struct {
	Name   []byte
	Params []byte
}

// SplitTransferCodingList splits a Transfer-Encoding value into its
// codings, tolerating ";"-introduced parameters after a coding name
// (transfer-extension parameters per RFC 7230 §4) without interpreting
// them.
func SplitTransferCodingList(value []byte) (codings []TransferCoding, ok bool) {
	parts := bytes.Split(value, []byte(","))
	codings = make([]TransferCoding, 0, len(parts))
	for _, p := range parts {
		p = trimOWS(p)
		if len(p) == 0 {
			continue
		}
		name := p
		var params []byte
		if idx := bytes.IndexByte(p, ';'); idx != -1 {
			name = trimOWS(p[:idx])
			params = p[idx:]
		}
		if _, _, err := Token(name, 0); err != nil {
			return nil, false
		}
		codings = append(codings, TransferCoding{Name: name, Params: params})
	}
	return codings, true
}

// EqualFold reports whether a and b are equal ignoring ASCII case, the
// comparison every field name and list token in HTTP/1.1 uses.
func EqualFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if toLower(a[i]) != toLower(b[i]) {
			return false
		}
	}
	return true
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 32
	}
	return b
}
