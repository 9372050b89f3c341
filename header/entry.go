package header

import "github.com/watt-toolkit/httpcore/grammar"

// FieldID is either a well-known field code the metadata layer tracks,
// or IDUnknown for every other field name. It is computed once per
// insert from the field name and cached on the entry so that
// metadata hooks never have to re-compare names.
type FieldID uint8

const (
	IDUnknown FieldID = iota
	IDConnection
	IDContentLength
	IDExpect
	IDTransferEncoding
	IDUpgrade
	IDContentEncoding
)

var wellKnownNames = []struct {
	id   FieldID
	name string
}{
	{IDConnection, "Connection"},
	{IDContentLength, "Content-Length"},
	{IDExpect, "Expect"},
	{IDTransferEncoding, "Transfer-Encoding"},
	{IDUpgrade, "Upgrade"},
	{IDContentEncoding, "Content-Encoding"},
}

// classify maps a field name to its FieldID, case-insensitively.
func classify(name []byte) FieldID {
	for _, w := range wellKnownNames {
		if grammar.EqualFold(name, []byte(w.name)) {
			return w.id
		}
	}
	return IDUnknown
}

// entry is one field-entry record: offsets and lengths into Store.buf,
// plus the cached FieldID. Offsets are relative to the start of buf
// (which includes the start-line prefix), not relative to the field
// area alone.
//
// Capacities are bounded to 16 bits; Go doesn't need the narrower
// width for memory-layout reasons the way a manual-memory
// implementation would (see DESIGN.md D1), but the bound is kept as an
// explicit capacity check (maxFieldOffset) so header blocks stay
// capped at 64 KiB.
type entry struct {
	nameOffset  int
	nameLen     int
	valueOffset int
	valueLen    int
	id          FieldID
}

func (e entry) name(buf []byte) []byte {
	return buf[e.nameOffset : e.nameOffset+e.nameLen]
}

func (e entry) value(buf []byte) []byte {
	return buf[e.valueOffset : e.valueOffset+e.valueLen]
}

// maxFieldOffset is the 16-bit ceiling on a single header block's char
// area: 64 KiB - 1.
const maxFieldOffset = 1<<16 - 1
