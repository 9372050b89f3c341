package header

import (
	"bytes"

	"github.com/watt-toolkit/httpcore/grammar"
	"github.com/watt-toolkit/httpcore/metadata"
)

// validateAndPrepare checks name/value against the field-name and
// field-value grammars, rewrites any obsolete line fold to spaces, and
// returns owned copies of both. Returning copies (rather than tracking
// and rebasing up to two aliased ranges the way a manual-memory
// implementation would) is how self-modification safety is handled
// here: a copy made before any buffer mutation can never be
// invalidated by that mutation, which sidesteps the whole rebasing
// problem at the cost of one small allocation per call.
func validateAndPrepare(name, value []byte) (cleanName, cleanValue []byte, err error) {
	if !grammar.ValidToken(name) {
		return nil, nil, ErrBadFieldName
	}
	v := value
	if grammar.HasObsFold(v) {
		v = grammar.RewriteObsFold(v)
	}
	if bytes.ContainsAny(v, "\r\n") {
		return nil, nil, ErrFieldSmuggle
	}
	fvr := grammar.FieldValue(v)
	if !grammar.ValidFieldValueBytes(fvr.Value) {
		return nil, nil, ErrBadFieldValue
	}
	cleanName = append([]byte(nil), name...)
	cleanValue = append([]byte(nil), fvr.Value...)
	return cleanName, cleanValue, nil
}

// fieldLineLen returns the number of bytes "Name:[ Value]\r\n" occupies
// on the wire.
func fieldLineLen(name, value []byte) int {
	n := len(name) + 1 + 2 // name + ':' + CRLF
	if len(value) > 0 {
		n += 1 + len(value) // ' ' + value
	}
	return n
}

// insertRaw splices a single validated field at byte position insertPos
// (which must equal entries[idx].nameOffset, or Size()-2 for idx ==
// Count()) and inserts the corresponding entry at index idx. It does
// not touch metadata; callers refresh metadata afterward.
func (s *Store) insertRaw(idx int, name, value []byte) error {
	insertPos := s.size() - 2
	if idx < len(s.entries) {
		insertPos = s.entries[idx].nameOffset
	}

	lineLen := fieldLineLen(name, value)
	if s.size()+lineLen > s.maxCapacity {
		return ErrLengthError
	}
	if s.size()+lineLen > maxFieldOffset {
		return ErrLengthError
	}
	if len(s.entries)+1 > 1<<16-1 {
		return ErrLengthError
	}

	if err := s.ReserveBytes(s.size() + lineLen); err != nil {
		return err
	}

	s.buf = append(s.buf, make([]byte, lineLen)...)
	copy(s.buf[insertPos+lineLen:], s.buf[insertPos:len(s.buf)-lineLen])

	line := s.buf[insertPos : insertPos+lineLen]
	n := copy(line, name)
	line[n] = ':'
	n++
	valueOffset := insertPos + n
	if len(value) > 0 {
		line[n] = ' '
		n++
		valueOffset = insertPos + n
		n += copy(line[n:], value)
	}
	line[n] = '\r'
	line[n+1] = '\n'

	for i := range s.entries {
		if s.entries[i].nameOffset >= insertPos {
			s.entries[i].nameOffset += lineLen
			s.entries[i].valueOffset += lineLen
		}
	}

	newEntry := entry{
		nameOffset:  insertPos,
		nameLen:     len(name),
		valueOffset: valueOffset,
		valueLen:    len(value),
		id:          classify(name),
	}
	s.entries = append(s.entries, entry{})
	copy(s.entries[idx+1:], s.entries[idx:])
	s.entries[idx] = newEntry
	return nil
}

// eraseRaw removes the entry at idx, compacting the char area, and
// returns the removed entry's FieldID for the caller to rescan.
func (s *Store) eraseRaw(idx int) FieldID {
	e := s.entries[idx]
	lineLen := e.nameOffset2End() - e.nameOffset
	copy(s.buf[e.nameOffset:], s.buf[e.nameOffset+lineLen:])
	s.buf = s.buf[:len(s.buf)-lineLen]

	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	for i := range s.entries {
		if s.entries[i].nameOffset >= e.nameOffset {
			s.entries[i].nameOffset -= lineLen
			s.entries[i].valueOffset -= lineLen
		}
	}
	return e.id
}

// nameOffset2End returns the offset just past this entry's trailing
// CRLF, i.e. where the next field (or the terminating blank line)
// begins.
func (e entry) nameOffset2End() int {
	end := e.valueOffset + e.valueLen + 2 // value + CRLF
	if e.valueLen == 0 {
		end = e.nameOffset + e.nameLen + 1 + 2 // name + ':' + CRLF
	}
	return end
}

func (s *Store) size() int { return len(s.buf) }

func (s *Store) valuesForID(id FieldID) [][]byte {
	var vals [][]byte
	for _, e := range s.entries {
		if e.id == id {
			vals = append(vals, e.value(s.buf))
		}
	}
	return vals
}

func (s *Store) rescanCategory(id FieldID) {
	switch id {
	case IDConnection:
		s.meta.Connection = metadata.RescanConnection(s.valuesForID(id))
	case IDContentLength:
		s.meta.ContentLength = metadata.RescanContentLength(s.valuesForID(id))
	case IDExpect:
		s.meta.Expect = metadata.RescanExpect(s.valuesForID(id))
	case IDTransferEncoding:
		s.meta.TransferEncoding = metadata.RescanTransferEncoding(s.valuesForID(id))
	case IDUpgrade:
		s.meta.Upgrade = metadata.RescanUpgrade(s.valuesForID(id), s.version)
	case IDContentEncoding:
		s.meta.ContentEncoding = metadata.RescanContentEncoding(s.valuesForID(id))
	}
}

func (s *Store) refreshPayload() {
	s.meta.RefreshPayload(s.kind, s.version, s.statusCode)
}

// Append adds a field at the end of the fields area. Append never
// invalidates iterators (indices) to pre-existing entries.
func (s *Store) Append(name, value []byte) error {
	return s.InsertBefore(len(s.entries), name, value)
}

// InsertBefore inserts a field immediately before the entry currently
// at index idx (idx == Count() appends at the end). idx must be a
// valid index obtained from this store since its last modifying
// operation; like the C++ original, iterators (indices) are not
// stable across modifying operations other than Append.
func (s *Store) InsertBefore(idx int, name, value []byte) error {
	if idx < 0 || idx > len(s.entries) {
		panic("header: index out of range")
	}
	cleanName, cleanValue, err := validateAndPrepare(name, value)
	if err != nil {
		return err
	}
	if err := s.insertRaw(idx, cleanName, cleanValue); err != nil {
		return err
	}
	s.rescanCategory(classify(cleanName))
	s.refreshPayload()
	return nil
}

// Erase removes the field at index idx.
func (s *Store) Erase(idx int) error {
	if idx < 0 || idx >= len(s.entries) {
		panic("header: index out of range")
	}
	id := s.eraseRaw(idx)
	s.rescanCategory(id)
	s.refreshPayload()
	return nil
}

// EraseAll removes every field matching name (case-insensitive) and
// returns how many were removed.
func (s *Store) EraseAll(name []byte) int {
	id := classify(name)
	n := 0
	for i := 0; i < len(s.entries); {
		if grammar.EqualFold(s.entries[i].name(s.buf), name) {
			s.eraseRaw(i)
			n++
			continue
		}
		i++
	}
	if n > 0 {
		s.rescanCategory(id)
		s.refreshPayload()
	}
	return n
}

// Set replaces the value of the field at index idx, preserving its
// name and position.
func (s *Store) Set(idx int, value []byte) error {
	if idx < 0 || idx >= len(s.entries) {
		panic("header: index out of range")
	}
	name := append([]byte(nil), s.entries[idx].name(s.buf)...)
	oldValue := append([]byte(nil), s.entries[idx].value(s.buf)...)
	_, cleanValue, err := validateAndPrepare(name, value)
	if err != nil {
		return err
	}
	id := s.eraseRaw(idx)
	if err := s.insertRaw(idx, name, cleanValue); err != nil {
		// The capacity check in insertRaw runs before any buffer bytes
		// are touched, so the erase above is the only mutation that
		// happened; restore the original field to leave the store
		// exactly as it was before this call.
		_ = s.insertRaw(idx, name, oldValue)
		s.rescanCategory(id)
		s.refreshPayload()
		return err
	}
	s.rescanCategory(id)
	s.refreshPayload()
	return nil
}

// SetByName removes every field matching name, then appends a single
// field with the given value.
func (s *Store) SetByName(name, value []byte) error {
	s.EraseAll(name)
	return s.Append(name, value)
}

// NameAt returns the name of the field at index idx.
func (s *Store) NameAt(idx int) []byte { return s.entries[idx].name(s.buf) }

// ValueAt returns the value of the field at index idx.
func (s *Store) ValueAt(idx int) []byte { return s.entries[idx].value(s.buf) }

// IDAt returns the FieldID of the field at index idx.
func (s *Store) IDAt(idx int) FieldID { return s.entries[idx].id }

// Find returns the index of the first field matching name
// (case-insensitive), or -1 if none match.
func (s *Store) Find(name []byte) int {
	for i, e := range s.entries {
		if grammar.EqualFold(e.name(s.buf), name) {
			return i
		}
	}
	return -1
}

// VisitAll calls visitor for every field in order, stopping early if
// visitor returns false.
func (s *Store) VisitAll(visitor func(name, value []byte) bool) {
	for _, e := range s.entries {
		if !visitor(e.name(s.buf), e.value(s.buf)) {
			return
		}
	}
}
