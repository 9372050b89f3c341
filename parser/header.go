package parser

import (
	"bytes"

	"github.com/watt-toolkit/httpcore/grammar"
	"github.com/watt-toolkit/httpcore/header"
)

// parseHeader resumes header parsing from p.headerCursor (an absolute
// offset into p.buf). Each sub-piece — the start-line, then each field
// — is only ever acted on once: as soon as it's fully recognized, its
// effect (a Store mutation) is applied and the cursor moves past it,
// so a later call that resumes after an ErrNeedMore never re-applies
// anything already committed.
func (p *Parser) parseHeader() error {
	if !p.startLineDone {
		rl, err := p.parseStartLine(p.buf[p.pos:p.size])
		if err != nil {
			if err == grammar.ErrNeedMore {
				return p.checkHeaderLimit(p.size - p.pos)
			}
			return translateStartLineError()
		}
		p.startLineDone = true
		p.headerCursor = p.pos + rl
	}

	cursor := p.headerCursor
	for {
		if cursor+2 <= p.size && p.buf[cursor] == '\r' && p.buf[cursor+1] == '\n' {
			if err := p.checkHeaderLimit(cursor + 2 - p.pos); err != nil {
				return err
			}
			p.pos = cursor + 2
			p.startLineDone = false
			p.headerCursor = 0
			p.fieldCount = 0
			p.state = StateHeaderDone
			return nil
		}

		name, value, next, err := scanField(p.buf[:p.size], cursor)
		if err != nil {
			if err == grammar.ErrNeedMore {
				p.headerCursor = cursor
				return p.checkHeaderLimit(p.size - p.pos)
			}
			return ErrBadFieldName
		}
		if p.cfg.MaxFieldSize > 0 && len(name)+len(value) > p.cfg.MaxFieldSize {
			return ErrFieldSizeLimit
		}
		p.fieldCount++
		if p.cfg.MaxFields > 0 && p.fieldCount > p.cfg.MaxFields {
			return ErrFieldsLimit
		}
		if err := p.store.Append(name, value); err != nil {
			return translateStoreError(err)
		}
		cursor = next
		p.headerCursor = cursor
	}
}

func (p *Parser) checkHeaderLimit(buffered int) error {
	if p.cfg.MaxHeaderSize > 0 && buffered > p.cfg.MaxHeaderSize {
		return ErrHeadersLimit
	}
	return nil
}

// parseStartLine parses the request-line or status-line at the front
// of data (relative to p.pos) and applies it to p.store, returning the
// offset just past its terminating CRLF, relative to data.
func (p *Parser) parseStartLine(data []byte) (int, error) {
	switch p.kind {
	case header.KindRequest:
		rl, err := grammar.ParseRequestLine(data, 0)
		if err != nil {
			return 0, err
		}
		if err := p.store.SetVersion(rl.Version); err != nil {
			return 0, err
		}
		if err := p.store.SetMethod(rl.Method); err != nil {
			return 0, err
		}
		if err := p.store.SetTarget(rl.Target); err != nil {
			return 0, err
		}
		return rl.End, nil
	case header.KindResponse:
		sl, err := grammar.ParseStatusLine(data, 0)
		if err != nil {
			return 0, err
		}
		if err := p.store.SetVersion(sl.Version); err != nil {
			return 0, err
		}
		if err := p.store.SetStatus(sl.Code); err != nil {
			return 0, err
		}
		if err := p.store.SetReason(sl.Reason); err != nil {
			return 0, err
		}
		return sl.End, nil
	default:
		panic("parser: unsupported store kind")
	}
}

// scanField locates one header field starting at the absolute offset
// pos: a token name up to a colon, then a value that may continue
// across obs-folded continuation lines (lines beginning with SP or
// HTAB). It returns the raw, not-yet-unfolded value bytes
// (header.Store.Append rewrites any fold before storing) and the
// absolute offset of the next field or the terminating blank line.
func scanField(data []byte, pos int) (name, rawValue []byte, next int, err error) {
	colon := bytes.IndexByte(data[pos:], ':')
	if colon == -1 {
		return nil, nil, pos, grammar.ErrNeedMore
	}
	name = data[pos : pos+colon]
	if !grammar.ValidToken(name) {
		return nil, nil, pos, grammar.ErrMismatch
	}
	valueStart := pos + colon + 1

	end := valueStart
	for {
		crlf := bytes.Index(data[end:], []byte("\r\n"))
		if crlf == -1 {
			return nil, nil, pos, grammar.ErrNeedMore
		}
		lineEnd := end + crlf
		after := lineEnd + 2
		if after >= len(data) {
			return nil, nil, pos, grammar.ErrNeedMore
		}
		if data[after] == ' ' || data[after] == '\t' {
			end = after
			continue
		}
		return name, data[valueStart:lineEnd], after, nil
	}
}

// translateStartLineError maps a start-line grammar failure to a
// parser sentinel. grammar.ParseRequestLine/ParseStatusLine only ever
// fail here with ErrMismatch or ErrEndOfRange (ErrNeedMore is handled
// by the caller before this is reached) — both mean the same thing to
// a caller: the start-line itself is malformed.
func translateStartLineError() error {
	return ErrBadFieldValue
}

func translateStoreError(err error) error {
	switch err {
	case header.ErrBadFieldName:
		return ErrBadFieldName
	case header.ErrBadFieldValue:
		return ErrBadFieldValue
	case header.ErrFieldSmuggle:
		return ErrBadFieldSmuggle
	case header.ErrLengthError:
		return ErrHeadersLimit
	default:
		return err
	}
}
