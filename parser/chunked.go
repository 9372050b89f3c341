package parser

import (
	"bytes"

	"github.com/watt-toolkit/httpcore/grammar"
)

type chunkPhase int

const (
	chunkPhaseSize chunkPhase = iota
	chunkPhaseExt
	chunkPhaseData
	chunkPhaseDataCRLF
	chunkPhaseTrailer
	chunkPhaseDone
)

// chunkState tracks progress through the chunked transfer-coding's
// framing: chunk-size, an optional chunk-extension, the chunk's data
// bytes, the CRLF that follows each chunk's data, and the trailer
// section up to its terminating blank line. Trailer fields are
// scanned past but never stored: chunked-body trailers aren't
// surfaced through the header store.
type chunkState struct {
	phase     chunkPhase
	remaining uint64 // data bytes left in the chunk currently being read
}

// pumpChunked advances raw bytes from p.buf[p.pos:p.size] through the
// chunked framing, calling deliver with each run of chunk-data bytes
// exactly once, as soon as it's recognized: every phase transition
// below moves p.pos forward in the same step that applies its effect,
// so a call that returns for lack of input and resumes later never
// redelivers bytes already handed to deliver. It reports done once the
// trailer section's terminating CRLF has been consumed.
func (p *Parser) pumpChunked(deliver func([]byte) error) (done bool, err error) {
	for {
		switch p.chunk.phase {
		case chunkPhaseSize:
			size, next, serr := p.scanChunkSize(p.buf[:p.size], p.pos)
			if serr != nil {
				if serr == grammar.ErrNeedMore {
					return false, nil
				}
				return false, ErrBadPayload
			}
			p.pos = next
			p.chunk.remaining = size
			p.chunk.phase = chunkPhaseExt

		case chunkPhaseExt:
			crlf := bytes.Index(p.buf[p.pos:p.size], []byte("\r\n"))
			if crlf == -1 {
				return false, nil
			}
			p.pos += crlf + 2
			if p.chunk.remaining == 0 {
				p.chunk.phase = chunkPhaseTrailer
			} else {
				p.chunk.phase = chunkPhaseData
			}

		case chunkPhaseData:
			avail := p.size - p.pos
			if avail == 0 {
				return false, nil
			}
			n := avail
			if uint64(n) > p.chunk.remaining {
				n = int(p.chunk.remaining)
			}
			if err := deliver(p.buf[p.pos : p.pos+n]); err != nil {
				return false, err
			}
			p.pos += n
			p.chunk.remaining -= uint64(n)
			if p.chunk.remaining == 0 {
				p.chunk.phase = chunkPhaseDataCRLF
			} else {
				return false, nil
			}

		case chunkPhaseDataCRLF:
			if p.size-p.pos < 2 {
				return false, nil
			}
			if p.buf[p.pos] != '\r' || p.buf[p.pos+1] != '\n' {
				return false, ErrBadPayload
			}
			p.pos += 2
			p.chunk.phase = chunkPhaseSize

		case chunkPhaseTrailer:
			crlf := bytes.Index(p.buf[p.pos:p.size], []byte("\r\n"))
			if crlf == -1 {
				return false, nil
			}
			if crlf == 0 {
				p.pos += 2
				p.chunk.phase = chunkPhaseDone
				return true, nil
			}
			p.pos += crlf + 2

		case chunkPhaseDone:
			return true, nil
		}
	}
}

// scanChunkSize parses the hex chunk-size token bounded at its
// terminator — the ';' opening a chunk-extension, or the CRLF ending a
// bare chunk-size — so it never accepts a run of hex digits that might
// still be continuing past the end of the buffered data, the way
// calling grammar.HexNumber directly against an unbounded tail could.
func (p *Parser) scanChunkSize(data []byte, pos int) (size uint64, next int, err error) {
	i := pos
	for i < len(data) {
		b := data[i]
		if (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F') {
			i++
			continue
		}
		break
	}
	if i >= len(data) {
		return 0, pos, grammar.ErrNeedMore
	}
	if i == pos {
		return 0, pos, grammar.ErrMismatch
	}
	v, next2, herr := grammar.HexNumber(data[:i], pos)
	if herr != nil || next2 != i {
		return 0, pos, grammar.ErrMismatch
	}
	return v, i, nil
}
