package parser

import (
	"github.com/watt-toolkit/httpcore/filter"
	"github.com/watt-toolkit/httpcore/metadata"
)

// enterBody classifies the just-finished header's payload framing
// and, when configured and the header declares a Content-Encoding
// other than identity, installs a decompression filter tied to the
// workspace's lifetime. It then moves to StateBody, or directly to
// StateCompleteInPlace for a message with no body at all.
func (p *Parser) enterBody() error {
	m := p.store.Metadata()
	p.payload = m.Payload
	switch m.Payload {
	case metadata.PayloadError:
		return ErrBadPayload
	case metadata.PayloadNone:
		p.state = StateCompleteInPlace
		return nil
	case metadata.PayloadSize:
		p.remaining = m.PayloadSize
	case metadata.PayloadChunked:
		p.chunk = chunkState{}
	case metadata.PayloadToEOF:
	}

	if p.cfg.DecodeContentEncoding && p.kind == metadata.KindResponse && m.ContentEncoding != metadata.EncodingIdentity && m.ContentEncoding != metadata.EncodingUnknown {
		dec := filter.NewDecoder(m.ContentEncoding)
		p.dec = dec
		p.ws.OnClear(dec.Close)
	}

	p.state = StateBody
	return nil
}

// growStage ensures p.stage can hold extra more bytes appended to its
// current content, growing the workspace reservation backing it by
// abandoning the old one and requesting a larger one, copying the live
// prefix forward — the same trade the workspace itself makes internally,
// since nothing else in a message's workspace needs stage's old slot
// back before Clear.
func (p *Parser) growStage(extra int) {
	need := len(p.stage) + extra
	if need <= cap(p.stage) {
		return
	}
	newCap := cap(p.stage)
	if newCap == 0 {
		newCap = 4096
	}
	for newCap < need {
		newCap *= 2
	}
	fresh := p.ws.ReserveUninitialized(newCap)
	copy(fresh, p.stage)
	p.stage = fresh[:len(p.stage)]
}

func (p *Parser) appendStage(b []byte) {
	p.growStage(len(b))
	n := len(p.stage)
	p.stage = p.stage[:n+len(b)]
	copy(p.stage[n:], b)
}

// filterThrough runs raw (already de-chunked, if applicable) body
// bytes through the installed decompression filter, if any, handing
// the result to deliver. final says this call carries the last raw
// bytes the body will ever offer; with final set, filterThrough keeps
// calling the filter until it reports Finished. deliver's own final
// argument is true only for the delivery that drains the filter's last
// buffered output (or, with no filter installed, for the one delivery
// of these bytes when final is set). pumpBody's deliver does not use
// it: a Sink learns that the body has ended from completeBody's closing
// Write(nil, false).
func (p *Parser) filterThrough(raw []byte, final bool, deliver func(b []byte, last bool) error) error {
	if p.dec == nil {
		if len(raw) > 0 {
			return deliver(raw, final)
		}
		return nil
	}
	if p.filterScratch == nil {
		p.filterScratch = make([]byte, 32*1024)
	}
	scratch := p.filterScratch
	in := raw
	for {
		r := p.dec.Process(scratch, in, !final || len(in) > 0)
		if r.Err != nil {
			return ErrBadPayload
		}
		if r.Produced > 0 {
			if err := deliver(scratch[:r.Produced], final && r.Finished); err != nil {
				return err
			}
		}
		in = in[r.Consumed:]
		if r.Finished {
			return nil
		}
		if len(in) == 0 && r.Produced == 0 && !final {
			return nil
		}
	}
}

// pumpBody advances the body's framing (and, once bytes are
// de-chunked, the optional decompression filter) as far as currently
// committed input allows, delivering finished bytes through whichever
// destination BodyMode currently names. It reports done once the
// whole body (and, for chunked framing, the trailer section) has been
// consumed.
func (p *Parser) pumpBody() (bool, error) {
	if p.bodyMode == BodyModeSink && len(p.sinkPending) > 0 {
		n, err := p.sink.Write(p.sinkPending, true)
		if err != nil {
			return false, err
		}
		p.sinkPending = p.sinkPending[n:]
		if len(p.sinkPending) > 0 {
			// Still backpressured: leave the remainder queued and make
			// no further framing progress until the sink catches up.
			return false, nil
		}
		if p.bodyFramingDone {
			return p.completeBody()
		}
	}

	deliver := func(b []byte, last bool) error {
		if len(b) == 0 {
			return nil
		}
		p.bodyDelivered += uint64(len(b))
		if p.cfg.BodyLimit > 0 && p.bodyDelivered > p.cfg.BodyLimit {
			return ErrBodyLimitExceeded
		}
		switch p.bodyMode {
		case BodyModeSink:
			if len(p.sinkPending) > 0 {
				// A still-unflushed backlog exists from an earlier
				// delivery in this same pumpBody call (chunked framing
				// can hand deliver several chunks per call); queue
				// behind it instead of writing b out of order.
				p.sinkPending = append(p.sinkPending, b...)
				return nil
			}
			n, err := p.sink.Write(b, true)
			if err != nil {
				return err
			}
			if n < len(b) {
				// Backpressure: the sink took only part of b (or none
				// of it). Keep our own copy of the unconsumed tail —
				// b may alias the input buffer or filter scratch space,
				// both of which the next Commit/Process call can
				// overwrite — and retry it before any further bytes.
				p.sinkPending = append(p.sinkPending[:0:0], b[n:]...)
			}
			return nil
		case BodyModeElastic:
			return p.elastic.Append(b)
		default:
			p.appendStage(b)
			return nil
		}
	}

	switch p.payload {
	case metadata.PayloadChunked:
		done, err := p.pumpChunked(func(raw []byte) error {
			return p.filterThrough(raw, false, deliver)
		})
		if err != nil {
			return false, err
		}
		if done {
			if err := p.filterThrough(nil, true, deliver); err != nil {
				return false, err
			}
			return p.completeBody()
		}
		return false, nil

	case metadata.PayloadSize:
		avail := p.size - p.pos
		if uint64(avail) > p.remaining {
			avail = int(p.remaining)
		}
		if avail > 0 {
			raw := p.buf[p.pos : p.pos+avail]
			final := uint64(avail) == p.remaining
			if err := p.filterThrough(raw, final, deliver); err != nil {
				return false, err
			}
			p.pos += avail
			p.remaining -= uint64(avail)
		}
		if p.remaining == 0 {
			if err := p.filterThrough(nil, true, deliver); err != nil {
				return false, err
			}
			return p.completeBody()
		}
		return false, nil

	case metadata.PayloadToEOF:
		avail := p.size - p.pos
		if avail > 0 {
			if err := p.filterThrough(p.buf[p.pos:p.size], p.eof, deliver); err != nil {
				return false, err
			}
			p.pos += avail
		}
		if p.eof {
			if err := p.filterThrough(nil, true, deliver); err != nil {
				return false, err
			}
			return p.completeBody()
		}
		return false, nil

	default:
		return p.finishBody()
	}
}

// completeBody marks body framing as fully parsed. In-place and
// elastic delivery have nothing left to wait for and finish
// immediately. Sink delivery only finishes once every byte handed to
// deliver has actually been accepted — if a backpressured tail is
// still queued, it parks here and lets pumpBody's backlog check drain
// it (and send the closing empty write) on a later call.
func (p *Parser) completeBody() (bool, error) {
	if p.bodyMode == BodyModeSink {
		if len(p.sinkPending) > 0 {
			p.bodyFramingDone = true
			return false, nil
		}
		if _, err := p.sink.Write(nil, false); err != nil {
			return false, err
		}
	}
	return p.finishBody()
}

func (p *Parser) finishBody() (bool, error) {
	if p.dec != nil {
		p.dec.Close()
		p.dec = nil
	}
	if p.bodyMode == BodyModeInPlace {
		p.state = StateCompleteInPlace
	} else {
		p.state = StateComplete
	}
	return true, nil
}
