// Package serializer implements the incremental HTTP/1.1 message
// serializer: the dual of parser. A caller supplies a header.Store
// plus one of four body styles (empty, buffer sequence, source
// callback, or an inverted-control stream), and drains ready-to-send
// bytes through a prepare/consume flow, with optional content-encoding
// and optional chunked transfer-encoding framing applied transparently.
package serializer

import (
	"strconv"

	"github.com/watt-toolkit/httpcore/filter"
	"github.com/watt-toolkit/httpcore/header"
	"github.com/watt-toolkit/httpcore/metadata"
	"github.com/watt-toolkit/httpcore/workspace"
)

var crlf = []byte("\r\n")

// Serializer is not safe for concurrent use. Construct one with
// NewSerializer and reuse it across messages via StartEmpty/
// StartBuffers/StartSource/StartStream.
type Serializer struct {
	cfg Config
	ws  *workspace.Workspace

	store *header.Store
	state State
	err   error

	style bodyStyle

	headerBytes []byte
	headerRead  int
	headerDone  bool

	needsExpect100 bool
	chunked        bool

	// pending holds buffers not yet drained into outbuf, for the
	// buffers and stream styles. styleSource never populates it;
	// its bytes come from a per-fill src.Read call instead.
	pending   [][]byte
	moreInput bool

	src        Source
	srcScratch []byte

	trailer *header.Store

	enc           filter.Filter
	filterScratch []byte
	encFinished   bool

	// outbuf holds wire-ready body bytes (chunk-framed and/or
	// filtered, as configured) produced so far but not yet handed to
	// the caller. It is backed by the workspace, growing the same way
	// parser.stage does: abandon the old reservation, request a
	// bigger one, copy the live prefix forward.
	outbuf []byte
	outRead int

	bodyComplete  bool
	bodyDelivered uint64
}

// NewSerializer constructs a serializer with the given configuration.
func NewSerializer(cfg Config) *Serializer {
	return &Serializer{cfg: cfg, ws: workspace.Acquire(), state: StateIdle}
}

// State reports the serializer's current state.
func (p *Serializer) State() State { return p.state }

// IsDone reports whether the current message has been fully
// serialized and consumed.
func (p *Serializer) IsDone() bool { return p.state == StateDone || p.state == StateIdle }

// Release returns the serializer's workspace to its pool. The
// serializer must not be used afterward.
func (p *Serializer) Release() {
	p.ws.Release()
}

// SetBodyLimit adjusts the body-size ceiling for the message currently
// in flight, or the next one started.
func (p *Serializer) SetBodyLimit(n uint64) {
	p.cfg.BodyLimit = n
}

// Reset aborts any in-flight message and returns the serializer to
// StateIdle, tearing down any filter placed in the workspace.
func (p *Serializer) Reset() {
	p.ws.Clear()
	p.store = nil
	p.state = StateIdle
	p.err = nil
	p.style = styleEmpty
	p.headerBytes = nil
	p.headerRead = 0
	p.headerDone = false
	p.needsExpect100 = false
	p.chunked = false
	p.pending = nil
	p.moreInput = false
	p.src = nil
	p.srcScratch = nil
	p.trailer = nil
	p.enc = nil
	p.filterScratch = nil
	p.encFinished = false
	p.outbuf = nil
	p.outRead = 0
	p.bodyComplete = false
	p.bodyDelivered = 0
}

// startInit resets the serializer for a new message and classifies
// the header's Expect/Transfer-Encoding/Content-Encoding the same way
// a parser's enterBody does, then installs an encoding filter tied to
// the workspace's lifetime when configured and the header declares a
// coding other than identity.
func (p *Serializer) startInit(store *header.Store) {
	if p.state != StateIdle && p.state != StateDone {
		panic("serializer: Start called while a message is still in flight")
	}
	p.Reset()

	p.store = store
	m := store.Metadata()
	p.needsExpect100 = store.Kind() == header.KindRequest && m.Expect.Is100Continue
	p.chunked = m.TransferEncoding.IsChunked
	p.headerBytes = store.Bytes()

	var wantEncoder bool
	switch m.ContentEncoding {
	case metadata.EncodingDeflate:
		wantEncoder = p.cfg.ApplyDeflateEncoder
	case metadata.EncodingGzip:
		wantEncoder = p.cfg.ApplyGzipEncoder
	case metadata.EncodingBrotli:
		wantEncoder = p.cfg.ApplyBrotliEncoder
	}
	if wantEncoder {
		var enc filter.Filter
		switch m.ContentEncoding {
		case metadata.EncodingDeflate:
			enc = filter.NewDeflateEncoder(p.cfg.ZlibLevel)
		case metadata.EncodingGzip:
			enc = filter.NewGzipEncoder(p.cfg.ZlibLevel)
		case metadata.EncodingBrotli:
			enc = filter.NewBrotliEncoder(p.cfg.BrotliQuality)
		}
		p.enc = enc
		p.ws.OnClear(enc.Close)
	}

	if p.needsExpect100 {
		p.state = StateExp100Pending
	} else {
		p.state = StateStreamingBody
	}
}

// StartEmpty begins serializing store with no body at all (beyond the
// terminating zero-chunk, if the header declares chunked framing).
func (p *Serializer) StartEmpty(store *header.Store) {
	p.startInit(store)
	p.style = styleEmpty
	p.moreInput = false
}

// StartBuffers begins serializing store with bufs as the complete
// body. bufs is not copied; the caller must keep the underlying bytes
// valid until IsDone returns true.
func (p *Serializer) StartBuffers(store *header.Store, bufs [][]byte) {
	p.startInit(store)
	p.style = styleBuffers
	p.pending = append([][]byte(nil), bufs...)
	p.moreInput = false
}

// StartSource begins serializing store with src supplying body bytes,
// pulled one read at a time as the caller drains output.
func (p *Serializer) StartSource(store *header.Store, src Source) {
	p.startInit(store)
	p.style = styleSource
	p.src = src
	p.moreInput = true
}

// StartStream begins serializing store with an inverted-control body:
// the returned Stream exposes Prepare/Commit/Close for the caller to
// push body bytes in, independent of this Serializer's own
// Prepare/Consume loop draining output. Either side may drive the
// event loop; there is no hidden suspension.
func (p *Serializer) StartStream(store *header.Store) *Stream {
	p.startInit(store)
	p.style = styleStream
	p.moreInput = true
	return &Stream{sr: p}
}

// Prepare returns the next slice of ready-to-send buffers. It returns
// ErrExpect100Continue exactly once, right after the header of a
// request declaring Expect: 100-continue has been fully consumed, and
// ErrNeedData when a Stream body has nothing queued and is not yet
// closed.
func (p *Serializer) Prepare() ([][]byte, error) {
	if p.state == StateFaulted {
		return nil, p.err
	}
	if p.state == StateDone || p.state == StateIdle {
		panic("serializer: Prepare called while is_done")
	}

	if p.needsExpect100 {
		if !p.headerDone {
			return [][]byte{p.headerBytes[p.headerRead:]}, nil
		}
		p.needsExpect100 = false
		p.state = StateStreamingBody
		return nil, ErrExpect100Continue
	}

	if p.outRead == len(p.outbuf) && !p.bodyComplete {
		if err := p.fill(); err != nil {
			p.state = StateFaulted
			p.err = err
			return nil, err
		}
	}

	var out [][]byte
	if p.headerRead < len(p.headerBytes) {
		out = append(out, p.headerBytes[p.headerRead:])
	}
	if p.outRead < len(p.outbuf) {
		out = append(out, p.outbuf[p.outRead:])
	}
	if len(out) == 0 {
		return nil, ErrNeedData
	}
	return out, nil
}

// Consume reports that n bytes of the buffers returned by the prior
// Prepare call have been sent. n greater than the output available is
// clamped rather than treated as an error.
func (p *Serializer) Consume(n int) {
	if (p.state == StateDone || p.state == StateIdle) && n != 0 {
		panic("serializer: Consume called while is_done")
	}
	if n < 0 {
		panic("serializer: negative Consume")
	}

	if !p.headerDone {
		headerRemain := len(p.headerBytes) - p.headerRead
		if n < headerRemain {
			p.headerRead += n
			return
		}
		n -= headerRemain
		p.headerRead = len(p.headerBytes)
		p.headerDone = true
	}

	remain := len(p.outbuf) - p.outRead
	if n > remain {
		n = remain
	}
	p.outRead += n
	if p.outRead == len(p.outbuf) {
		p.outbuf = p.outbuf[:0]
		p.outRead = 0
	}

	if p.outRead < len(p.outbuf) {
		return
	}
	if p.needsExpect100 {
		return
	}
	if !p.bodyComplete {
		return
	}
	p.state = StateDone
}

// pullNext returns the next raw (pre-filter, pre-chunk-framing) body
// bytes available right now. last reports that these are the final
// bytes the body will ever offer. A nil raw with last false (only
// possible for the stream style) means no data is queued yet, and the
// caller is not closed.
func (p *Serializer) pullNext() (raw []byte, last bool, err error) {
	switch p.style {
	case styleBuffers, styleStream:
		for len(p.pending) > 0 && len(p.pending[0]) == 0 {
			p.pending = p.pending[1:]
		}
		if len(p.pending) == 0 {
			return nil, !p.moreInput, nil
		}
		raw = p.pending[0]
		p.pending = p.pending[1:]
		last = !p.moreInput && len(p.pending) == 0
		return raw, last, nil

	case styleSource:
		if p.srcScratch == nil {
			sz := p.cfg.PayloadBufferSize
			if sz <= 0 {
				sz = 8192
			}
			p.srcScratch = make([]byte, sz)
		}
		n, finished, rerr := p.src.Read(p.srcScratch)
		if rerr != nil {
			return nil, false, rerr
		}
		if finished {
			p.moreInput = false
		}
		return p.srcScratch[:n], finished, nil

	default: // styleEmpty
		return nil, true, nil
	}
}

// fill pulls one round of body input and stages its wire-ready form
// (filtered and/or chunk-framed) into outbuf. It is only called when
// outbuf has been fully drained by the caller.
func (p *Serializer) fill() error {
	raw, last, err := p.pullNext()
	if err != nil {
		return ErrSourceFailed
	}
	if len(raw) == 0 && !last {
		// Stream style with nothing committed yet; Prepare surfaces
		// ErrNeedData since outbuf stays empty.
		return nil
	}

	if len(raw) > 0 {
		p.bodyDelivered += uint64(len(raw))
		if p.cfg.BodyLimit > 0 && p.bodyDelivered > p.cfg.BodyLimit {
			return ErrBodyLimitExceeded
		}
	}

	deliver := func(b []byte) {
		if len(b) == 0 {
			return
		}
		if p.chunked {
			p.appendChunk(b)
		} else {
			p.appendRaw(b)
		}
	}

	if p.enc == nil {
		deliver(raw)
	} else if err := p.filterThrough(raw, last, deliver); err != nil {
		return err
	}

	if last && (p.enc == nil || p.encFinished) {
		p.finalizeBody()
	}
	return nil
}

// filterThrough runs raw bytes through the installed encoding filter,
// delivering each produced run to deliver as soon as it's available.
// final says raw is the last input the body will ever offer.
func (p *Serializer) filterThrough(raw []byte, final bool, deliver func(b []byte)) error {
	if p.filterScratch == nil {
		sz := p.cfg.PayloadBufferSize
		if sz <= 0 {
			sz = 8192
		}
		p.filterScratch = make([]byte, sz)
	}
	scratch := p.filterScratch
	in := raw
	for {
		r := p.enc.Process(scratch, in, !final || len(in) > 0)
		if r.Err != nil {
			return ErrFilterFailed
		}
		if r.Produced > 0 {
			deliver(scratch[:r.Produced])
		}
		in = in[r.Consumed:]
		if r.Finished {
			p.encFinished = true
			return nil
		}
		if len(in) == 0 && r.Produced == 0 {
			return nil
		}
	}
}

// finalizeBody appends the chunked terminator (plain zero-chunk, or
// with the caller's trailer fields via CloseWithTrailer) when chunked
// framing is in effect, and marks the body complete either way.
func (p *Serializer) finalizeBody() {
	if p.chunked {
		if p.trailer != nil && p.trailer.Count() > 0 {
			p.appendFinalChunkWithTrailer()
		} else {
			p.appendRaw([]byte("0\r\n\r\n"))
		}
	}
	p.bodyComplete = true
}

func (p *Serializer) appendFinalChunkWithTrailer() {
	p.appendRaw([]byte("0\r\n"))
	p.trailer.VisitAll(func(name, value []byte) bool {
		p.appendRaw(name)
		p.appendRaw([]byte(":"))
		if len(value) > 0 {
			p.appendRaw([]byte(" "))
			p.appendRaw(value)
		}
		p.appendRaw(crlf)
		return true
	})
	p.appendRaw(crlf)
}

// growOut ensures outbuf can hold extra more bytes appended to its
// current content, growing the workspace reservation backing it the
// same way parser.growStage does.
func (p *Serializer) growOut(extra int) {
	need := len(p.outbuf) + extra
	if need <= cap(p.outbuf) {
		return
	}
	newCap := cap(p.outbuf)
	if newCap == 0 {
		newCap = 4096
	}
	for newCap < need {
		newCap *= 2
	}
	fresh := p.ws.ReserveUninitialized(newCap)
	copy(fresh, p.outbuf)
	p.outbuf = fresh[:len(p.outbuf)]
}

func (p *Serializer) appendRaw(b []byte) {
	p.growOut(len(b))
	n := len(p.outbuf)
	p.outbuf = p.outbuf[:n+len(b)]
	copy(p.outbuf[n:], b)
}

// appendChunk writes one chunked-transfer-coding chunk (hex size,
// CRLF, data, CRLF) to outbuf, writing the chunk-size as variable-width
// lowercase hex with no zero padding.
func (p *Serializer) appendChunk(data []byte) {
	hdr := strconv.FormatInt(int64(len(data)), 16)
	p.appendRaw([]byte(hdr))
	p.appendRaw(crlf)
	p.appendRaw(data)
	p.appendRaw(crlf)
}
