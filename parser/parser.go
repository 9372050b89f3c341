// Package parser implements the incremental HTTP/1.1 message parser:
// a state machine that consumes caller-supplied byte chunks through a
// prepare/commit/parse flow, parses a header into a header.Store, then
// delivers the body through one of three reception modes over one of
// three framing modes, with an optional transparent decompression
// filter.
package parser

import (
	"github.com/watt-toolkit/httpcore/filter"
	"github.com/watt-toolkit/httpcore/header"
	"github.com/watt-toolkit/httpcore/metadata"
	"github.com/watt-toolkit/httpcore/workspace"
)

// Parser is not safe for concurrent use. Construct one with
// NewRequestParser or NewResponseParser and reuse it across messages
// via Start.
type Parser struct {
	cfg  Config
	ws   *workspace.Workspace
	kind header.Kind

	store *header.Store

	buf  []byte
	size int // bytes filled via Commit
	pos  int // bytes fully consumed by the state machine

	preparing int // length outstanding from the last Prepare call

	eof   bool
	state State
	err   error

	// header-phase resume state: see parseHeader's doc comment.
	startLineDone bool
	headerCursor  int
	fieldCount    int

	bodyMode  BodyMode
	payload   metadata.Payload
	remaining uint64 // bytes left for size(n) framing

	chunk chunkState

	dec           filter.Filter
	filterScratch []byte // reused output buffer for dec.Process, sized once
	sink          Sink
	elastic       Elastic

	// sinkPending holds body bytes a backpressuring Sink didn't fully
	// accept on the last Write; pumpBody retries them before making any
	// further framing progress. bodyFramingDone marks that framing has
	// already reached the end of the body and only the sink backlog
	// (plus the closing empty write) is left to drain.
	sinkPending     []byte
	bodyFramingDone bool

	// stage holds decoded body bytes produced so far but not yet
	// delivered to the caller, for BodyModeInPlace. It is backed by
	// the workspace, growing by abandoning the old reservation and
	// requesting a bigger one, the same way a bump allocator backs any
	// growable structure.
	stage []byte
	// inPlaceRead is how much of stage the caller has consumed via
	// ConsumeBody; PullBody exposes stage[inPlaceRead:].
	inPlaceRead int

	bodyDelivered uint64
}

// NewRequestParser constructs a parser for request messages.
func NewRequestParser(cfg Config) *Parser {
	return &Parser{cfg: cfg, ws: workspace.Acquire(), kind: header.KindRequest, state: StateStart}
}

// NewResponseParser constructs a parser for response messages.
func NewResponseParser(cfg Config) *Parser {
	return &Parser{cfg: cfg, ws: workspace.Acquire(), kind: header.KindResponse, state: StateStart}
}

// State reports the parser's current state.
func (p *Parser) State() State { return p.state }

// Release returns the parser's workspace to its pool. The parser must
// not be used afterward.
func (p *Parser) Release() {
	p.ws.Release()
}

// Reset discards any in-flight message and returns the parser to
// StateStart, tearing down any filter placed in the workspace.
func (p *Parser) Reset() {
	p.ws.Clear()
	p.buf = p.buf[:0]
	p.size, p.pos, p.preparing = 0, 0, 0
	p.eof = false
	p.state = StateStart
	p.err = nil
	p.bodyMode = BodyModeInPlace
	p.payload = metadata.PayloadNone
	p.remaining = 0
	p.chunk = chunkState{}
	p.dec = nil
	p.sink = nil
	p.elastic = nil
	p.stage = nil
	p.inPlaceRead = 0
	p.bodyDelivered = 0
	p.sinkPending = nil
	p.bodyFramingDone = false
	p.startLineDone, p.headerCursor, p.fieldCount = false, 0, 0
}

// Start begins parsing the next message into store, which must match
// this parser's Kind. If the previous message ended in
// complete_in_place, any overread bytes belonging to this next message
// are compacted to the front of the input buffer first.
func (p *Parser) Start(store *header.Store) error {
	switch p.state {
	case StateStart, StateCompleteInPlace, StateComplete:
	default:
		panic("parser: Start called outside start/complete state")
	}
	if store.Kind() != p.kind {
		panic("parser: store kind does not match parser kind")
	}

	if p.pos > 0 {
		n := copy(p.buf, p.buf[p.pos:p.size])
		p.buf = p.buf[:n]
		p.size = n
		p.pos = 0
	}

	// The previous message's stage buffer and decompression filter (if
	// any) belong only to that message; clearing the workspace here
	// tears the filter down via its OnClear finalizer and invalidates
	// stage, the same way Reset does for a discarded message.
	p.ws.Clear()

	p.store = store
	p.state = StateHeader
	p.bodyMode = BodyModeInPlace
	p.payload = metadata.PayloadNone
	p.remaining = 0
	p.chunk = chunkState{}
	p.dec = nil
	p.sink = nil
	p.elastic = nil
	p.stage = nil
	p.inPlaceRead = 0
	p.bodyDelivered = 0
	p.sinkPending = nil
	p.bodyFramingDone = false
	p.err = nil
	return nil
}

// Prepare returns a writable region of up to n bytes (clamped to
// Config.MaxPrepare) for the caller to fill with bytes read from the
// wire, growing the input buffer as needed. Exactly one Prepare must
// be outstanding at a time; call Commit before the next Prepare.
func (p *Parser) Prepare(n int) []byte {
	if n > p.cfg.MaxPrepare && p.cfg.MaxPrepare > 0 {
		n = p.cfg.MaxPrepare
	}
	need := p.size + n
	if need > cap(p.buf) {
		grown := make([]byte, p.size, growCap(cap(p.buf), need))
		copy(grown, p.buf[:p.size])
		p.buf = grown
	}
	p.buf = p.buf[:need]
	p.preparing = n
	return p.buf[p.size:need]
}

func growCap(have, need int) int {
	if have == 0 {
		have = 4096
	}
	for have < need {
		have *= 2
	}
	return have
}

// Commit tells the parser that n bytes of the region returned by the
// last Prepare call now hold real data read from the wire.
func (p *Parser) Commit(n int) {
	if n < 0 || n > p.preparing {
		panic("parser: Commit out of range of the last Prepare")
	}
	p.size += n
	p.buf = p.buf[:p.size]
	p.preparing = 0
}

// CommitEOF marks the input stream closed: no further Prepare/Commit
// calls will ever add bytes.
func (p *Parser) CommitEOF() {
	p.eof = true
}

// Parse advances the state machine as far as the currently committed
// input allows. It returns ErrNeedData when more input is required,
// ErrEndOfMessage once the header and any in-place body have been
// fully parsed, or a specific error.
func (p *Parser) Parse() error {
	if p.state == StateFaulted {
		return p.err
	}
	for {
		switch p.state {
		case StateHeader:
			if err := p.parseHeader(); err != nil {
				return p.fault(err)
			}
			if p.state != StateHeaderDone {
				return ErrNeedData
			}
		case StateHeaderDone:
			if err := p.enterBody(); err != nil {
				return p.fault(err)
			}
		case StateBody:
			done, err := p.pumpBody()
			if err != nil {
				return p.fault(err)
			}
			if done {
				return ErrEndOfMessage
			}
			return ErrNeedData
		case StateCompleteInPlace, StateComplete:
			return ErrEndOfMessage
		default:
			return ErrNeedData
		}
	}
}

func (p *Parser) fault(err error) error {
	if err == ErrNeedData {
		return err
	}
	p.state = StateFaulted
	p.err = err
	return err
}

// SetSink switches an in-progress body to sink delivery, draining any
// bytes already buffered in-place into the sink first. Only valid in
// StateHeaderDone or StateBody while BodyMode is still InPlace.
func (p *Parser) SetSink(s Sink) error {
	if p.state != StateHeaderDone && p.state != StateBody {
		panic("parser: SetSink outside header_done/body")
	}
	if p.bodyMode != BodyModeInPlace {
		panic("parser: body mode already fixed for this message")
	}
	if err := p.drainInPlaceTo(func(b []byte, more bool) error {
		n, err := s.Write(b, more)
		if err == nil && n < len(b) {
			p.sinkPending = append(p.sinkPending[:0:0], b[n:]...)
		}
		return err
	}); err != nil {
		return err
	}
	p.bodyMode = BodyModeSink
	p.sink = s
	return nil
}

// SetElastic switches an in-progress body to elastic delivery,
// draining any bytes already buffered in-place into e first.
func (p *Parser) SetElastic(e Elastic) error {
	if p.state != StateHeaderDone && p.state != StateBody {
		panic("parser: SetElastic outside header_done/body")
	}
	if p.bodyMode != BodyModeInPlace {
		panic("parser: body mode already fixed for this message")
	}
	if err := p.drainInPlaceTo(func(b []byte, _ bool) error {
		return e.Append(b)
	}); err != nil {
		return err
	}
	p.bodyMode = BodyModeElastic
	p.elastic = e
	return nil
}

// pendingInPlace returns the decoded body bytes produced so far but
// not yet handed to the caller. Every framing mode and the optional
// decompression filter funnel their output through the same p.stage
// buffer for in-place delivery: chunked framing and a filter both mean
// the raw wire bytes aren't the body bytes, and reusing one path for
// the plain sized/no-filter case too keeps PullBody/ConsumeBody simple
// at the cost of one extra copy in that case.
func (p *Parser) pendingInPlace() []byte {
	return p.stage[p.inPlaceRead:]
}

func (p *Parser) drainInPlaceTo(write func(b []byte, more bool) error) error {
	b := p.pendingInPlace()
	if len(b) > 0 {
		if err := write(b, true); err != nil {
			return err
		}
		p.stage = p.stage[:0]
		p.inPlaceRead = 0
	}
	return nil
}

// PullBody returns the currently buffered in-place body bytes not yet
// consumed. Only meaningful while BodyMode is InPlace.
func (p *Parser) PullBody() []byte {
	return p.pendingInPlace()
}

// ConsumeBody marks n bytes returned by PullBody as consumed.
func (p *Parser) ConsumeBody(n int) {
	pending := p.pendingInPlace()
	if n < 0 || n > len(pending) {
		panic("parser: ConsumeBody out of range")
	}
	p.inPlaceRead += n
	if p.inPlaceRead == len(p.stage) {
		p.stage = p.stage[:0]
		p.inPlaceRead = 0
	}
}

// SetBodyLimit adjusts the body-size ceiling for the message currently
// in flight (or the next one, if called between messages). It takes
// effect on the very next byte delivered, including a tightened limit
// applied after some body bytes have already been delivered in place —
// the next pumpBody call simply compares the new ceiling against
// bodyDelivered as usual; ConsumeBody does not check the limit.
//
// Once the message has reached complete_in_place, the whole body is
// already sitting in stage with nothing left to check it against:
// changing the limit at that point is only meaningful when there was
// no body to begin with, so any other case is a contract violation.
func (p *Parser) SetBodyLimit(n uint64) {
	if p.state == StateCompleteInPlace && p.payload != metadata.PayloadNone && p.bodyDelivered > 0 {
		panic("parser: SetBodyLimit called after complete_in_place with a non-empty body")
	}
	p.cfg.BodyLimit = n
}

// Payload reports the body-framing classification determined from
// the header.
func (p *Parser) Payload() metadata.Payload { return p.payload }

// Store returns the header.Store this parser is currently filling or
// most recently filled.
func (p *Parser) Store() *header.Store { return p.store }
