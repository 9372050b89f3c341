// Package filter implements the streaming byte-transformer abstraction
// used to apply or remove a content-coding (deflate, gzip, br) while a
// message body flows through the parser or serializer.
package filter

import "errors"

// ErrFilter wraps a failure reported by an underlying codec (corrupt
// stream, truncated input at EOF, exceeded internal limits).
var ErrFilter = errors.New("filter: codec error")

// Result is the outcome of a single Process call.
type Result struct {
	// Consumed is how many bytes of in were consumed.
	Consumed int
	// Produced is how many bytes of out were written.
	Produced int
	// Finished is the filter's commitment that no more output will
	// ever be produced from the bytes seen so far.
	Finished bool
	// OutShort reports that out was too small to make progress even
	// though input remains; the caller must retry with more room.
	OutShort bool
	// Err is non-nil if the underlying codec reported a failure.
	Err error
}

// Filter is a single-buffer byte-in/byte-out stream transformer.
// Implementations must be re-entrant across calls and must not buffer
// input beyond what the underlying codec requires.
//
// moreInput=false is the caller's commitment never to feed more input;
// a filter that still has buffered output to flush reports it across
// however many zero-input calls it takes, setting Finished only once
// that output is exhausted.
type Filter interface {
	Process(out, in []byte, moreInput bool) Result
	// Close releases any resources (e.g. a zlib window) held by the
	// filter. Safe to call more than once.
	Close()
}

// Identity is a no-op filter that copies input to output unchanged;
// it's the filter used for bodies with no content-coding.
type Identity struct{}

func (Identity) Process(out, in []byte, moreInput bool) Result {
	n := copy(out, in)
	finished := !moreInput && n == len(in)
	return Result{
		Consumed: n,
		Produced: n,
		Finished: finished,
		OutShort: n < len(in) && n == len(out),
	}
}

func (Identity) Close() {}

// Scheduler drives a Filter over multi-buffer input/output sequences,
// repeatedly calling Process on the current head buffers until either
// input is exhausted, output is full, or the filter reports finished.
type Scheduler struct {
	f Filter
}

// NewScheduler wraps f for multi-buffer driving.
func NewScheduler(f Filter) *Scheduler { return &Scheduler{f: f} }

// Run drives f over outs/ins until one of the stopping conditions in
// Filter's contract is reached, returning the cumulative bytes
// consumed/produced and the final per-call Result (whose Consumed/
// Produced reflect only the last underlying call).
func (s *Scheduler) Run(outs, ins [][]byte, moreInput bool) (totalConsumed, totalProduced int, last Result) {
	oi, ii := 0, 0
	oOff, iOff := 0, 0
	for {
		if oi >= len(outs) {
			last.OutShort = ii < len(ins) || iOff < lenAt(ins, ii)
			return totalConsumed, totalProduced, last
		}
		out := outs[oi][oOff:]
		var in []byte
		more := moreInput
		if ii < len(ins) {
			in = ins[ii][iOff:]
			more = moreInput || ii+1 < len(ins)
		}

		r := s.f.Process(out, in, more)
		last = r
		totalConsumed += r.Consumed
		totalProduced += r.Produced

		oOff += r.Produced
		if oOff >= len(outs[oi]) {
			oi++
			oOff = 0
		}
		iOff += r.Consumed
		if ii < len(ins) && iOff >= len(ins[ii]) {
			ii++
			iOff = 0
		}

		if r.Err != nil || r.Finished {
			return totalConsumed, totalProduced, last
		}
		if r.OutShort {
			return totalConsumed, totalProduced, last
		}
		if ii >= len(ins) && !moreInput {
			return totalConsumed, totalProduced, last
		}
		if r.Consumed == 0 && r.Produced == 0 {
			return totalConsumed, totalProduced, last
		}
	}
}

func lenAt(bufs [][]byte, i int) int {
	if i >= len(bufs) {
		return 0
	}
	return len(bufs[i])
}
