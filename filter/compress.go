package filter

import (
	"bytes"
	"io"
)

// compressWriteFlusher is the common surface of flate.Writer,
// gzip.Writer, and brotli.Writer: all three let a caller push plain
// bytes in, ask for whatever compressed output exists so far with
// Flush, and finalize the stream with Close.
type compressWriteFlusher interface {
	io.Writer
	Flush() error
	Close() error
}

// compressFilter adapts an in-memory compressWriteFlusher to the
// Filter contract. Because the underlying writer drains into an
// in-memory buffer rather than a socket, Write and Flush never block,
// so no background goroutine is needed for the encode direction (see
// decodeFilter for why decoding does need one).
type compressFilter struct {
	w      compressWriteFlusher
	buf    bytes.Buffer
	closed bool
}

func (c *compressFilter) Process(out, in []byte, moreInput bool) Result {
	consumed := 0
	if len(in) > 0 {
		n, err := c.w.Write(in)
		consumed = n
		if err != nil {
			return Result{Consumed: consumed, Err: err}
		}
	}

	if !moreInput {
		if !c.closed {
			if err := c.w.Close(); err != nil {
				return Result{Consumed: consumed, Err: err}
			}
			c.closed = true
		}
	} else if err := c.w.Flush(); err != nil {
		return Result{Consumed: consumed, Err: err}
	}

	n := copy(out, c.buf.Bytes())
	c.buf.Next(n)
	return Result{
		Consumed: consumed,
		Produced: n,
		Finished: c.closed && c.buf.Len() == 0,
		OutShort: n == 0 && len(out) == 0 && c.buf.Len() > 0,
	}
}

func (c *compressFilter) Close() {
	if !c.closed {
		c.w.Close()
		c.closed = true
	}
}
