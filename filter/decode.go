package filter

import (
	"io"
	"sync"
)

// newReaderFunc constructs a decompressing io.Reader over r. It
// mirrors the shape shared by flate.NewReader, gzip.NewReader, and
// brotli.NewReader once their differing constructor signatures are
// adapted to it.
type newReaderFunc func(r io.Reader) (io.Reader, error)

// decodeFilter bridges a blocking, io.Reader-pull-based decompressor
// onto the push-style Process contract. Codecs in the compress
// ecosystem only expose "give me an io.Reader to pull from", which
// has no way to say "pause, I'm out of input for now, but don't treat
// that as end of stream" — so a background goroutine owns the
// decompressor and blocks on an io.Pipe, while Process() feeds that
// pipe and drains whatever output has accumulated in a shared buffer.
// The goroutine exits (recording Finished or an error) once it
// observes the pipe closed at end of input.
type decodeFilter struct {
	pr        *io.PipeReader
	pw        *io.PipeWriter
	newReader newReaderFunc

	startOnce sync.Once
	closeOnce sync.Once

	mu     sync.Mutex
	outBuf []byte
	done   bool
	err    error
}

func newDecodeFilter(newReader newReaderFunc) *decodeFilter {
	pr, pw := io.Pipe()
	return &decodeFilter{pr: pr, pw: pw, newReader: newReader}
}

func (d *decodeFilter) start() {
	d.startOnce.Do(func() { go d.run() })
}

func (d *decodeFilter) run() {
	r, err := d.newReader(d.pr)
	if err != nil {
		d.finish(err)
		d.pr.CloseWithError(err)
		return
	}
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			d.mu.Lock()
			d.outBuf = append(d.outBuf, buf[:n]...)
			d.mu.Unlock()
		}
		if err != nil {
			if err == io.EOF {
				d.finish(nil)
			} else {
				d.finish(err)
			}
			d.pr.CloseWithError(err)
			return
		}
	}
}

func (d *decodeFilter) finish(err error) {
	d.mu.Lock()
	d.done = true
	d.err = err
	d.mu.Unlock()
}

func (d *decodeFilter) Process(out, in []byte, moreInput bool) Result {
	d.start()

	consumed := 0
	if len(in) > 0 {
		n, err := d.pw.Write(in)
		consumed = n
		if err != nil && err != io.ErrClosedPipe {
			return Result{Consumed: consumed, Err: err}
		}
	}
	if !moreInput {
		d.closeOnce.Do(func() { d.pw.Close() })
	}

	d.mu.Lock()
	n := copy(out, d.outBuf)
	d.outBuf = d.outBuf[n:]
	finished := d.done && len(d.outBuf) == 0
	outShort := n == 0 && len(out) == 0 && len(d.outBuf) > 0
	err := d.err
	d.mu.Unlock()

	return Result{
		Consumed: consumed,
		Produced: n,
		Finished: finished,
		OutShort: outShort,
		Err:      err,
	}
}

func (d *decodeFilter) Close() {
	d.closeOnce.Do(func() { d.pw.Close() })
}
