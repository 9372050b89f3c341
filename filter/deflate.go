package filter

import (
	"io"

	"github.com/klauspost/compress/flate"
)

// NewDeflateEncoder returns a Filter that compresses plain bytes into
// raw DEFLATE (RFC 1951) output at the given compression level (use
// flate.DefaultCompression for the codec's default).
func NewDeflateEncoder(level int) Filter {
	c := &compressFilter{}
	w, err := flate.NewWriter(&c.buf, level)
	if err != nil {
		w, _ = flate.NewWriter(&c.buf, flate.DefaultCompression)
	}
	c.w = w
	return c
}

// NewDeflateDecoder returns a Filter that inflates raw DEFLATE input
// back to plain bytes.
func NewDeflateDecoder() Filter {
	return newDecodeFilter(func(r io.Reader) (io.Reader, error) {
		return flate.NewReader(r), nil
	})
}
