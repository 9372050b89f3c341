package filter

import (
	"io"

	"github.com/andybalholm/brotli"
)

// NewBrotliEncoder returns a Filter that compresses plain bytes into
// brotli output at the given quality level.
func NewBrotliEncoder(quality int) Filter {
	c := &compressFilter{}
	c.w = brotli.NewWriterLevel(&c.buf, quality)
	return c
}

// NewBrotliDecoder returns a Filter that decompresses brotli input
// back to plain bytes.
func NewBrotliDecoder() Filter {
	return newDecodeFilter(func(r io.Reader) (io.Reader, error) {
		return brotli.NewReader(r), nil
	})
}
