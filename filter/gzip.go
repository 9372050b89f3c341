package filter

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

// NewGzipEncoder returns a Filter that gzip-compresses plain bytes at
// the given compression level.
func NewGzipEncoder(level int) Filter {
	c := &compressFilter{}
	w, err := gzip.NewWriterLevel(&c.buf, level)
	if err != nil {
		w, _ = gzip.NewWriterLevel(&c.buf, gzip.DefaultCompression)
	}
	c.w = w
	return c
}

// NewGzipDecoder returns a Filter that decompresses gzip input back
// to plain bytes.
func NewGzipDecoder() Filter {
	return newDecodeFilter(func(r io.Reader) (io.Reader, error) {
		return gzip.NewReader(r)
	})
}
