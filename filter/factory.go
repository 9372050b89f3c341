package filter

import (
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"

	"github.com/watt-toolkit/httpcore/metadata"
)

// NewDecoder returns the Filter that reverses the given content-coding
// on the way in, or Identity{} for EncodingIdentity. EncodingUnknown
// is the caller's signal to treat the body as opaque instead of
// calling NewDecoder at all.
func NewDecoder(enc metadata.ContentEncoding) Filter {
	switch enc {
	case metadata.EncodingDeflate:
		return NewDeflateDecoder()
	case metadata.EncodingGzip:
		return NewGzipDecoder()
	case metadata.EncodingBrotli:
		return NewBrotliDecoder()
	default:
		return Identity{}
	}
}

// NewEncoder returns the Filter that applies the given content-coding
// on the way out, at a reasonable default compression level, or
// Identity{} for EncodingIdentity.
func NewEncoder(enc metadata.ContentEncoding) Filter {
	switch enc {
	case metadata.EncodingDeflate:
		return NewDeflateEncoder(flate.DefaultCompression)
	case metadata.EncodingGzip:
		return NewGzipEncoder(gzip.DefaultCompression)
	case metadata.EncodingBrotli:
		return NewBrotliEncoder(4)
	default:
		return Identity{}
	}
}
