package httpcore

import (
	"github.com/watt-toolkit/httpcore/parser"
	"github.com/watt-toolkit/httpcore/serializer"
)

// ParserConfig enumerates the options a parser service recognizes,
// named after spec §6.2's parser config rather than parser.Config's Go
// field names, and translated via its build method.
type ParserConfig struct {
	MaxStartLine    int
	MaxFieldSize    int
	MaxFieldCount   int
	MaxTotalHeaders int

	MinBufferSize int
	MaxPrepare    int
	BodyLimit     uint64

	ApplyDeflateDecoder bool
	ApplyGzipDecoder    bool
	ApplyBrotliDecoder  bool
	ZlibWindowBits      int
}

// DefaultParserConfig returns reasonable limits for an internet-facing
// peer, taken from parser.DefaultConfig except for the 8 KiB start-line
// limit; since build keeps the tighter of MaxStartLine and
// MaxTotalHeaders, the built parser.Config has an 8 KiB MaxHeaderSize.
func DefaultParserConfig() ParserConfig {
	d := parser.DefaultConfig()
	return ParserConfig{
		MaxStartLine:        8 * 1024,
		MaxFieldSize:        d.MaxFieldSize,
		MaxFieldCount:       d.MaxFields,
		MaxTotalHeaders:     d.MaxHeaderSize,
		MinBufferSize:       4096,
		MaxPrepare:          d.MaxPrepare,
		BodyLimit:           d.BodyLimit,
		ApplyDeflateDecoder: d.DecodeContentEncoding,
		ApplyGzipDecoder:    d.DecodeContentEncoding,
		ApplyBrotliDecoder:  d.DecodeContentEncoding,
		ZlibWindowBits:      15,
	}
}

// build translates this config into parser.Config. The start-line
// limit and the total-headers limit both bound the same
// parser.Config.MaxHeaderSize budget; the tighter of the two wins,
// since the parser package tracks one combined ceiling rather than
// the original's separate start-line/headers byte counts (see
// DESIGN.md).
func (c ParserConfig) build() parser.Config {
	maxHeader := c.MaxTotalHeaders
	if c.MaxStartLine > 0 && (maxHeader == 0 || c.MaxStartLine < maxHeader) {
		maxHeader = c.MaxStartLine
	}
	return parser.Config{
		MaxHeaderSize:         maxHeader,
		MaxFieldSize:          c.MaxFieldSize,
		MaxFields:             c.MaxFieldCount,
		MaxPrepare:            c.MaxPrepare,
		BodyLimit:             c.BodyLimit,
		DecodeContentEncoding: c.ApplyDeflateDecoder || c.ApplyGzipDecoder || c.ApplyBrotliDecoder,
	}
}

// SerializerConfig enumerates the options a serializer service
// recognizes, named after spec §6.2's serializer config.
type SerializerConfig struct {
	ApplyDeflateEncoder bool
	ApplyGzipEncoder    bool
	ApplyBrotliEncoder  bool

	BrotliQuality int
	BrotliWindow  int

	ZlibLevel      int
	ZlibWindowBits int
	ZlibMemLevel   int

	PayloadBufferSize int
	MaxTypeErase      int

	BodyLimit uint64
}

// DefaultSerializerConfig returns reasonable defaults, matching
// serializer.DefaultConfig's values.
func DefaultSerializerConfig() SerializerConfig {
	d := serializer.DefaultConfig()
	return SerializerConfig{
		ApplyDeflateEncoder: d.ApplyDeflateEncoder,
		ApplyGzipEncoder:    d.ApplyGzipEncoder,
		ApplyBrotliEncoder:  d.ApplyBrotliEncoder,
		BrotliQuality:       d.BrotliQuality,
		BrotliWindow:        d.BrotliWindow,
		ZlibLevel:           d.ZlibLevel,
		ZlibWindowBits:      d.ZlibWindowBits,
		ZlibMemLevel:        d.ZlibMemLevel,
		PayloadBufferSize:   d.PayloadBufferSize,
		MaxTypeErase:        d.MaxTypeErase,
		BodyLimit:           d.BodyLimit,
	}
}

func (c SerializerConfig) build() serializer.Config {
	return serializer.Config{
		ApplyDeflateEncoder: c.ApplyDeflateEncoder,
		ApplyGzipEncoder:    c.ApplyGzipEncoder,
		ApplyBrotliEncoder:  c.ApplyBrotliEncoder,
		BrotliQuality:       c.BrotliQuality,
		BrotliWindow:        c.BrotliWindow,
		ZlibLevel:           c.ZlibLevel,
		ZlibWindowBits:      c.ZlibWindowBits,
		ZlibMemLevel:        c.ZlibMemLevel,
		PayloadBufferSize:   c.PayloadBufferSize,
		MaxTypeErase:        c.MaxTypeErase,
		BodyLimit:           c.BodyLimit,
	}
}
