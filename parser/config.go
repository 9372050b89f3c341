package parser

// Config bounds resource usage and toggles optional behavior. The
// zero value is not useful; start from DefaultConfig.
type Config struct {
	// MaxHeaderSize bounds the total bytes of the start-line plus all
	// fields, including the terminating blank line (ErrHeadersLimit
	// once exceeded).
	MaxHeaderSize int
	// MaxFieldSize bounds a single field's name+value (ErrFieldSizeLimit).
	MaxFieldSize int
	// MaxFields bounds the field count (ErrFieldsLimit).
	MaxFields int
	// MaxPrepare caps the size of the region Prepare hands out in one
	// call, regardless of how much room the input buffer has grown to.
	MaxPrepare int
	// BodyLimit bounds total decoded body bytes; 0 means unlimited.
	BodyLimit uint64
	// DecodeContentEncoding enables transparent deflate/gzip/br
	// decompression of the response body when Content-Encoding names
	// one of those codings.
	DecodeContentEncoding bool
}

// DefaultConfig returns reasonable limits for an internet-facing peer.
func DefaultConfig() Config {
	return Config{
		MaxHeaderSize:         64 * 1024,
		MaxFieldSize:          8 * 1024,
		MaxFields:             100,
		MaxPrepare:            64 * 1024,
		BodyLimit:             0,
		DecodeContentEncoding: true,
	}
}
