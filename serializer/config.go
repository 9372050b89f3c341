package serializer

// Config bounds resource usage and toggles optional behavior for a
// Serializer. The zero value is not useful; start from DefaultConfig.
type Config struct {
	// ApplyDeflateEncoder, ApplyGzipEncoder, ApplyBrotliEncoder gate
	// transparent content-encoding of the body when the message
	// declares the matching Content-Encoding. With the flag off, a
	// message that declares that coding is serialized as-is: the
	// caller is responsible for having already compressed the body.
	ApplyDeflateEncoder bool
	ApplyGzipEncoder    bool
	ApplyBrotliEncoder  bool

	// BrotliQuality sets the brotli encoder's quality (0-11).
	// BrotliWindow (10-24) is stored but not passed to the encoder.
	BrotliQuality int
	BrotliWindow  int

	// ZlibLevel sets the deflate/gzip encoder's compression level.
	// ZlibWindowBits and ZlibMemLevel are stored but not passed to the
	// encoder.
	ZlibLevel      int
	ZlibWindowBits int
	ZlibMemLevel   int

	// PayloadBufferSize sizes the scratch buffers used for Source reads
	// and encoder output, and the region Stream.Prepare hands out. The
	// workspace-backed output buffer that holds chunk-framed and/or
	// filtered body output grows independently of it.
	PayloadBufferSize int

	// MaxTypeErase is carried for configuration completeness and is not
	// read: the encoder filter instance is heap-allocated, not placed in
	// the workspace.
	MaxTypeErase int

	// BodyLimit bounds total body bytes accepted from the caller
	// (buffer sequence length, or bytes read from a Source/Stream)
	// before ErrBodyLimitExceeded faults the serializer. 0 means
	// unlimited. Adjustable mid-message via SetBodyLimit.
	BodyLimit uint64
}

// DefaultConfig returns reasonable defaults for an internet-facing peer.
func DefaultConfig() Config {
	return Config{
		BrotliQuality:     4,
		BrotliWindow:      22,
		ZlibLevel:         6,
		ZlibWindowBits:    15,
		ZlibMemLevel:      8,
		PayloadBufferSize: 8192,
		MaxTypeErase:      1024,
		BodyLimit:         0,
	}
}
