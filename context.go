package httpcore

import (
	"github.com/watt-toolkit/httpcore/header"
	"github.com/watt-toolkit/httpcore/parser"
	"github.com/watt-toolkit/httpcore/serializer"
)

// Context holds the process-wide parser and serializer services: each
// is installed exactly once, before any parser or serializer backed by
// it is constructed, and is read-only thereafter. A Context itself is
// not safe for concurrent installation, but concurrent parser/
// serializer construction and read-only service lookup is.
type Context struct {
	parserCfg       parser.Config
	parserReady     bool
	serializerCfg   serializer.Config
	serializerReady bool
}

// NewContext returns an empty Context with no services installed.
func NewContext() *Context {
	return &Context{}
}

// InstallParserService installs the parser service's configuration.
// It panics if called more than once on the same Context.
func (c *Context) InstallParserService(cfg ParserConfig) {
	if c.parserReady {
		panic("httpcore: InstallParserService called more than once")
	}
	c.parserCfg = cfg.build()
	c.parserReady = true
}

// InstallSerializerService installs the serializer service's
// configuration. It panics if called more than once on the same
// Context.
func (c *Context) InstallSerializerService(cfg SerializerConfig) {
	if c.serializerReady {
		panic("httpcore: InstallSerializerService called more than once")
	}
	c.serializerCfg = cfg.build()
	c.serializerReady = true
}

// NewRequestParser constructs a request parser using this Context's
// installed parser service. Panics if the service hasn't been
// installed.
func (c *Context) NewRequestParser() *parser.Parser {
	if !c.parserReady {
		panic("httpcore: no parser service installed")
	}
	return parser.NewRequestParser(c.parserCfg)
}

// NewResponseParser constructs a response parser using this Context's
// installed parser service.
func (c *Context) NewResponseParser() *parser.Parser {
	if !c.parserReady {
		panic("httpcore: no parser service installed")
	}
	return parser.NewResponseParser(c.parserCfg)
}

// NewSerializer constructs a serializer using this Context's installed
// serializer service.
func (c *Context) NewSerializer() *serializer.Serializer {
	if !c.serializerReady {
		panic("httpcore: no serializer service installed")
	}
	return serializer.NewSerializer(c.serializerCfg)
}

// NewRequest and NewResponse are convenience re-exports of the header
// package's constructors, so a caller driving a Context doesn't need a
// second import for the common case.
func NewRequest() *header.Store  { return header.NewRequest() }
func NewResponse() *header.Store { return header.NewResponse() }
