package serializer

// State is the serializer's current position in its state machine:
// idle → exp100_pending → streaming_body → done | faulted. A message
// with no Expect: 100-continue header skips exp100_pending entirely.
type State int

const (
	StateIdle State = iota
	StateStreamingBody
	StateExp100Pending
	StateDone
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreamingBody:
		return "streaming_body"
	case StateExp100Pending:
		return "exp100_pending"
	case StateDone:
		return "done"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// bodyStyle selects which of the four mutually-exclusive body input
// styles is active for the in-flight message.
type bodyStyle int

const (
	styleEmpty bodyStyle = iota
	styleBuffers
	styleSource
	styleStream
)

// Source is a caller-supplied pull callback producing body bytes for
// the serializer, called repeatedly until it reports finished or an
// error.
type Source interface {
	// Read fills p with up to len(p) bytes of body data. finished
	// reports that no further call to Read will ever produce more
	// bytes, whether or not n is also nonzero on this call.
	Read(p []byte) (n int, finished bool, err error)
}
