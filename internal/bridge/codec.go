package bridge

import "github.com/keepmind9/chatbridge/internal/message"

// Builder converts a universal message into a platform-native message value.
// Builders are pure and synchronous: they never perform network calls.
//
// Kinds the platform cannot express degrade to the nearest equivalent rather
// than failing; degradation only changes fidelity, never raises. Build
// returns an error only for malformed input (e.g. a nil segment), not for
// degradation.
type Builder interface {
	Build(msg message.Message) (any, error)
}

// Extractor is the inverse of Builder: it maps a platform-native message
// value back to the universal model. Native kinds the extractor does not
// recognize map to message.Other so no information is silently discarded.
type Extractor interface {
	Extract(native any) (message.Message, error)
}

// ForwardBuilder is an opt-in interface for builders whose platform supports
// a single batched "forward" send. BuildForward combines several universal
// messages into one native payload; platforms without it fall back to
// sequential sends.
type ForwardBuilder interface {
	BuildForward(msgs []message.Message) (any, error)
}

// BuildText is a convenience wrapper building a bare string through b.
func BuildText(b Builder, s string) (any, error) {
	return b.Build(message.FromText(s))
}

// BuildSegment is a convenience wrapper building a single segment through b.
func BuildSegment(b Builder, seg message.Segment) (any, error) {
	return b.Build(message.New(seg))
}
