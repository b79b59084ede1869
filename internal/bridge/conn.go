// Package bridge is the platform abstraction middleware of chatbridge.
//
// It ties four registries together: message builders and extractors keyed by
// platform name, entity targets keyed by entity kind, and event resolvers
// keyed by event type with ancestor-walk resolution. Business code talks to
// a Session, which composes these at call time; platform packages under
// internal/platforms contribute the registered implementations and the
// connection handles.
//
// All registration happens during startup, before the Registrar is sealed.
// After sealing, every lookup is a lock-free read, so concurrent event
// dispatch needs no further synchronization.
package bridge

import (
	"context"
	"encoding/json"
)

// Conn is the platform connection handle: one per connected bot, shared
// read-only by all concurrent tasks addressing that bot. It performs the
// actual network call after the middleware has computed what to call and
// with what parameters.
type Conn interface {
	// Platform returns the platform name the connection speaks, matching
	// the key its builder and extractor are registered under.
	Platform() string

	// BotID identifies the connected bot account on its platform.
	BotID() string

	// Invoke performs the named remote operation with named parameters and
	// returns the raw platform result. Implementations map actions to their
	// wire protocol or SDK; they never interpret the middleware's universal
	// types beyond their own platform's native message value.
	Invoke(ctx context.Context, action string, params map[string]any) (json.RawMessage, error)
}

// SentHandle is the opaque result of a send operation, needed to revoke that
// specific message later. Raw is platform-defined; the middleware never
// interprets it, only the entity target that produced it does.
type SentHandle struct {
	Platform string
	BotID    string
	// Kind is the entity kind the message was sent to, used to find the
	// target adapter that can describe the revoke call.
	Kind string
	Raw  json.RawMessage
}
