package bridge

import (
	"context"

	"github.com/keepmind9/chatbridge/internal/message"
)

// Event is an inbound platform event. Each concrete event type reports its
// dispatch chain explicitly, most-derived-first; the resolver hierarchy
// registry walks that chain and the first registered ancestor wins. This
// keeps the search order a first-class, inspectable artifact instead of a
// reflective type walk.
type Event interface {
	// Platform returns the platform name the event originated from.
	Platform() string

	// BotID identifies the bot account that received the event.
	BotID() string

	// TypeChain returns the event's dispatch keys ordered most-derived
	// first, e.g. ["onebot.message.group", "onebot.message", "onebot"].
	TypeChain() []string
}

// NativeCarrier is implemented by events that carry a platform-native
// message payload. The payload type is whatever the platform's Extractor
// accepts.
type NativeCarrier interface {
	Event

	// NativeMessage returns the native payload of the event's message.
	NativeMessage() any
}

// Resolver binds entity extraction to an event type. Every event type with
// a registered resolver can produce the scope the event occurred in and the
// user who triggered it; for one-to-one channels the two may be identical.
type Resolver interface {
	// EventEntity returns the scope the event occurred in, e.g. the group.
	EventEntity(ev Event) (*Entity, error)

	// ActorEntity returns the user who triggered the event.
	ActorEntity(ev Event) (*Entity, error)
}

// MessageResolver extends Resolver for events that carry a message. Framing
// methods are pure message transforms layered on top of the plain builder
// output; accessors expose the event message's images and, when the event
// is itself a reply, the parent message's images and text.
type MessageResolver interface {
	Resolver

	// FrameAtSender prefixes or rewrites msg so the platform renders it as
	// addressed to the event's sender.
	FrameAtSender(ev Event, msg message.Message) message.Message

	// FrameReply attaches the platform's reply reference to msg.
	FrameReply(ev Event, msg message.Message) message.Message

	// MessageImages returns the image URLs carried by the event's message.
	// May legitimately be empty.
	MessageImages(ev Event) []string

	// RepliedImages returns the image URLs of the message this event
	// replies to, fetching it over the connection when needed. Empty when
	// the event is not a reply.
	RepliedImages(ctx context.Context, conn Conn, ev Event) ([]string, error)

	// RepliedText returns the plain text of the message this event replies
	// to. Empty when the event is not a reply.
	RepliedText(ctx context.Context, conn Conn, ev Event) (string, error)
}

// Revoking is an opt-in resolver interface for event types whose platform
// needs event-specific revoke handling instead of the target adapter's
// generic revoke descriptor.
type Revoking interface {
	Revoke(ctx context.Context, conn Conn, handle SentHandle) error
}
