package bridge

import "context"

// SendDescriptor describes how to invoke a platform's send call for one
// entity. The Session performs the actual Invoke: it attaches the built
// native message under MessageParam and merges Params in.
type SendDescriptor struct {
	// Action is the remote operation name, e.g. "send_group_msg".
	Action string
	// MessageParam is the parameter name the native message is passed under.
	MessageParam string
	// Params are extra named parameters, typically the target ids.
	Params map[string]any
}

// RevokeDescriptor describes how to invoke a platform's revoke call for a
// previously sent message.
type RevokeDescriptor struct {
	Action string
	Params map[string]any
}

// Target is the entity target adapter: one implementation per entity kind,
// registered under that kind. It turns send/revoke/describe operations into
// platform operation descriptors and SDK-level lookups.
//
// Beyond SendDescriptor, capabilities are opt-in: a Target additionally
// implements Revoker, BatchSender, NameFetcher, AvatarFetcher or FileSender
// when its platform supports the operation. The Session reports a
// CapabilityError for operations the resolved target does not implement —
// never a silent no-op.
type Target interface {
	// Kind returns the entity kind this adapter serves.
	Kind() string

	// SendDescriptor describes the send call for the entity. Implementations
	// that cannot send to this kind return a CapabilityError.
	SendDescriptor(e *Entity) (SendDescriptor, error)
}

// Revoker is implemented by targets whose platform can revoke a sent
// message. The handle is the one returned by the earlier send; only the
// target that produced it may interpret its raw payload.
type Revoker interface {
	RevokeDescriptor(handle SentHandle) (RevokeDescriptor, error)
}

// BatchSender is implemented by targets whose platform accepts a single
// batched forward payload, built by the platform's ForwardBuilder.
type BatchSender interface {
	BatchSendDescriptor(e *Entity) (SendDescriptor, error)
}

// NameFetcher resolves a human-readable display name for the entity via the
// platform connection.
type NameFetcher interface {
	FetchDisplayName(ctx context.Context, conn Conn, e *Entity) (string, error)
}

// AvatarFetcher resolves the entity's avatar URL via the platform
// connection.
type AvatarFetcher interface {
	FetchAvatarURL(ctx context.Context, conn Conn, e *Entity) (string, error)
}

// FileSender uploads a local file to the entity via the platform
// connection.
type FileSender interface {
	SendFile(ctx context.Context, conn Conn, e *Entity, path, name string) error
}
