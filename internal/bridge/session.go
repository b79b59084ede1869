package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/keepmind9/chatbridge/internal/logger"
	"github.com/keepmind9/chatbridge/internal/message"
	"github.com/keepmind9/chatbridge/pkg/constants"
)

// Session is the single entry point business code uses to act on an event
// or an entity. It composes the registered builder, target adapter and
// event resolver at call time.
//
// A Session created from an event resolves its resolver eagerly, so an
// unsupported event fails at construction rather than on first send. A
// Session created from a bare entity has no resolver; reply/at-sender
// framing and the reply accessors are unavailable on it.
type Session struct {
	reg      *Registrar
	conn     Conn
	ev       Event
	resolver Resolver
	entity   *Entity
}

// NewSession creates a Session for an inbound event. It fails with an
// EventNotSupportedError when no resolver matches the event's type chain.
func NewSession(reg *Registrar, conn Conn, ev Event) (*Session, error) {
	res, err := reg.Resolver(ev)
	if err != nil {
		return nil, err
	}
	return &Session{reg: reg, conn: conn, ev: ev, resolver: res}, nil
}

// NewEntitySession creates a Session addressing an entity directly, outside
// any event context. Only plain sends, revoke and the describe operations
// are available.
func NewEntitySession(reg *Registrar, conn Conn, e *Entity) *Session {
	return &Session{reg: reg, conn: conn, entity: e}
}

// Event returns the event the session was created from, or nil for entity
// sessions.
func (s *Session) Event() Event {
	return s.ev
}

// Conn returns the platform connection handle the session sends through.
func (s *Session) Conn() Conn {
	return s.conn
}

// EventEntity returns the scope the session addresses: the resolver's event
// entity, or the fixed entity for entity sessions.
func (s *Session) EventEntity() (*Entity, error) {
	if s.entity != nil {
		return s.entity, nil
	}
	return s.resolver.EventEntity(s.ev)
}

// ActorEntity returns the user who triggered the session's event.
func (s *Session) ActorEntity() (*Entity, error) {
	if s.resolver == nil {
		return nil, &CapabilityError{Kind: s.conn.Platform(), Operation: "actor_entity"}
	}
	return s.resolver.ActorEntity(s.ev)
}

// Send builds msg for the session's platform and sends it to the event
// entity, returning the platform's opaque handle.
func (s *Session) Send(ctx context.Context, msg message.Message) (SentHandle, error) {
	e, err := s.EventEntity()
	if err != nil {
		return SentHandle{}, err
	}
	return s.sendTo(ctx, e, msg)
}

// SendText sends a bare string as a single text segment.
func (s *Session) SendText(ctx context.Context, text string) (SentHandle, error) {
	return s.Send(ctx, message.FromText(text))
}

// SendReply sends msg framed as a reply to the session's event message.
func (s *Session) SendReply(ctx context.Context, msg message.Message) (SentHandle, error) {
	mr, err := s.messageResolver("send_reply")
	if err != nil {
		return SentHandle{}, err
	}
	e, err := s.EventEntity()
	if err != nil {
		return SentHandle{}, err
	}
	return s.sendTo(ctx, e, mr.FrameReply(s.ev, msg))
}

// SendAtSender sends msg framed as addressed to the event's sender.
func (s *Session) SendAtSender(ctx context.Context, msg message.Message) (SentHandle, error) {
	mr, err := s.messageResolver("send_at_sender")
	if err != nil {
		return SentHandle{}, err
	}
	e, err := s.EventEntity()
	if err != nil {
		return SentHandle{}, err
	}
	return s.sendTo(ctx, e, mr.FrameAtSender(s.ev, msg))
}

// SendMultiple sends several messages. When the platform's builder supports
// batched forwards and the target accepts them, all messages go out as one
// combined native payload; otherwise they are sent sequentially, with no
// special batching guarantee.
func (s *Session) SendMultiple(ctx context.Context, msgs []message.Message) ([]SentHandle, error) {
	if len(msgs) == 0 {
		return nil, nil
	}

	e, err := s.EventEntity()
	if err != nil {
		return nil, err
	}
	builder, err := s.reg.Builder(s.conn.Platform())
	if err != nil {
		return nil, err
	}
	target, err := s.reg.Target(e.Kind)
	if err != nil {
		return nil, err
	}

	fb, canForward := builder.(ForwardBuilder)
	bs, canBatch := target.(BatchSender)
	if canForward && canBatch {
		desc, err := bs.BatchSendDescriptor(e)
		if err != nil {
			return nil, err
		}
		native, err := fb.BuildForward(msgs)
		if err != nil {
			return nil, err
		}
		handle, err := s.invoke(ctx, e, desc, native)
		if err != nil {
			return nil, err
		}
		return []SentHandle{handle}, nil
	}

	handles := make([]SentHandle, 0, len(msgs))
	for _, msg := range msgs {
		handle, err := s.sendTo(ctx, e, msg)
		if err != nil {
			return handles, err
		}
		handles = append(handles, handle)
	}
	return handles, nil
}

// SendWithAutoRevoke sends msg, then schedules a one-shot revoke of the
// sent message after the given delay. The returned RevokeTimer cancels the
// pending revoke when stopped before it fires. A revoke failure after the
// timer fires is logged and never propagated: by then the caller has moved
// on, and corrupting its error handling late would be worse than losing the
// revoke.
func (s *Session) SendWithAutoRevoke(ctx context.Context, msg message.Message, after time.Duration) (SentHandle, *RevokeTimer, error) {
	handle, err := s.Send(ctx, msg)
	if err != nil {
		return SentHandle{}, nil, err
	}

	rt := &RevokeTimer{}
	rt.timer = time.AfterFunc(after, func() {
		revokeCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultInvokeTimeout)
		defer cancel()
		if err := s.Revoke(revokeCtx, handle); err != nil {
			logger.WithFields(logrus.Fields{
				"platform": handle.Platform,
				"bot_id":   handle.BotID,
				"error":    err,
			}).Warn("auto-revoke-failed")
		}
	})
	return handle, rt, nil
}

// Revoke revokes a previously sent message immediately. It prefers the
// resolver's event-specific revoke when available, falling back to the
// target adapter's revoke descriptor. Targets without revoke support yield
// a CapabilityError.
func (s *Session) Revoke(ctx context.Context, handle SentHandle) error {
	if rev, ok := s.resolver.(Revoking); ok {
		return rev.Revoke(ctx, s.conn, handle)
	}

	target, err := s.reg.Target(handle.Kind)
	if err != nil {
		return err
	}
	revoker, ok := target.(Revoker)
	if !ok {
		return &CapabilityError{Kind: handle.Kind, Operation: "revoke"}
	}
	desc, err := revoker.RevokeDescriptor(handle)
	if err != nil {
		return err
	}
	if _, err := s.conn.Invoke(ctx, desc.Action, desc.Params); err != nil {
		return &InvokeError{Platform: s.conn.Platform(), Action: desc.Action, Err: err}
	}
	return nil
}

// DisplayName resolves a human-readable name for the event entity.
func (s *Session) DisplayName(ctx context.Context) (string, error) {
	e, err := s.EventEntity()
	if err != nil {
		return "", err
	}
	target, err := s.reg.Target(e.Kind)
	if err != nil {
		return "", err
	}
	nf, ok := target.(NameFetcher)
	if !ok {
		return "", &CapabilityError{Kind: e.Kind, Operation: "display_name"}
	}
	return nf.FetchDisplayName(ctx, s.conn, e)
}

// AvatarURL resolves the event entity's avatar URL.
func (s *Session) AvatarURL(ctx context.Context) (string, error) {
	e, err := s.EventEntity()
	if err != nil {
		return "", err
	}
	target, err := s.reg.Target(e.Kind)
	if err != nil {
		return "", err
	}
	af, ok := target.(AvatarFetcher)
	if !ok {
		return "", &CapabilityError{Kind: e.Kind, Operation: "avatar_url"}
	}
	return af.FetchAvatarURL(ctx, s.conn, e)
}

// SendFile uploads a local file to the event entity.
func (s *Session) SendFile(ctx context.Context, path, name string) error {
	e, err := s.EventEntity()
	if err != nil {
		return err
	}
	target, err := s.reg.Target(e.Kind)
	if err != nil {
		return err
	}
	fs, ok := target.(FileSender)
	if !ok {
		return &CapabilityError{Kind: e.Kind, Operation: "send_file"}
	}
	return fs.SendFile(ctx, s.conn, e, path, name)
}

// Message extracts the session's event message into the universal model.
// It fails with a CapabilityError when the event carries no message.
func (s *Session) Message() (message.Message, error) {
	carrier, ok := s.ev.(NativeCarrier)
	if !ok {
		return nil, &CapabilityError{Kind: s.conn.Platform(), Operation: "message"}
	}
	x, err := s.reg.Extractor(s.conn.Platform())
	if err != nil {
		return nil, err
	}
	return x.Extract(carrier.NativeMessage())
}

// MessageImages returns the image URLs carried by the session's event
// message, if the event carries one.
func (s *Session) MessageImages() []string {
	if mr, ok := s.resolver.(MessageResolver); ok {
		return mr.MessageImages(s.ev)
	}
	return nil
}

// RepliedImages returns the image URLs of the message the session's event
// replies to.
func (s *Session) RepliedImages(ctx context.Context) ([]string, error) {
	mr, err := s.messageResolver("replied_images")
	if err != nil {
		return nil, err
	}
	return mr.RepliedImages(ctx, s.conn, s.ev)
}

// RepliedText returns the plain text of the message the session's event
// replies to.
func (s *Session) RepliedText(ctx context.Context) (string, error) {
	mr, err := s.messageResolver("replied_text")
	if err != nil {
		return "", err
	}
	return mr.RepliedText(ctx, s.conn, s.ev)
}

func (s *Session) messageResolver(op string) (MessageResolver, error) {
	mr, ok := s.resolver.(MessageResolver)
	if !ok {
		return nil, &CapabilityError{Kind: s.conn.Platform(), Operation: op}
	}
	return mr, nil
}

// sendTo builds msg and invokes the platform send described by the entity's
// target adapter.
func (s *Session) sendTo(ctx context.Context, e *Entity, msg message.Message) (SentHandle, error) {
	builder, err := s.reg.Builder(s.conn.Platform())
	if err != nil {
		return SentHandle{}, err
	}
	target, err := s.reg.Target(e.Kind)
	if err != nil {
		return SentHandle{}, err
	}
	desc, err := target.SendDescriptor(e)
	if err != nil {
		return SentHandle{}, err
	}
	native, err := builder.Build(msg)
	if err != nil {
		return SentHandle{}, err
	}
	return s.invoke(ctx, e, desc, native)
}

func (s *Session) invoke(ctx context.Context, e *Entity, desc SendDescriptor, native any) (SentHandle, error) {
	params := make(map[string]any, len(desc.Params)+1)
	for k, v := range desc.Params {
		params[k] = v
	}
	params[desc.MessageParam] = native

	raw, err := s.conn.Invoke(ctx, desc.Action, params)
	if err != nil {
		return SentHandle{}, &InvokeError{Platform: s.conn.Platform(), Action: desc.Action, Err: err}
	}
	return SentHandle{
		Platform: s.conn.Platform(),
		BotID:    s.conn.BotID(),
		Kind:     e.Kind,
		Raw:      raw,
	}, nil
}

// RevokeTimer is the cancellation handle of a pending auto-revoke.
type RevokeTimer struct {
	timer *time.Timer
	mu    sync.Mutex
	done  bool
}

// Cancel stops the pending revoke. It returns true when the revoke was
// prevented, false when the timer had already fired or was already
// cancelled.
func (t *RevokeTimer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return t.timer.Stop()
}
