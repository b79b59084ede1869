package onebot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/message"
)

// messageResolver holds the behavior shared by private and group message
// resolvers: image accessors and replied-message lookups through get_msg.
type messageResolver struct{}

func (messageResolver) MessageImages(ev bridge.Event) []string {
	me := messageEventOf(ev)
	if me == nil {
		return nil
	}
	return segmentImages(me.Segments)
}

func (r messageResolver) RepliedImages(ctx context.Context, conn bridge.Conn, ev bridge.Event) ([]string, error) {
	segs, err := r.repliedSegments(ctx, conn, ev)
	if err != nil || segs == nil {
		return nil, err
	}
	return segmentImages(segs), nil
}

func (r messageResolver) RepliedText(ctx context.Context, conn bridge.Conn, ev bridge.Event) (string, error) {
	segs, err := r.repliedSegments(ctx, conn, ev)
	if err != nil || segs == nil {
		return "", err
	}
	return extractSegments(segs).PlainText(), nil
}

// repliedSegments fetches the segments of the message this event replies
// to, or nil when the event is not a reply.
func (messageResolver) repliedSegments(ctx context.Context, conn bridge.Conn, ev bridge.Event) ([]Segment, error) {
	me := messageEventOf(ev)
	if me == nil {
		return nil, nil
	}
	replyID := ""
	for _, seg := range me.Segments {
		if seg.Type == "reply" {
			replyID = str(seg.Data, "id")
			break
		}
	}
	if replyID == "" {
		return nil, nil
	}

	data, err := conn.Invoke(ctx, "get_msg", map[string]any{"message_id": idParam(replyID)})
	if err != nil {
		return nil, err
	}
	var fetched struct {
		Message    json.RawMessage `json:"message"`
		RawMessage string          `json:"raw_message"`
	}
	if err := json.Unmarshal(data, &fetched); err != nil {
		return nil, fmt.Errorf("onebot: bad get_msg result: %w", err)
	}
	return parseWireSegments(fetched.Message, fetched.RawMessage), nil
}

func segmentImages(segs []Segment) []string {
	var urls []string
	for _, seg := range segs {
		if seg.Type != "image" {
			continue
		}
		if url := str(seg.Data, "url"); url != "" {
			urls = append(urls, url)
			continue
		}
		if file := str(seg.Data, "file"); file != "" {
			urls = append(urls, file)
		}
	}
	return urls
}

func messageEventOf(ev bridge.Event) *MessageEvent {
	switch e := ev.(type) {
	case *PrivateMessageEvent:
		return &e.MessageEvent
	case *GroupMessageEvent:
		return &e.MessageEvent
	case *MessageEvent:
		return e
	default:
		return nil
	}
}

// PrivateResolver resolves private message events. Scope and actor are the
// same entity in a one-to-one chat.
type PrivateResolver struct {
	messageResolver
}

// EventEntity implements bridge.Resolver.
func (PrivateResolver) EventEntity(ev bridge.Event) (*bridge.Entity, error) {
	e, ok := ev.(*PrivateMessageEvent)
	if !ok {
		return nil, fmt.Errorf("onebot: unexpected event %T", ev)
	}
	return &bridge.Entity{
		BotID:       e.BotID(),
		Kind:        KindPrivate,
		ID:          e.UserID,
		DisplayName: e.Nickname,
	}, nil
}

// ActorEntity implements bridge.Resolver.
func (r PrivateResolver) ActorEntity(ev bridge.Event) (*bridge.Entity, error) {
	return r.EventEntity(ev)
}

// FrameAtSender implements bridge.MessageResolver. Mentions carry no
// meaning in a one-to-one chat, so the message passes through unchanged.
func (PrivateResolver) FrameAtSender(_ bridge.Event, msg message.Message) message.Message {
	return msg
}

// FrameReply implements bridge.MessageResolver.
func (PrivateResolver) FrameReply(ev bridge.Event, msg message.Message) message.Message {
	e, ok := ev.(*PrivateMessageEvent)
	if !ok {
		return msg
	}
	return msg.Prepend(message.Reply{MessageID: e.MessageID})
}

// GroupResolver resolves group message events.
type GroupResolver struct {
	messageResolver
}

// EventEntity implements bridge.Resolver: the group the message was posted
// in.
func (GroupResolver) EventEntity(ev bridge.Event) (*bridge.Entity, error) {
	e, ok := ev.(*GroupMessageEvent)
	if !ok {
		return nil, fmt.Errorf("onebot: unexpected event %T", ev)
	}
	return &bridge.Entity{
		BotID: e.BotID(),
		Kind:  KindGroup,
		ID:    e.GroupID,
	}, nil
}

// ActorEntity implements bridge.Resolver: the member who posted, addressed
// as a private entity with the group as parent scope.
func (GroupResolver) ActorEntity(ev bridge.Event) (*bridge.Entity, error) {
	e, ok := ev.(*GroupMessageEvent)
	if !ok {
		return nil, fmt.Errorf("onebot: unexpected event %T", ev)
	}
	name := e.Card
	if name == "" {
		name = e.Nickname
	}
	return &bridge.Entity{
		BotID:       e.BotID(),
		Kind:        KindPrivate,
		ID:          e.UserID,
		ParentID:    e.GroupID,
		DisplayName: name,
	}, nil
}

// FrameAtSender implements bridge.MessageResolver.
func (GroupResolver) FrameAtSender(ev bridge.Event, msg message.Message) message.Message {
	e, ok := ev.(*GroupMessageEvent)
	if !ok {
		return msg
	}
	return msg.Prepend(message.Mention{UserID: e.UserID}, message.Text{Content: " "})
}

// FrameReply implements bridge.MessageResolver.
func (GroupResolver) FrameReply(ev bridge.Event, msg message.Message) message.Message {
	e, ok := ev.(*GroupMessageEvent)
	if !ok {
		return msg
	}
	return msg.Prepend(message.Reply{MessageID: e.MessageID})
}

// Register wires the OneBot backend into the registrar: transcoders under
// the platform name, targets under their entity kinds, resolvers for both
// message event types. Called exactly once during startup.
func Register(reg *bridge.Registrar) {
	reg.RegisterBuilder(Platform, Builder{})
	reg.RegisterExtractor(Platform, Extractor{})
	reg.RegisterTarget(KindPrivate, PrivateTarget{})
	reg.RegisterTarget(KindGroup, GroupTarget{})
	reg.RegisterResolver(EventTypePrivateMessage, PrivateResolver{})
	reg.RegisterResolver(EventTypeGroupMessage, GroupResolver{})
}

var (
	_ bridge.MessageResolver = PrivateResolver{}
	_ bridge.MessageResolver = GroupResolver{}
)
