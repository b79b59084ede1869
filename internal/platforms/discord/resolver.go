package discord

import (
	"context"
	"fmt"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/message"
)

// MessageResolver resolves all Discord message events. The gateway embeds
// the referenced message in reply payloads, so the replied-content
// accessors never touch the network.
type MessageResolver struct{}

// EventEntity implements bridge.Resolver: the channel the message arrived
// in.
func (MessageResolver) EventEntity(ev bridge.Event) (*bridge.Entity, error) {
	e, err := messageEvent(ev)
	if err != nil {
		return nil, err
	}
	return &bridge.Entity{
		BotID: e.SelfID,
		Kind:  KindChannel,
		ID:    e.ChannelID,
	}, nil
}

// ActorEntity implements bridge.Resolver: the sending user, scoped to the
// channel for guild messages.
func (MessageResolver) ActorEntity(ev bridge.Event) (*bridge.Entity, error) {
	e, err := messageEvent(ev)
	if err != nil {
		return nil, err
	}
	ent := &bridge.Entity{
		BotID:       e.SelfID,
		Kind:        KindUser,
		ID:          e.UserID,
		DisplayName: e.Username,
	}
	if !e.IsDirect() {
		ent.ParentID = e.ChannelID
	}
	if e.AvatarHash != "" {
		ent.Info = map[string]string{"avatar": AvatarURL(e.UserID, e.AvatarHash)}
	}
	return ent, nil
}

// FrameAtSender implements bridge.MessageResolver.
func (MessageResolver) FrameAtSender(ev bridge.Event, msg message.Message) message.Message {
	e, err := messageEvent(ev)
	if err != nil || e.IsDirect() {
		return msg
	}
	return msg.Prepend(
		message.Mention{UserID: e.UserID, Display: "@" + e.Username},
		message.Text{Content: " "},
	)
}

// FrameReply implements bridge.MessageResolver.
func (MessageResolver) FrameReply(ev bridge.Event, msg message.Message) message.Message {
	e, err := messageEvent(ev)
	if err != nil {
		return msg
	}
	return msg.Prepend(message.Reply{MessageID: e.MessageID})
}

// MessageImages implements bridge.MessageResolver.
func (MessageResolver) MessageImages(ev bridge.Event) []string {
	e, err := messageEvent(ev)
	if err != nil {
		return nil
	}
	return e.Native.Images
}

// RepliedImages implements bridge.MessageResolver.
func (MessageResolver) RepliedImages(_ context.Context, _ bridge.Conn, ev bridge.Event) ([]string, error) {
	e, err := messageEvent(ev)
	if err != nil || e.Replied == nil {
		return nil, err
	}
	return e.Replied.Images, nil
}

// RepliedText implements bridge.MessageResolver.
func (MessageResolver) RepliedText(_ context.Context, _ bridge.Conn, ev bridge.Event) (string, error) {
	e, err := messageEvent(ev)
	if err != nil || e.Replied == nil {
		return "", err
	}
	return e.Replied.Text, nil
}

func messageEvent(ev bridge.Event) (*MessageEvent, error) {
	e, ok := ev.(*MessageEvent)
	if !ok {
		return nil, fmt.Errorf("discord: unexpected event %T", ev)
	}
	return e, nil
}

// Register wires the Discord backend into the registrar.
func Register(reg *bridge.Registrar) {
	reg.RegisterBuilder(Platform, Builder{})
	reg.RegisterExtractor(Platform, Extractor{})
	reg.RegisterTarget(KindChannel, ChannelTarget{})
	reg.RegisterTarget(KindUser, UserTarget{})
	reg.RegisterResolver(EventTypeMessage, MessageResolver{})
}

var _ bridge.MessageResolver = MessageResolver{}
