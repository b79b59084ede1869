package telegram

import (
	"context"
	"fmt"
	"strconv"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/message"
)

// MessageResolver resolves all Telegram message events. The Bot API embeds
// the replied-to message in the update, so the reply accessors never touch
// the network.
type MessageResolver struct{}

// EventEntity implements bridge.Resolver: the chat the message arrived in.
func (MessageResolver) EventEntity(ev bridge.Event) (*bridge.Entity, error) {
	e, err := messageEvent(ev)
	if err != nil {
		return nil, err
	}
	return &bridge.Entity{
		BotID:       e.SelfID,
		Kind:        KindChat,
		ID:          ChatIDString(e.ChatID),
		DisplayName: e.ChatTitle,
	}, nil
}

// ActorEntity implements bridge.Resolver: the sending user, with the chat
// as parent scope for non-private chats.
func (MessageResolver) ActorEntity(ev bridge.Event) (*bridge.Entity, error) {
	e, err := messageEvent(ev)
	if err != nil {
		return nil, err
	}
	ent := &bridge.Entity{
		BotID:       e.SelfID,
		Kind:        KindUser,
		ID:          strconv.FormatInt(e.UserID, 10),
		DisplayName: e.FirstName,
	}
	if !e.IsPrivate() {
		ent.ParentID = ChatIDString(e.ChatID)
	}
	if e.Username != "" {
		ent.Info = map[string]string{"username": e.Username}
	}
	return ent, nil
}

// FrameAtSender implements bridge.MessageResolver.
func (MessageResolver) FrameAtSender(ev bridge.Event, msg message.Message) message.Message {
	e, err := messageEvent(ev)
	if err != nil || e.IsPrivate() {
		return msg
	}
	display := ""
	if e.Username != "" {
		display = "@" + e.Username
	}
	return msg.Prepend(
		message.Mention{UserID: strconv.FormatInt(e.UserID, 10), Display: display},
		message.Text{Content: " "},
	)
}

// FrameReply implements bridge.MessageResolver.
func (MessageResolver) FrameReply(ev bridge.Event, msg message.Message) message.Message {
	e, err := messageEvent(ev)
	if err != nil {
		return msg
	}
	return msg.Prepend(message.Reply{MessageID: strconv.Itoa(e.MessageID)})
}

// MessageImages implements bridge.MessageResolver.
func (MessageResolver) MessageImages(ev bridge.Event) []string {
	e, err := messageEvent(ev)
	if err != nil {
		return nil
	}
	return e.Native.Photos
}

// RepliedImages implements bridge.MessageResolver.
func (MessageResolver) RepliedImages(_ context.Context, _ bridge.Conn, ev bridge.Event) ([]string, error) {
	e, err := messageEvent(ev)
	if err != nil || e.Replied == nil {
		return nil, err
	}
	return e.Replied.Photos, nil
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
		return nil, fmt.Errorf("telegram: unexpected event %T", ev)
	}
	return e, nil
}

// Register wires the Telegram backend into the registrar. One resolver
// serves both message subtypes through the ancestor walk.
func Register(reg *bridge.Registrar) {
	reg.RegisterBuilder(Platform, Builder{})
	reg.RegisterExtractor(Platform, Extractor{})
	reg.RegisterTarget(KindChat, NewChatTarget(KindChat))
	reg.RegisterTarget(KindUser, NewChatTarget(KindUser))
	reg.RegisterResolver(EventTypeMessage, MessageResolver{})
}

var _ bridge.MessageResolver = MessageResolver{}
