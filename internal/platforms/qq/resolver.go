package qq

import (
	"context"
	"fmt"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/message"
)

// MessageResolver resolves all QQ message events. The gateway does not
// embed replied messages and the API offers no message lookup, so the
// replied-content accessors return empty results.
type MessageResolver struct{}

// EventEntity implements bridge.Resolver: the chat the message arrived in,
// which varies by scope.
func (MessageResolver) EventEntity(ev bridge.Event) (*bridge.Entity, error) {
	e, err := messageEvent(ev)
	if err != nil {
		return nil, err
	}
	switch e.Scope {
	case ScopeGuild:
		return &bridge.Entity{BotID: e.SelfID, Kind: KindGuildChannel, ID: e.ChannelID}, nil
	case ScopeGuildDirect:
		return &bridge.Entity{
			BotID: e.SelfID,
			Kind:  KindGuildDirect,
			ID:    e.ChannelID,
			Info:  map[string]string{"guild_id": e.GuildID},
		}, nil
	case ScopeGroup:
		return &bridge.Entity{BotID: e.SelfID, Kind: KindGroup, ID: e.GroupID}, nil
	case ScopeC2C:
		return &bridge.Entity{BotID: e.SelfID, Kind: KindUser, ID: e.UserID}, nil
	default:
		return nil, fmt.Errorf("qq: unknown scope %q", e.Scope)
	}
}

// ActorEntity implements bridge.Resolver: the sending user, scoped to the
// chat for non-private scopes.
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
	switch e.Scope {
	case ScopeGuild, ScopeGuildDirect:
		ent.ParentID = e.ChannelID
	case ScopeGroup:
		ent.ParentID = e.GroupID
	}
	if e.AvatarURL != "" {
		ent.Info = map[string]string{"avatar": e.AvatarURL}
	}
	return ent, nil
}

// FrameAtSender implements bridge.MessageResolver.
func (MessageResolver) FrameAtSender(ev bridge.Event, msg message.Message) message.Message {
	e, err := messageEvent(ev)
	if err != nil || e.Scope == ScopeC2C || e.Scope == ScopeGuildDirect {
		return msg
	}
	return msg.Prepend(
		message.Mention{UserID: e.UserID, Display: e.Username},
		message.Text{Content: " "},
	)
}

// FrameReply implements bridge.MessageResolver. The reply segment carries
// the event message id, which the connection turns into a passive reply.
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
	return e.Images
}

// RepliedImages implements bridge.MessageResolver.
func (MessageResolver) RepliedImages(_ context.Context, _ bridge.Conn, ev bridge.Event) ([]string, error) {
	if _, err := messageEvent(ev); err != nil {
		return nil, err
	}
	return nil, nil
}

// RepliedText implements bridge.MessageResolver.
func (MessageResolver) RepliedText(_ context.Context, _ bridge.Conn, ev bridge.Event) (string, error) {
	if _, err := messageEvent(ev); err != nil {
		return "", err
	}
	return "", nil
}

func messageEvent(ev bridge.Event) (*MessageEvent, error) {
	e, ok := ev.(*MessageEvent)
	if !ok {
		return nil, fmt.Errorf("qq: unexpected event %T", ev)
	}
	return e, nil
}

// Register wires the QQ backend into the registrar.
func Register(reg *bridge.Registrar) {
	reg.RegisterBuilder(Platform, Builder{})
	reg.RegisterExtractor(Platform, Extractor{})
	reg.RegisterTarget(KindGuildChannel, GuildChannelTarget{})
	reg.RegisterTarget(KindGuildDirect, GuildDirectTarget{})
	reg.RegisterTarget(KindGroup, GroupTarget{})
	reg.RegisterTarget(KindUser, UserTarget{})
	reg.RegisterResolver(EventTypeMessage, MessageResolver{})
}

var _ bridge.MessageResolver = MessageResolver{}
