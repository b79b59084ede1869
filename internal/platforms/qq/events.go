package qq

import (
	"strings"

	"github.com/tencent-connect/botgo/dto"
	qqmessage "github.com/tencent-connect/botgo/dto/message"

	"github.com/keepmind9/chatbridge/internal/bridge"
)

// Event type chain keys.
const (
	EventTypeBase        = "qq"
	EventTypeMessage     = "qq.message"
	EventTypeGuild       = "qq.message.guild"
	EventTypeGuildDirect = "qq.message.guild-direct"
	EventTypeGroup       = "qq.message.group"
	EventTypeC2C         = "qq.message.c2c"
)

// Scope names the chat the message arrived in.
type Scope string

const (
	ScopeGuild       Scope = "guild"
	ScopeGuildDirect Scope = "guild-direct"
	ScopeGroup       Scope = "group"
	ScopeC2C         Scope = "c2c"
)

// MessageEvent is an inbound QQ message from any of the four chat scopes.
type MessageEvent struct {
	SelfID string
	Scope  Scope

	GuildID   string
	ChannelID string
	GroupID   string

	MessageID string
	UserID    string
	Username  string
	AvatarURL string

	Content string
	Images  []string
}

func (e *MessageEvent) Platform() string { return Platform }
func (e *MessageEvent) BotID() string    { return e.SelfID }

// NativeMessage implements bridge.NativeCarrier. The first attachment
// rides along as the native image.
func (e *MessageEvent) NativeMessage() any {
	n := Native{Content: e.Content}
	if len(e.Images) > 0 {
		n.Image = e.Images[0]
	}
	return n
}

func (e *MessageEvent) TypeChain() []string {
	leaf := map[Scope]string{
		ScopeGuild:       EventTypeGuild,
		ScopeGuildDirect: EventTypeGuildDirect,
		ScopeGroup:       EventTypeGroup,
		ScopeC2C:         EventTypeC2C,
	}[e.Scope]
	return []string{leaf, EventTypeMessage, EventTypeBase}
}

// eventFromGuildAt maps a guild at-message. ETLInput strips the leading
// at-bot token the gateway injects.
func eventFromGuildAt(selfID string, data *dto.WSATMessageData) *MessageEvent {
	m := (*dto.Message)(data)
	ev := baseEvent(selfID, ScopeGuild, m)
	ev.Content = strings.TrimSpace(qqmessage.ETLInput(m.Content))
	return ev
}

func eventFromGuildDirect(selfID string, data *dto.WSDirectMessageData) *MessageEvent {
	return baseEvent(selfID, ScopeGuildDirect, (*dto.Message)(data))
}

func eventFromGroupAt(selfID string, data *dto.WSGroupATMessageData) *MessageEvent {
	m := (*dto.Message)(data)
	ev := baseEvent(selfID, ScopeGroup, m)
	ev.Content = strings.TrimSpace(qqmessage.ETLInput(m.Content))
	return ev
}

func eventFromC2C(selfID string, data *dto.WSC2CMessageData) *MessageEvent {
	return baseEvent(selfID, ScopeC2C, (*dto.Message)(data))
}

func baseEvent(selfID string, scope Scope, m *dto.Message) *MessageEvent {
	ev := &MessageEvent{
		SelfID:    selfID,
		Scope:     scope,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		GroupID:   m.GroupID,
		MessageID: m.ID,
		Content:   strings.TrimSpace(m.Content),
	}
	if m.Author != nil {
		ev.UserID = m.Author.ID
		ev.Username = m.Author.Username
		ev.AvatarURL = m.Author.Avatar
	}
	for _, a := range m.Attachments {
		if a != nil && a.URL != "" {
			ev.Images = append(ev.Images, a.URL)
		}
	}
	return ev
}

var _ bridge.Event = (*MessageEvent)(nil)
