package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keepmind9/chatbridge/internal/bridge"
)

// Event type chain keys.
const (
	EventTypeBase          = "discord"
	EventTypeMessage       = "discord.message"
	EventTypeGuildMessage  = "discord.message.guild"
	EventTypeDirectMessage = "discord.message.direct"
)

// RepliedRef captures the message an event replies to. The gateway embeds
// the referenced message in the create payload, so resolvers read it
// without another network round trip.
type RepliedRef struct {
	MessageID string
	Text      string
	Images    []string
}

// MessageEvent is an inbound Discord message from a guild channel or a
// direct-message channel.
type MessageEvent struct {
	SelfID    string
	GuildID   string
	ChannelID string
	MessageID string

	UserID   string
	Username string
	// AvatarHash is the author's avatar hash from the gateway payload.
	AvatarHash string

	Native  Native
	Replied *RepliedRef
}

func (e *MessageEvent) Platform() string { return Platform }
func (e *MessageEvent) BotID() string    { return e.SelfID }

func (e *MessageEvent) TypeChain() []string {
	leaf := EventTypeGuildMessage
	if e.GuildID == "" {
		leaf = EventTypeDirectMessage
	}
	return []string{leaf, EventTypeMessage, EventTypeBase}
}

// IsDirect reports whether the event came from a direct-message channel.
func (e *MessageEvent) IsDirect() bool { return e.GuildID == "" }

// NativeMessage implements bridge.NativeCarrier.
func (e *MessageEvent) NativeMessage() any { return e.Native }

// eventFromMessage maps a gateway message-create payload to a MessageEvent.
func eventFromMessage(selfID string, m *discordgo.Message) *MessageEvent {
	ev := &MessageEvent{
		SelfID:    selfID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Native: Native{
			Content: m.Content,
			Images:  attachmentURLs(m),
		},
	}
	if m.Author != nil {
		ev.UserID = m.Author.ID
		ev.Username = m.Author.Username
		ev.AvatarHash = m.Author.Avatar
	}
	if r := m.ReferencedMessage; r != nil {
		ev.Replied = &RepliedRef{
			MessageID: r.ID,
			Text:      r.Content,
			Images:    attachmentURLs(r),
		}
	}
	return ev
}

func attachmentURLs(m *discordgo.Message) []string {
	var urls []string
	for _, a := range m.Attachments {
		if a != nil && a.URL != "" {
			urls = append(urls, a.URL)
		}
	}
	return urls
}

var _ bridge.Event = (*MessageEvent)(nil)
