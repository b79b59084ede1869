package telegram

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/keepmind9/chatbridge/internal/bridge"
)

// Event type chain keys.
const (
	EventTypeBase           = "telegram"
	EventTypeMessage        = "telegram.message"
	EventTypePrivateMessage = "telegram.message.private"
	EventTypeGroupMessage   = "telegram.message.group"
)

// RepliedRef captures the message an event replies to. The Bot API embeds
// the replied message in the update, so resolvers read it without another
// network round trip.
type RepliedRef struct {
	MessageID int
	Text      string
	Entities  []tgbotapi.MessageEntity
	Photos    []string
}

// MessageEvent is an inbound Telegram message from a private chat, group
// or supergroup.
type MessageEvent struct {
	SelfID    string
	ChatID    int64
	ChatType  string
	ChatTitle string
	MessageID int

	UserID    int64
	Username  string
	FirstName string

	Native  Native
	Replied *RepliedRef
}

func (e *MessageEvent) Platform() string { return Platform }
func (e *MessageEvent) BotID() string    { return e.SelfID }

func (e *MessageEvent) TypeChain() []string {
	leaf := EventTypeGroupMessage
	if e.ChatType == "private" {
		leaf = EventTypePrivateMessage
	}
	return []string{leaf, EventTypeMessage, EventTypeBase}
}

// IsPrivate reports whether the event came from a one-to-one chat.
func (e *MessageEvent) IsPrivate() bool { return e.ChatType == "private" }

// NativeMessage implements bridge.NativeCarrier.
func (e *MessageEvent) NativeMessage() any { return e.Native }

// eventFromMessage maps a Bot API message to a MessageEvent.
func eventFromMessage(selfID string, m *tgbotapi.Message) *MessageEvent {
	ev := &MessageEvent{
		SelfID:    selfID,
		MessageID: m.MessageID,
		Native: Native{
			Text:     messageText(m),
			Entities: messageEntities(m),
			Photos:   photoIDs(m),
		},
	}
	if m.Chat != nil {
		ev.ChatID = m.Chat.ID
		ev.ChatType = m.Chat.Type
		ev.ChatTitle = m.Chat.Title
	}
	if m.From != nil {
		ev.UserID = m.From.ID
		ev.Username = m.From.UserName
		ev.FirstName = m.From.FirstName
	}
	if r := m.ReplyToMessage; r != nil {
		ev.Replied = &RepliedRef{
			MessageID: r.MessageID,
			Text:      messageText(r),
			Entities:  messageEntities(r),
			Photos:    photoIDs(r),
		}
	}
	return ev
}

// messageText returns the text or, for media messages, the caption.
func messageText(m *tgbotapi.Message) string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

func messageEntities(m *tgbotapi.Message) []tgbotapi.MessageEntity {
	if m.Text != "" {
		return m.Entities
	}
	return m.CaptionEntities
}

// photoIDs returns the file id of the largest size of each photo. The Bot
// API reports one photo as multiple sizes; the last entry is the largest.
func photoIDs(m *tgbotapi.Message) []string {
	if len(m.Photo) == 0 {
		return nil
	}
	return []string{m.Photo[len(m.Photo)-1].FileID}
}

// ChatIDString formats a chat id as an entity id.
func ChatIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}

var _ bridge.Event = (*MessageEvent)(nil)
