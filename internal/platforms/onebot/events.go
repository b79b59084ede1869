package onebot

import (
	"encoding/json"
	"fmt"

	"github.com/keepmind9/chatbridge/internal/bridge"
)

// Event type chain keys. Message events are dispatched most-derived-first:
// a resolver registered for EventTypeMessage also serves both message
// subtypes unless a more specific registration exists.
const (
	EventTypeBase           = "onebot"
	EventTypeMessage        = "onebot.message"
	EventTypePrivateMessage = "onebot.message.private"
	EventTypeGroupMessage   = "onebot.message.group"
	EventTypeNotice         = "onebot.notice"
)

// BaseEvent carries the fields every OneBot event has.
type BaseEvent struct {
	SelfID string
	Time   int64
}

func (e *BaseEvent) Platform() string    { return Platform }
func (e *BaseEvent) BotID() string       { return e.SelfID }
func (e *BaseEvent) TypeChain() []string { return []string{EventTypeBase} }

// NoticeEvent is a non-message OneBot notice (recall, poke, join, ...).
// Kept generic; the notice payload stays raw.
type NoticeEvent struct {
	BaseEvent
	NoticeType string
	Raw        json.RawMessage
}

func (e *NoticeEvent) TypeChain() []string {
	return []string{EventTypeNotice, EventTypeBase}
}

// MessageEvent is the common shape of private and group messages.
type MessageEvent struct {
	BaseEvent
	MessageID  string
	UserID     string
	Nickname   string
	Segments   []Segment
	RawContent string
}

func (e *MessageEvent) TypeChain() []string {
	return []string{EventTypeMessage, EventTypeBase}
}

// NativeMessage implements bridge.NativeCarrier.
func (e *MessageEvent) NativeMessage() any { return e.Segments }

// PrivateMessageEvent is a direct message to the bot.
type PrivateMessageEvent struct {
	MessageEvent
}

func (e *PrivateMessageEvent) TypeChain() []string {
	return []string{EventTypePrivateMessage, EventTypeMessage, EventTypeBase}
}

// GroupMessageEvent is a message in a group the bot is a member of.
type GroupMessageEvent struct {
	MessageEvent
	GroupID string
	// Card is the sender's in-group display name, preferred over the
	// global nickname when present.
	Card string
}

func (e *GroupMessageEvent) TypeChain() []string {
	return []string{EventTypeGroupMessage, EventTypeMessage, EventTypeBase}
}

// rawEvent mirrors the loose wire shape of a OneBot event frame. Numeric
// fields arrive as numbers or strings depending on the implementation, so
// ids are kept raw and normalized afterwards.
type rawEvent struct {
	PostType    string          `json:"post_type"`
	MessageType string          `json:"message_type"`
	NoticeType  string          `json:"notice_type"`
	MessageID   json.RawMessage `json:"message_id"`
	UserID      json.RawMessage `json:"user_id"`
	GroupID     json.RawMessage `json:"group_id"`
	SelfID      json.RawMessage `json:"self_id"`
	Time        int64           `json:"time"`
	RawMessage  string          `json:"raw_message"`
	Message     json.RawMessage `json:"message"`
	Sender      struct {
		Nickname string `json:"nickname"`
		Card     string `json:"card"`
	} `json:"sender"`
}

// ParseEvent turns a raw OneBot event frame into a typed event. It returns
// (nil, nil) for frames that are not events this backend dispatches
// (heartbeats, lifecycle metadata).
func ParseEvent(data []byte) (bridge.Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("onebot: malformed event frame: %w", err)
	}

	base := BaseEvent{SelfID: rawID(raw.SelfID), Time: raw.Time}

	switch raw.PostType {
	case "message":
		me := MessageEvent{
			BaseEvent:  base,
			MessageID:  rawID(raw.MessageID),
			UserID:     rawID(raw.UserID),
			Nickname:   raw.Sender.Nickname,
			Segments:   parseWireSegments(raw.Message, raw.RawMessage),
			RawContent: raw.RawMessage,
		}
		switch raw.MessageType {
		case "group":
			return &GroupMessageEvent{
				MessageEvent: me,
				GroupID:      rawID(raw.GroupID),
				Card:         raw.Sender.Card,
			}, nil
		default:
			return &PrivateMessageEvent{MessageEvent: me}, nil
		}
	case "notice":
		return &NoticeEvent{BaseEvent: base, NoticeType: raw.NoticeType, Raw: data}, nil
	case "meta_event", "":
		return nil, nil
	default:
		return &NoticeEvent{BaseEvent: base, NoticeType: raw.PostType, Raw: data}, nil
	}
}

// parseWireSegments decodes the message field, which is either a segment
// array or a CQ-style string depending on the remote's configured format.
// String-format messages fall back to a single text segment of the raw
// content.
func parseWireSegments(raw json.RawMessage, fallback string) []Segment {
	if len(raw) == 0 {
		return nil
	}
	var segs []Segment
	if err := json.Unmarshal(raw, &segs); err == nil {
		return segs
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []Segment{{Type: "text", Data: map[string]any{"text": s}}}
	}
	if fallback != "" {
		return []Segment{{Type: "text", Data: map[string]any{"text": fallback}}}
	}
	return nil
}

// rawID normalizes an id field that may arrive as a JSON number or string.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprintf("%d", n)
	}
	return string(raw)
}
