// Package onebot implements the OneBot v11 backend: a websocket connection
// handle, message transcoders, entity targets and event resolvers for any
// OneBot-compatible service.
package onebot

import (
	"fmt"
	"strconv"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/message"
)

// Platform is the registry key for the OneBot backend.
const Platform = "onebot"

// Entity kinds served by this backend.
const (
	KindPrivate = "onebot-private"
	KindGroup   = "onebot-group"
)

// Segment is one native OneBot message segment: a type tag and a loose
// data map, exactly as it appears on the wire.
type Segment struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Node wraps a nested message as a custom forward node for
// send_group_forward_msg.
func node(userID, nickname string, content []Segment) Segment {
	return Segment{
		Type: "node",
		Data: map[string]any{
			"user_id":  userID,
			"nickname": nickname,
			"content":  content,
		},
	}
}

// Builder converts universal messages to OneBot segment arrays.
type Builder struct{}

// Build implements bridge.Builder. mention-all degrades to at qq=all;
// kinds OneBot v11 has no segment for degrade to their nearest
// equivalent (audio becomes record, generic files become a text marker).
func (Builder) Build(msg message.Message) (any, error) {
	return buildSegments(msg)
}

// BuildForward implements bridge.ForwardBuilder: each universal message
// becomes one custom forward node attributed to the bot.
func (Builder) BuildForward(msgs []message.Message) (any, error) {
	nodes := make([]Segment, 0, len(msgs))
	for _, m := range msgs {
		segs, err := buildSegments(m)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node("", "", segs))
	}
	return nodes, nil
}

func buildSegments(msg message.Message) ([]Segment, error) {
	out := make([]Segment, 0, len(msg))
	for _, seg := range msg {
		if seg == nil {
			return nil, fmt.Errorf("onebot: nil segment")
		}
		native, ok := buildSegment(seg)
		if ok {
			out = append(out, native)
		}
	}
	return out, nil
}

func buildSegment(seg message.Segment) (Segment, bool) {
	switch v := seg.(type) {
	case message.Text:
		return Segment{Type: "text", Data: map[string]any{"text": v.Content}}, true
	case message.Mention:
		return Segment{Type: "at", Data: map[string]any{"qq": v.UserID}}, true
	case message.MentionAll:
		// OneBot renders mention-all as a mention of the reserved id "all"
		return Segment{Type: "at", Data: map[string]any{"qq": "all"}}, true
	case message.Emoji:
		return Segment{Type: "face", Data: map[string]any{"id": v.ID}}, true
	case message.Image:
		return Segment{Type: "image", Data: map[string]any{"file": v.URL}}, true
	case message.ImageFile:
		return Segment{Type: "image", Data: map[string]any{"file": "file://" + v.Path}}, true
	case message.Voice:
		return Segment{Type: "record", Data: map[string]any{"file": v.Source}}, true
	case message.Audio:
		// OneBot v11 has no dedicated audio segment; degrade to record
		return Segment{Type: "record", Data: map[string]any{"file": v.Source}}, true
	case message.Video:
		return Segment{Type: "video", Data: map[string]any{"file": v.Source}}, true
	case message.File:
		// No file message segment in OneBot v11; files go through the
		// upload_group_file API on the target adapter. Degrade to a text
		// marker so the message is not silently shorter.
		return Segment{Type: "text", Data: map[string]any{"text": "[file] " + v.Name}}, true
	case message.Reply:
		return Segment{Type: "reply", Data: map[string]any{"id": v.MessageID}}, true
	case message.Forward:
		return Segment{Type: "forward", Data: map[string]any{"id": v.ID}}, true
	case message.ForwardNode:
		segs, err := buildSegments(v.Content)
		if err != nil {
			return Segment{}, false
		}
		return node(v.UserID, v.Nickname, segs), true
	case message.JSONCard:
		return Segment{Type: "json", Data: map[string]any{"data": v.Data}}, true
	case message.XMLCard:
		return Segment{Type: "xml", Data: map[string]any{"data": v.Data}}, true
	case message.Other:
		return Segment{Type: v.Type, Data: v.Data}, true
	default:
		return Segment{}, false
	}
}

// Extractor converts OneBot segment arrays back to universal messages.
type Extractor struct{}

// Extract implements bridge.Extractor. Unrecognized native kinds are
// preserved as message.Other.
func (Extractor) Extract(native any) (message.Message, error) {
	segs, ok := native.([]Segment)
	if !ok {
		return nil, fmt.Errorf("onebot: cannot extract %T", native)
	}
	return extractSegments(segs), nil
}

func extractSegments(segs []Segment) message.Message {
	out := make(message.Message, 0, len(segs))
	for _, seg := range segs {
		out = append(out, extractSegment(seg))
	}
	return out
}

func extractSegment(seg Segment) message.Segment {
	switch seg.Type {
	case "text":
		return message.Text{Content: str(seg.Data, "text")}
	case "at":
		qq := str(seg.Data, "qq")
		if qq == "all" {
			return message.MentionAll{}
		}
		return message.Mention{UserID: qq}
	case "face":
		return message.Emoji{ID: str(seg.Data, "id")}
	case "image":
		file := str(seg.Data, "file")
		if url := str(seg.Data, "url"); url != "" {
			file = url
		}
		return message.Image{URL: file}
	case "record":
		return message.Voice{Source: str(seg.Data, "file")}
	case "video":
		return message.Video{Source: str(seg.Data, "file")}
	case "reply":
		return message.Reply{MessageID: str(seg.Data, "id")}
	case "forward":
		return message.Forward{ID: str(seg.Data, "id")}
	case "json":
		return message.JSONCard{Data: str(seg.Data, "data")}
	case "xml":
		return message.XMLCard{Data: str(seg.Data, "data")}
	default:
		return message.Other{Type: seg.Type, Data: seg.Data}
	}
}

// str reads a data field as a string, converting the loosely typed values
// OneBot implementations emit (numbers for ids are common).
func str(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

var (
	_ bridge.Builder        = Builder{}
	_ bridge.ForwardBuilder = Builder{}
	_ bridge.Extractor      = Extractor{}
)
