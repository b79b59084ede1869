// Package console implements a local terminal backend: stdin lines become
// input events and outbound messages print to stdout. It exists for manual
// testing and demos, and deliberately leaves revocation and avatar lookup
// unimplemented.
package console

import (
	"fmt"
	"strings"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/message"
)

// Platform is the registry key for the console backend.
const Platform = "console"

// KindUser is the single entity kind: the person at the terminal.
const KindUser = "console-user"

// Seg is one native console segment.
type Seg struct {
	// Type is one of "text", "emoji" or "image".
	Type  string
	Value string
}

// Native is the platform-native message: a flat segment list that renders
// to a single terminal line.
type Native struct {
	Segments []Seg
}

// Render flattens the native message into the printable line.
func (n Native) Render() string {
	var b strings.Builder
	for _, s := range n.Segments {
		switch s.Type {
		case "emoji":
			b.WriteString(":" + s.Value + ":")
		case "image":
			b.WriteString("[image " + s.Value + "]")
		default:
			b.WriteString(s.Value)
		}
	}
	return b.String()
}

// Builder converts universal messages to console segments.
type Builder struct{}

// Build implements bridge.Builder. Mentions render as plain @name text;
// every media kind degrades to a printable marker.
func (Builder) Build(msg message.Message) (any, error) {
	var n Native
	text := func(s string) {
		n.Segments = append(n.Segments, Seg{Type: "text", Value: s})
	}

	for _, seg := range msg {
		switch v := seg.(type) {
		case message.Text:
			text(v.Content)
		case message.Mention:
			display := v.Display
			if display == "" {
				display = "@" + v.UserID
			}
			text(display)
		case message.MentionAll:
			text("@all")
		case message.Emoji:
			name := v.Name
			if name == "" {
				name = v.ID
			}
			n.Segments = append(n.Segments, Seg{Type: "emoji", Value: name})
		case message.Image:
			n.Segments = append(n.Segments, Seg{Type: "image", Value: v.URL})
		case message.ImageFile:
			n.Segments = append(n.Segments, Seg{Type: "image", Value: v.Path})
		case message.Reply:
			text("(re " + v.MessageID + ") ")
		case message.Voice:
			text("[voice]")
		case message.Audio:
			text("[audio]")
		case message.Video:
			text("[video]")
		case message.File:
			text("[file] " + v.Name)
		case message.ForwardNode:
			text(v.Content.PlainText())
		case message.JSONCard, message.XMLCard, message.Forward, message.Other:
			// Not representable on a terminal
		default:
			return nil, fmt.Errorf("console: nil segment")
		}
	}
	return n, nil
}

// Extractor converts console segments back to the universal model. The
// terminal has no emoji rendering, so native emoji extract as plain text
// carrying the emoji name.
type Extractor struct{}

// Extract implements bridge.Extractor.
func (Extractor) Extract(native any) (message.Message, error) {
	n, ok := native.(Native)
	if !ok {
		return nil, fmt.Errorf("console: cannot extract %T", native)
	}

	var msg message.Message
	for _, s := range n.Segments {
		switch s.Type {
		case "image":
			msg = msg.Append(message.Image{URL: s.Value})
		case "emoji":
			msg = msg.Append(message.Text{Content: s.Value})
		default:
			msg = msg.Append(message.Text{Content: s.Value})
		}
	}
	return msg, nil
}

var (
	_ bridge.Builder   = Builder{}
	_ bridge.Extractor = Extractor{}
)
