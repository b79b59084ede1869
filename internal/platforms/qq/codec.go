// Package qq implements the QQ open-platform backend on top of botgo: a
// websocket gateway connection, content-markup transcoders, targets for
// guild channels, group chats and C2C chats, and event resolvers.
package qq

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/message"
)

// Platform is the registry key for the QQ backend.
const Platform = "qq"

// Entity kinds served by this backend.
const (
	KindGuildChannel = "qq-guild-channel"
	KindGuildDirect  = "qq-guild-direct"
	KindGroup        = "qq-group"
	KindUser         = "qq-user"
)

// Native is the platform-native message: content markup plus at most one
// attached image. QQ mentions travel inside the content as <@!id> tokens,
// emoji as <emoji:id>; the open platform accepts a single image URL per
// message.
type Native struct {
	Content string
	// Image is the attachment URL, empty for text-only messages.
	Image string
	// ReplyTo is the event message id for passive replies, empty for
	// active messages.
	ReplyTo string
}

// Builder converts universal messages to QQ content markup.
type Builder struct{}

// Build implements bridge.Builder. mention-all renders as @everyone, which
// QQ only honors in guild channels; elsewhere it stays literal text.
func (Builder) Build(msg message.Message) (any, error) {
	var n Native
	var b strings.Builder

	for _, seg := range msg {
		switch v := seg.(type) {
		case message.Text:
			b.WriteString(v.Content)
		case message.Mention:
			b.WriteString("<@!" + v.UserID + ">")
		case message.MentionAll:
			b.WriteString("@everyone")
		case message.Emoji:
			b.WriteString("<emoji:" + v.ID + ">")
		case message.Image:
			if n.Image == "" {
				n.Image = v.URL
			} else {
				// One attachment per message; extras degrade to links
				b.WriteString(v.URL)
			}
		case message.ImageFile:
			b.WriteString("[image] " + v.Path)
		case message.Reply:
			n.ReplyTo = v.MessageID
		case message.Voice:
			b.WriteString("[voice]")
		case message.Audio:
			b.WriteString("[audio]")
		case message.Video:
			b.WriteString("[video]")
		case message.File:
			b.WriteString("[file] " + v.Name)
		case message.ForwardNode:
			b.WriteString(v.Content.PlainText())
		case message.JSONCard, message.XMLCard, message.Forward, message.Other:
			// Not representable; dropped with fidelity loss only
		default:
			return nil, fmt.Errorf("qq: nil segment")
		}
	}
	n.Content = b.String()
	return n, nil
}

// Extractor converts QQ content markup back to the universal model.
type Extractor struct{}

var markupPattern = regexp.MustCompile(`<@!?([^>]+)>|@everyone|<emoji:([^>]+)>`)

// Extract implements bridge.Extractor.
func (Extractor) Extract(native any) (message.Message, error) {
	n, ok := native.(Native)
	if !ok {
		return nil, fmt.Errorf("qq: cannot extract %T", native)
	}

	msg := extractContent(n.Content)
	if n.ReplyTo != "" {
		msg = msg.Prepend(message.Reply{MessageID: n.ReplyTo})
	}
	if n.Image != "" {
		msg = msg.Append(message.Image{URL: n.Image})
	}
	return msg, nil
}

func extractContent(content string) message.Message {
	var msg message.Message
	cursor := 0
	for _, loc := range markupPattern.FindAllStringSubmatchIndex(content, -1) {
		if loc[0] > cursor {
			msg = msg.Append(message.Text{Content: content[cursor:loc[0]]})
		}
		switch {
		case loc[2] >= 0:
			msg = msg.Append(message.Mention{UserID: content[loc[2]:loc[3]]})
		case loc[4] >= 0:
			msg = msg.Append(message.Emoji{ID: content[loc[4]:loc[5]]})
		default:
			msg = msg.Append(message.MentionAll{})
		}
		cursor = loc[1]
	}
	if cursor < len(content) {
		msg = msg.Append(message.Text{Content: content[cursor:]})
	}
	return msg
}

var (
	_ bridge.Builder   = Builder{}
	_ bridge.Extractor = Extractor{}
)
