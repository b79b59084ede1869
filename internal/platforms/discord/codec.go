// Package discord implements the Discord backend on top of discordgo: a
// gateway session connection, content-markup transcoders, channel and user
// targets, and event resolvers.
package discord

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/message"
)

// Platform is the registry key for the Discord backend.
const Platform = "discord"

// Entity kinds served by this backend.
const (
	KindChannel = "discord-channel"
	KindUser    = "discord-user"
)

// Native is the platform-native message: content markup with mention and
// emoji tokens, image URLs delivered as embeds, and an optional reply
// reference.
type Native struct {
	Content string
	// Images holds embed image URLs, in original order.
	Images []string
	// ReplyTo is the referenced message id, empty for plain messages.
	ReplyTo string
}

// Builder converts universal messages to Discord content markup.
type Builder struct{}

// Build implements bridge.Builder. Mentions render as <@id> tokens, custom
// emoji as <:name:id>; mention-all uses @everyone.
func (Builder) Build(msg message.Message) (any, error) {
	var n Native
	var b strings.Builder

	for _, seg := range msg {
		switch v := seg.(type) {
		case message.Text:
			b.WriteString(v.Content)
		case message.Mention:
			b.WriteString("<@" + v.UserID + ">")
		case message.MentionAll:
			b.WriteString("@everyone")
		case message.Emoji:
			name := v.Name
			if name == "" {
				name = "emoji"
			}
			b.WriteString("<:" + name + ":" + v.ID + ">")
		case message.Image:
			n.Images = append(n.Images, v.URL)
		case message.ImageFile:
			n.Images = append(n.Images, "file://"+v.Path)
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
			b.WriteString("> " + v.Content.PlainText() + "\n")
		case message.JSONCard, message.XMLCard, message.Forward, message.Other:
			// Not representable; dropped with fidelity loss only
		default:
			return nil, fmt.Errorf("discord: nil segment")
		}
	}
	n.Content = b.String()
	return n, nil
}

// Extractor converts Discord content markup back to the universal model.
type Extractor struct{}

var markupPattern = regexp.MustCompile(`<@!?(\d+)>|@everyone|<:([^:>]+):(\d+)>`)

// Extract implements bridge.Extractor.
func (Extractor) Extract(native any) (message.Message, error) {
	n, ok := native.(Native)
	if !ok {
		return nil, fmt.Errorf("discord: cannot extract %T", native)
	}

	msg := extractContent(n.Content)
	if n.ReplyTo != "" {
		msg = msg.Prepend(message.Reply{MessageID: n.ReplyTo})
	}
	for _, u := range n.Images {
		msg = msg.Append(message.Image{URL: u})
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
			msg = msg.Append(message.Emoji{
				Name: content[loc[4]:loc[5]],
				ID:   content[loc[6]:loc[7]],
			})
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
