// Package telegram implements the Telegram backend on top of the Bot API:
// a long-polling connection handle, message transcoders, entity targets and
// event resolvers.
package telegram

import (
	"fmt"
	"sort"
	"strconv"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/message"
)

// Platform is the registry key for the Telegram backend.
const Platform = "telegram"

// Entity kinds served by this backend. Chats and users share the wire
// shape (a user's private chat id equals the user id) but are distinct
// targets.
const (
	KindChat = "telegram-chat"
	KindUser = "telegram-user"
)

// Native is the platform-native message: one text block with Bot API
// entities plus the attached photos. Telegram does not interleave photos
// with text, so image position inside the universal message is not
// preserved; images always extract after the text. Entity offsets are in
// UTF-16 code units, as the Bot API requires.
type Native struct {
	Text     string
	Entities []tgbotapi.MessageEntity
	// Photos holds image URLs or file_ids, in original order.
	Photos []string
	// ReplyTo is the message id this message replies to, 0 for none.
	ReplyTo int
}

// Builder converts universal messages to Native.
type Builder struct{}

// Build implements bridge.Builder. mention-user renders as a text_mention
// entity over its display text; mention-all degrades to literal "@all";
// emoji degrade to their name; non-image media degrade to a bracketed
// marker (files travel through the target's send_document instead).
func (Builder) Build(msg message.Message) (any, error) {
	var n Native
	offset := 0

	appendText := func(s string) {
		n.Text += s
		offset += utf16Len(s)
	}

	for _, seg := range msg {
		switch v := seg.(type) {
		case message.Text:
			appendText(v.Content)
		case message.Mention:
			display := v.Display
			if display == "" {
				display = "@" + v.UserID
			}
			userID, _ := strconv.ParseInt(v.UserID, 10, 64)
			n.Entities = append(n.Entities, tgbotapi.MessageEntity{
				Type:   "text_mention",
				Offset: offset,
				Length: utf16Len(display),
				User:   &tgbotapi.User{ID: userID},
			})
			appendText(display)
		case message.MentionAll:
			appendText("@all")
		case message.Emoji:
			name := v.Name
			if name == "" {
				name = v.ID
			}
			appendText(name)
		case message.Image:
			n.Photos = append(n.Photos, v.URL)
		case message.ImageFile:
			n.Photos = append(n.Photos, "file://"+v.Path)
		case message.Reply:
			if id, err := strconv.Atoi(v.MessageID); err == nil {
				n.ReplyTo = id
			}
		case message.Voice:
			appendText("[voice]")
		case message.Audio:
			appendText("[audio]")
		case message.Video:
			appendText("[video]")
		case message.File:
			appendText("[file] " + v.Name)
		case message.ForwardNode:
			// Telegram has no custom forward nodes; inline the content
			appendText(v.Content.PlainText())
		case message.JSONCard, message.XMLCard, message.Forward, message.Other:
			// Not representable; dropped with fidelity loss only
		default:
			return nil, fmt.Errorf("telegram: nil segment")
		}
	}
	return n, nil
}

// Extractor converts Native back to the universal model.
type Extractor struct{}

// Extract implements bridge.Extractor. text_mention entities split the
// text into mention and text segments; photos extract after the text.
func (Extractor) Extract(native any) (message.Message, error) {
	n, ok := native.(Native)
	if !ok {
		return nil, fmt.Errorf("telegram: cannot extract %T", native)
	}

	msg := extractText(n.Text, n.Entities)
	if n.ReplyTo != 0 {
		msg = msg.Prepend(message.Reply{MessageID: strconv.Itoa(n.ReplyTo)})
	}
	for _, p := range n.Photos {
		msg = msg.Append(message.Image{URL: p})
	}
	return msg, nil
}

// extractText splits text around mention entities. Only text_mention
// entities produce mention segments; other entity types (bold, links) are
// formatting and extract as plain text.
func extractText(text string, entities []tgbotapi.MessageEntity) message.Message {
	units := utf16.Encode([]rune(text))
	if len(units) == 0 {
		return message.Message{}
	}

	mentions := make([]tgbotapi.MessageEntity, 0, len(entities))
	for _, e := range entities {
		if e.Type == "text_mention" && e.User != nil {
			mentions = append(mentions, e)
		}
	}
	sort.Slice(mentions, func(i, j int) bool { return mentions[i].Offset < mentions[j].Offset })

	var msg message.Message
	cursor := 0
	appendRun := func(from, to int) {
		if from >= to {
			return
		}
		msg = msg.Append(message.Text{Content: string(utf16.Decode(units[from:to]))})
	}

	for _, e := range mentions {
		if e.Offset < cursor || e.Offset+e.Length > len(units) {
			continue
		}
		appendRun(cursor, e.Offset)
		covered := string(utf16.Decode(units[e.Offset : e.Offset+e.Length]))
		userID := strconv.FormatInt(e.User.ID, 10)
		display := covered
		if covered == "@"+userID {
			// The builder's default rendering; no explicit display
			display = ""
		}
		msg = msg.Append(message.Mention{UserID: userID, Display: display})
		cursor = e.Offset + e.Length
	}
	appendRun(cursor, len(units))
	return msg
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

var (
	_ bridge.Builder   = Builder{}
	_ bridge.Extractor = Extractor{}
)
