package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepmind9/chatbridge/internal/message"
)

func TestBuilder_Build(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		out, err := Builder{}.Build(message.FromText("hello"))
		require.NoError(t, err)

		n := out.(Native)
		assert.Equal(t, "hello", n.Text)
		assert.Empty(t, n.Entities)
		assert.Empty(t, n.Photos)
	})

	t.Run("mention renders as text_mention entity", func(t *testing.T) {
		out, err := Builder{}.Build(message.New(
			message.Mention{UserID: "42"},
			message.Text{Content: " hello"},
		))
		require.NoError(t, err)

		n := out.(Native)
		assert.Equal(t, "@42 hello", n.Text)
		require.Len(t, n.Entities, 1)
		assert.Equal(t, "text_mention", n.Entities[0].Type)
		assert.Equal(t, 0, n.Entities[0].Offset)
		assert.Equal(t, 3, n.Entities[0].Length)
		require.NotNil(t, n.Entities[0].User)
		assert.Equal(t, int64(42), n.Entities[0].User.ID)
	})

	t.Run("entity offsets count utf-16 units", func(t *testing.T) {
		// The astral emoji occupies two UTF-16 code units.
		out, err := Builder{}.Build(message.New(
			message.Text{Content: "\U0001F600 "},
			message.Mention{UserID: "7", Display: "@seven"},
		))
		require.NoError(t, err)

		n := out.(Native)
		require.Len(t, n.Entities, 1)
		assert.Equal(t, 3, n.Entities[0].Offset)
		assert.Equal(t, 6, n.Entities[0].Length)
	})

	t.Run("mention-all degrades to literal text", func(t *testing.T) {
		out, err := Builder{}.Build(message.New(
			message.MentionAll{},
			message.Text{Content: " wake up"},
		))
		require.NoError(t, err)
		assert.Equal(t, "@all wake up", out.(Native).Text)
	})

	t.Run("images collect into photos", func(t *testing.T) {
		out, err := Builder{}.Build(message.New(
			message.Text{Content: "look"},
			message.Image{URL: "https://example.com/a.png"},
			message.ImageFile{Path: "/tmp/b.png"},
		))
		require.NoError(t, err)

		n := out.(Native)
		assert.Equal(t, "look", n.Text)
		assert.Equal(t, []string{"https://example.com/a.png", "file:///tmp/b.png"}, n.Photos)
	})

	t.Run("reply sets reply-to id", func(t *testing.T) {
		out, err := Builder{}.Build(message.New(
			message.Reply{MessageID: "120"},
			message.Text{Content: "ok"},
		))
		require.NoError(t, err)
		assert.Equal(t, 120, out.(Native).ReplyTo)
	})

	t.Run("unsupported media degrade to markers", func(t *testing.T) {
		out, err := Builder{}.Build(message.New(
			message.Voice{Source: "v.ogg"},
			message.File{Source: "/tmp/x", Name: "x.pdf"},
		))
		require.NoError(t, err)
		assert.Equal(t, "[voice][file] x.pdf", out.(Native).Text)
	})
}

func TestExtractor_Extract(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		msg, err := Extractor{}.Extract(Native{Text: "hi"})
		require.NoError(t, err)
		assert.True(t, msg.Equal(message.FromText("hi")))
	})

	t.Run("text_mention splits the text", func(t *testing.T) {
		msg, err := Extractor{}.Extract(Native{
			Text: "hey @bob later",
			Entities: []tgbotapi.MessageEntity{
				{Type: "text_mention", Offset: 4, Length: 4, User: &tgbotapi.User{ID: 99}},
			},
		})
		require.NoError(t, err)
		assert.True(t, msg.Equal(message.New(
			message.Text{Content: "hey "},
			message.Mention{UserID: "99", Display: "@bob"},
			message.Text{Content: " later"},
		)))
	})

	t.Run("formatting entities extract as plain text", func(t *testing.T) {
		msg, err := Extractor{}.Extract(Native{
			Text: "bold words",
			Entities: []tgbotapi.MessageEntity{
				{Type: "bold", Offset: 0, Length: 4},
			},
		})
		require.NoError(t, err)
		assert.True(t, msg.Equal(message.FromText("bold words")))
	})

	t.Run("photos extract after the text", func(t *testing.T) {
		msg, err := Extractor{}.Extract(Native{
			Text:   "see",
			Photos: []string{"file-id-1"},
		})
		require.NoError(t, err)
		assert.True(t, msg.Equal(message.New(
			message.Text{Content: "see"},
			message.Image{URL: "file-id-1"},
		)))
	})

	t.Run("wrong native type fails", func(t *testing.T) {
		_, err := Extractor{}.Extract("nope")
		assert.Error(t, err)
	})
}

func TestCodec_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		msg  message.Message
	}{
		{"text", message.FromText("hello world")},
		{"mention then text", message.New(
			message.Mention{UserID: "42"},
			message.Text{Content: " hello"},
		)},
		{"text with image", message.New(
			message.Text{Content: "pic"},
			message.Image{URL: "https://example.com/i.png"},
		)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			native, err := Builder{}.Build(tc.msg)
			require.NoError(t, err)

			back, err := Extractor{}.Extract(native)
			require.NoError(t, err)
			assert.True(t, back.Equal(tc.msg), "got %#v", back)
		})
	}

	// Telegram does not interleave photos with text, so an image placed
	// before the text comes back after it. Fidelity loss, not an error.
	t.Run("image before text reorders to image after text", func(t *testing.T) {
		native, err := Builder{}.Build(message.New(
			message.Image{URL: "https://example.com/i.png"},
			message.Text{Content: "caption"},
		))
		require.NoError(t, err)

		back, err := Extractor{}.Extract(native)
		require.NoError(t, err)
		assert.True(t, back.Equal(message.New(
			message.Text{Content: "caption"},
			message.Image{URL: "https://example.com/i.png"},
		)), "got %#v", back)
	})
}
