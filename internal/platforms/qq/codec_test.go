package qq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepmind9/chatbridge/internal/message"
)

func TestBuilder_Build(t *testing.T) {
	t.Run("text and mention markup", func(t *testing.T) {
		out, err := Builder{}.Build(message.New(
			message.Mention{UserID: "42"},
			message.Text{Content: " hello"},
		))
		require.NoError(t, err)
		assert.Equal(t, "<@!42> hello", out.(Native).Content)
	})

	t.Run("mention-all degrades to everyone", func(t *testing.T) {
		out, err := Builder{}.Build(message.New(
			message.MentionAll{},
			message.Text{Content: " meeting"},
		))
		require.NoError(t, err)
		assert.Equal(t, "@everyone meeting", out.(Native).Content)
	})

	t.Run("first image becomes the attachment", func(t *testing.T) {
		out, err := Builder{}.Build(message.New(
			message.Text{Content: "pics "},
			message.Image{URL: "https://example.com/a.png"},
			message.Image{URL: "https://example.com/b.png"},
		))
		require.NoError(t, err)

		n := out.(Native)
		assert.Equal(t, "https://example.com/a.png", n.Image)
		assert.Equal(t, "pics https://example.com/b.png", n.Content)
	})

	t.Run("reply becomes passive message id", func(t *testing.T) {
		out, err := Builder{}.Build(message.New(
			message.Reply{MessageID: "msg-5"},
			message.Text{Content: "ok"},
		))
		require.NoError(t, err)

		n := out.(Native)
		assert.Equal(t, "msg-5", n.ReplyTo)
		assert.Equal(t, "ok", n.Content)
	})

	t.Run("emoji markup", func(t *testing.T) {
		out, err := Builder{}.Build(message.New(message.Emoji{ID: "4"}))
		require.NoError(t, err)
		assert.Equal(t, "<emoji:4>", out.(Native).Content)
	})
}

func TestExtractor_Extract(t *testing.T) {
	t.Run("markup splits into segments", func(t *testing.T) {
		msg, err := Extractor{}.Extract(Native{Content: "hi <@!42>, see <emoji:4>"})
		require.NoError(t, err)
		assert.True(t, msg.Equal(message.New(
			message.Text{Content: "hi "},
			message.Mention{UserID: "42"},
			message.Text{Content: ", see "},
			message.Emoji{ID: "4"},
		)))
	})

	t.Run("everyone extracts as mention-all", func(t *testing.T) {
		msg, err := Extractor{}.Extract(Native{Content: "@everyone hello"})
		require.NoError(t, err)
		assert.True(t, msg.Equal(message.New(
			message.MentionAll{},
			message.Text{Content: " hello"},
		)))
	})

	t.Run("attachment extracts after the text", func(t *testing.T) {
		msg, err := Extractor{}.Extract(Native{Content: "see", Image: "https://example.com/a.png"})
		require.NoError(t, err)
		assert.True(t, msg.Equal(message.New(
			message.Text{Content: "see"},
			message.Image{URL: "https://example.com/a.png"},
		)))
	})

	t.Run("wrong native type fails", func(t *testing.T) {
		_, err := Extractor{}.Extract(42)
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
}
