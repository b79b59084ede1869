package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/message"
)

func groupEvent() *MessageEvent {
	return &MessageEvent{
		SelfID:    "111",
		ChatID:    -100123,
		ChatType:  "supergroup",
		ChatTitle: "dev chat",
		MessageID: 500,
		UserID:    42,
		Username:  "alice",
		FirstName: "Alice",
		Native:    Native{Text: "hello", Photos: []string{"file-id-9"}},
	}
}

func privateEvent() *MessageEvent {
	return &MessageEvent{
		SelfID:    "111",
		ChatID:    42,
		ChatType:  "private",
		MessageID: 12,
		UserID:    42,
		FirstName: "Alice",
		Native:    Native{Text: "hi"},
	}
}

func TestMessageEvent_TypeChain(t *testing.T) {
	assert.Equal(t,
		[]string{"telegram.message.group", "telegram.message", "telegram"},
		groupEvent().TypeChain())
	assert.Equal(t,
		[]string{"telegram.message.private", "telegram.message", "telegram"},
		privateEvent().TypeChain())
}

func TestMessageResolver_Entities(t *testing.T) {
	res := MessageResolver{}

	t.Run("group scope and actor", func(t *testing.T) {
		scope, err := res.EventEntity(groupEvent())
		require.NoError(t, err)
		assert.Equal(t, KindChat, scope.Kind)
		assert.Equal(t, "-100123", scope.ID)
		assert.Equal(t, "dev chat", scope.DisplayName)

		actor, err := res.ActorEntity(groupEvent())
		require.NoError(t, err)
		assert.Equal(t, KindUser, actor.Kind)
		assert.Equal(t, "42", actor.ID)
		assert.Equal(t, "-100123", actor.ParentID)
		assert.Equal(t, "alice", actor.Info["username"])
	})

	t.Run("private actor has no parent scope", func(t *testing.T) {
		actor, err := res.ActorEntity(privateEvent())
		require.NoError(t, err)
		assert.Empty(t, actor.ParentID)
	})

	t.Run("foreign event fails", func(t *testing.T) {
		_, err := res.EventEntity(nil)
		assert.Error(t, err)
	})
}

func TestMessageResolver_Framing(t *testing.T) {
	res := MessageResolver{}

	t.Run("at-sender prepends mention in groups", func(t *testing.T) {
		framed := res.FrameAtSender(groupEvent(), message.FromText("done"))
		assert.True(t, framed.Equal(message.New(
			message.Mention{UserID: "42", Display: "@alice"},
			message.Text{Content: " "},
			message.Text{Content: "done"},
		)))
	})

	t.Run("at-sender is a no-op in private chats", func(t *testing.T) {
		framed := res.FrameAtSender(privateEvent(), message.FromText("done"))
		assert.True(t, framed.Equal(message.FromText("done")))
	})

	t.Run("reply prepends the event message id", func(t *testing.T) {
		framed := res.FrameReply(groupEvent(), message.FromText("done"))
		assert.True(t, framed.Equal(message.New(
			message.Reply{MessageID: "500"},
			message.Text{Content: "done"},
		)))
	})
}

func TestMessageResolver_RepliedContent(t *testing.T) {
	res := MessageResolver{}
	ev := groupEvent()
	ev.Replied = &RepliedRef{
		MessageID: 480,
		Text:      "original",
		Photos:    []string{"file-id-old"},
	}

	text, err := res.RepliedText(context.Background(), nil, ev)
	require.NoError(t, err)
	assert.Equal(t, "original", text)

	images, err := res.RepliedImages(context.Background(), nil, ev)
	require.NoError(t, err)
	assert.Equal(t, []string{"file-id-old"}, images)

	assert.Equal(t, []string{"file-id-9"}, res.MessageImages(ev))
}

func TestMessageResolver_NoReply(t *testing.T) {
	res := MessageResolver{}

	text, err := res.RepliedText(context.Background(), nil, groupEvent())
	require.NoError(t, err)
	assert.Empty(t, text)

	images, err := res.RepliedImages(context.Background(), nil, groupEvent())
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestChatTarget_Descriptors(t *testing.T) {
	target := NewChatTarget(KindChat)
	entity := &bridge.Entity{BotID: "111", Kind: KindChat, ID: "-100123"}

	t.Run("send", func(t *testing.T) {
		d, err := target.SendDescriptor(entity)
		require.NoError(t, err)
		assert.Equal(t, "send_message", d.Action)
		assert.Equal(t, "message", d.MessageParam)
		assert.Equal(t, "-100123", d.Params["chat_id"])
	})

	t.Run("revoke parses the sent message", func(t *testing.T) {
		handle := bridge.SentHandle{
			Platform: Platform,
			Kind:     KindChat,
			Raw:      []byte(`{"message_id":500,"chat":{"id":-100123}}`),
		}
		d, err := target.RevokeDescriptor(handle)
		require.NoError(t, err)
		assert.Equal(t, "delete_message", d.Action)
		assert.Equal(t, int64(-100123), d.Params["chat_id"])
		assert.Equal(t, 500, d.Params["message_id"])
	})

	t.Run("revoke rejects a handle without message id", func(t *testing.T) {
		_, err := target.RevokeDescriptor(bridge.SentHandle{Raw: []byte(`{}`)})
		assert.Error(t, err)
	})
}

func TestRegister(t *testing.T) {
	reg := bridge.NewRegistrar()
	Register(reg)
	reg.Seal()

	_, err := reg.Builder(Platform)
	assert.NoError(t, err)
	_, err = reg.Target(KindUser)
	assert.NoError(t, err)

	res, err := reg.Resolver(groupEvent())
	require.NoError(t, err)
	assert.NotNil(t, res)
}
