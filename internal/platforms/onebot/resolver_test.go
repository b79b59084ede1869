package onebot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/message"
)

// stubConn answers Invoke from a canned action map.
type stubConn struct {
	results map[string]json.RawMessage
	calls   []string
}

func (c *stubConn) Platform() string { return Platform }
func (c *stubConn) BotID() string    { return "99" }

func (c *stubConn) Invoke(_ context.Context, action string, _ map[string]any) (json.RawMessage, error) {
	c.calls = append(c.calls, action)
	return c.results[action], nil
}

func groupEvent() *GroupMessageEvent {
	return &GroupMessageEvent{
		MessageEvent: MessageEvent{
			BaseEvent: BaseEvent{SelfID: "99"},
			MessageID: "123",
			UserID:    "10001",
			Nickname:  "alice",
			Segments: []Segment{
				{Type: "text", Data: map[string]any{"text": "hello"}},
				{Type: "image", Data: map[string]any{"file": "a.image", "url": "https://example.com/a.png"}},
			},
		},
		GroupID: "20002",
		Card:    "Alice",
	}
}

// TestGroupResolver_Entities tests entity extraction from a group event
func TestGroupResolver_Entities(t *testing.T) {
	r := GroupResolver{}
	ev := groupEvent()

	scope, err := r.EventEntity(ev)
	require.NoError(t, err)
	assert.Equal(t, KindGroup, scope.Kind)
	assert.Equal(t, "20002", scope.ID)
	assert.Equal(t, "99", scope.BotID)

	actor, err := r.ActorEntity(ev)
	require.NoError(t, err)
	assert.Equal(t, KindPrivate, actor.Kind)
	assert.Equal(t, "10001", actor.ID)
	assert.Equal(t, "20002", actor.ParentID)
	assert.Equal(t, "Alice", actor.DisplayName, "group card wins over nickname")
}

// TestGroupResolver_Framing tests at-sender and reply framing
func TestGroupResolver_Framing(t *testing.T) {
	r := GroupResolver{}
	ev := groupEvent()
	msg := message.FromText("hello")

	t.Run("at sender prepends the mention", func(t *testing.T) {
		framed := r.FrameAtSender(ev, msg)
		require.Len(t, framed, 3)
		assert.Equal(t, message.Mention{UserID: "10001"}, framed[0])
		assert.Equal(t, "hello", framed.PlainText()[1:], "original text preserved after the separator")
	})

	t.Run("reply prepends the reference", func(t *testing.T) {
		framed := r.FrameReply(ev, msg)
		require.Len(t, framed, 2)
		assert.Equal(t, message.Reply{MessageID: "123"}, framed[0])
	})

	t.Run("framing does not mutate the original", func(t *testing.T) {
		assert.Len(t, msg, 1)
	})
}

// TestPrivateResolver tests one-to-one chat semantics
func TestPrivateResolver(t *testing.T) {
	r := PrivateResolver{}
	ev := &PrivateMessageEvent{MessageEvent: MessageEvent{
		BaseEvent: BaseEvent{SelfID: "99"},
		MessageID: "55",
		UserID:    "10001",
		Nickname:  "bob",
	}}

	scope, err := r.EventEntity(ev)
	require.NoError(t, err)
	actor, err := r.ActorEntity(ev)
	require.NoError(t, err)
	assert.True(t, scope.Same(actor), "scope and actor coincide in private chats")

	t.Run("at sender is a no-op in private chats", func(t *testing.T) {
		msg := message.FromText("hi")
		assert.True(t, msg.Equal(r.FrameAtSender(ev, msg)))
	})

	t.Run("wrong event type fails", func(t *testing.T) {
		_, err := r.EventEntity(&GroupMessageEvent{})
		assert.Error(t, err)
	})
}

// TestMessageResolver_Images tests the image accessors
func TestMessageResolver_Images(t *testing.T) {
	r := GroupResolver{}

	urls := r.MessageImages(groupEvent())
	assert.Equal(t, []string{"https://example.com/a.png"}, urls)

	t.Run("no images", func(t *testing.T) {
		ev := groupEvent()
		ev.Segments = ev.Segments[:1]
		assert.Empty(t, r.MessageImages(ev))
	})
}

// TestMessageResolver_Replied tests parent-message lookups through get_msg
func TestMessageResolver_Replied(t *testing.T) {
	r := GroupResolver{}
	conn := &stubConn{results: map[string]json.RawMessage{
		"get_msg": json.RawMessage(`{
			"message": [
				{"type":"text","data":{"text":"original words"}},
				{"type":"image","data":{"url":"https://example.com/orig.png"}}
			]
		}`),
	}}

	ev := groupEvent()
	ev.Segments = append([]Segment{
		{Type: "reply", Data: map[string]any{"id": "777"}},
	}, ev.Segments...)

	text, err := r.RepliedText(context.Background(), conn, ev)
	require.NoError(t, err)
	assert.Equal(t, "original words", text)

	imgs, err := r.RepliedImages(context.Background(), conn, ev)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/orig.png"}, imgs)

	t.Run("not a reply yields empty results without a call", func(t *testing.T) {
		plain := groupEvent()
		conn2 := &stubConn{}
		text, err := r.RepliedText(context.Background(), conn2, plain)
		require.NoError(t, err)
		assert.Empty(t, text)
		assert.Empty(t, conn2.calls)
	})
}

// TestTargets_Descriptors tests send/revoke descriptor shapes
func TestTargets_Descriptors(t *testing.T) {
	group := GroupTarget{}
	private := PrivateTarget{}
	e := &bridge.Entity{BotID: "99", Kind: KindGroup, ID: "20002"}

	t.Run("group send", func(t *testing.T) {
		desc, err := group.SendDescriptor(e)
		require.NoError(t, err)
		assert.Equal(t, "send_group_msg", desc.Action)
		assert.Equal(t, "message", desc.MessageParam)
		assert.Equal(t, int64(20002), desc.Params["group_id"])
	})

	t.Run("group batch send", func(t *testing.T) {
		desc, err := group.BatchSendDescriptor(e)
		require.NoError(t, err)
		assert.Equal(t, "send_group_forward_msg", desc.Action)
		assert.Equal(t, "messages", desc.MessageParam)
	})

	t.Run("private send keeps non-numeric ids as strings", func(t *testing.T) {
		desc, err := private.SendDescriptor(&bridge.Entity{Kind: KindPrivate, ID: "open-id-x"})
		require.NoError(t, err)
		assert.Equal(t, "send_private_msg", desc.Action)
		assert.Equal(t, "open-id-x", desc.Params["user_id"])
	})

	t.Run("revoke from sent handle", func(t *testing.T) {
		handle := bridge.SentHandle{
			Platform: Platform,
			Kind:     KindGroup,
			Raw:      json.RawMessage(`{"message_id":123}`),
		}
		desc, err := group.RevokeDescriptor(handle)
		require.NoError(t, err)
		assert.Equal(t, "delete_msg", desc.Action)
		assert.Equal(t, int64(123), desc.Params["message_id"])
	})

	t.Run("revoke without a message id fails", func(t *testing.T) {
		_, err := group.RevokeDescriptor(bridge.SentHandle{Raw: json.RawMessage(`{}`)})
		assert.Error(t, err)
	})
}

// TestRegister tests the startup registration set
func TestRegister(t *testing.T) {
	reg := bridge.NewRegistrar()
	Register(reg)
	reg.Seal()

	_, err := reg.Builder(Platform)
	assert.NoError(t, err)
	_, err = reg.Extractor(Platform)
	assert.NoError(t, err)
	_, err = reg.Target(KindGroup)
	assert.NoError(t, err)
	_, err = reg.Target(KindPrivate)
	assert.NoError(t, err)

	res, err := reg.Resolver(groupEvent())
	require.NoError(t, err)
	assert.IsType(t, GroupResolver{}, res)

	t.Run("notice events have no resolver", func(t *testing.T) {
		_, err := reg.Resolver(&NoticeEvent{})
		assert.ErrorIs(t, err, bridge.ErrEventNotSupported)
	})
}
