package qq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/message"
)

func guildEvent() *MessageEvent {
	return &MessageEvent{
		SelfID:    "app-1",
		Scope:     ScopeGuild,
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		MessageID: "msg-10",
		UserID:    "user-7",
		Username:  "carol",
		Content:   "ping",
	}
}

func c2cEvent() *MessageEvent {
	return &MessageEvent{
		SelfID:    "app-1",
		Scope:     ScopeC2C,
		MessageID: "msg-11",
		UserID:    "openid-9",
		Content:   "hi",
	}
}

func TestMessageEvent_TypeChain(t *testing.T) {
	assert.Equal(t, []string{"qq.message.guild", "qq.message", "qq"}, guildEvent().TypeChain())
	assert.Equal(t, []string{"qq.message.c2c", "qq.message", "qq"}, c2cEvent().TypeChain())

	group := &MessageEvent{Scope: ScopeGroup}
	assert.Equal(t, []string{"qq.message.group", "qq.message", "qq"}, group.TypeChain())
}

func TestMessageResolver_Entities(t *testing.T) {
	res := MessageResolver{}

	t.Run("guild scope", func(t *testing.T) {
		scope, err := res.EventEntity(guildEvent())
		require.NoError(t, err)
		assert.Equal(t, KindGuildChannel, scope.Kind)
		assert.Equal(t, "chan-1", scope.ID)

		actor, err := res.ActorEntity(guildEvent())
		require.NoError(t, err)
		assert.Equal(t, KindUser, actor.Kind)
		assert.Equal(t, "user-7", actor.ID)
		assert.Equal(t, "chan-1", actor.ParentID)
		assert.Equal(t, "carol", actor.DisplayName)
	})

	t.Run("direct-message scope carries the guild id", func(t *testing.T) {
		ev := guildEvent()
		ev.Scope = ScopeGuildDirect

		scope, err := res.EventEntity(ev)
		require.NoError(t, err)
		assert.Equal(t, KindGuildDirect, scope.Kind)
		assert.Equal(t, "chan-1", scope.ID)
		assert.Equal(t, "guild-1", scope.Info["guild_id"])
	})

	t.Run("c2c scope is the user itself", func(t *testing.T) {
		scope, err := res.EventEntity(c2cEvent())
		require.NoError(t, err)
		assert.Equal(t, KindUser, scope.Kind)
		assert.Equal(t, "openid-9", scope.ID)

		actor, err := res.ActorEntity(c2cEvent())
		require.NoError(t, err)
		assert.Empty(t, actor.ParentID)
	})
}

func TestMessageResolver_Framing(t *testing.T) {
	res := MessageResolver{}

	t.Run("at-sender in guild channels", func(t *testing.T) {
		framed := res.FrameAtSender(guildEvent(), message.FromText("pong"))
		assert.True(t, framed.Equal(message.New(
			message.Mention{UserID: "user-7", Display: "carol"},
			message.Text{Content: " "},
			message.Text{Content: "pong"},
		)))
	})

	t.Run("at-sender is a no-op in c2c", func(t *testing.T) {
		framed := res.FrameAtSender(c2cEvent(), message.FromText("pong"))
		assert.True(t, framed.Equal(message.FromText("pong")))
	})

	t.Run("reply carries the event message id", func(t *testing.T) {
		framed := res.FrameReply(guildEvent(), message.FromText("pong"))
		assert.True(t, framed.Equal(message.New(
			message.Reply{MessageID: "msg-10"},
			message.Text{Content: "pong"},
		)))
	})
}

func TestGuildChannelTarget_Descriptors(t *testing.T) {
	target := GuildChannelTarget{}

	t.Run("send", func(t *testing.T) {
		d, err := target.SendDescriptor(&bridge.Entity{Kind: KindGuildChannel, ID: "chan-1"})
		require.NoError(t, err)
		assert.Equal(t, "send_channel_message", d.Action)
		assert.Equal(t, "chan-1", d.Params["channel_id"])
	})

	t.Run("revoke parses the sent message", func(t *testing.T) {
		handle := bridge.SentHandle{
			Platform: Platform,
			Kind:     KindGuildChannel,
			Raw:      []byte(`{"id":"msg-10","channel_id":"chan-1"}`),
		}
		d, err := target.RevokeDescriptor(handle)
		require.NoError(t, err)
		assert.Equal(t, "retract_channel_message", d.Action)
		assert.Equal(t, "msg-10", d.Params["message_id"])
		assert.Equal(t, "chan-1", d.Params["channel_id"])
	})

	t.Run("revoke rejects an empty handle", func(t *testing.T) {
		_, err := target.RevokeDescriptor(bridge.SentHandle{Raw: []byte(`{}`)})
		assert.Error(t, err)
	})
}

func TestGuildDirectTarget_NeedsGuildID(t *testing.T) {
	target := GuildDirectTarget{}

	d, err := target.SendDescriptor(&bridge.Entity{
		Kind: KindGuildDirect,
		ID:   "chan-1",
		Info: map[string]string{"guild_id": "guild-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "send_direct_message", d.Action)
	assert.Equal(t, "guild-1", d.Params["guild_id"])

	_, err = target.SendDescriptor(&bridge.Entity{Kind: KindGuildDirect, ID: "chan-1"})
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	reg := bridge.NewRegistrar()
	Register(reg)
	reg.Seal()

	_, err := reg.Builder(Platform)
	assert.NoError(t, err)

	for _, kind := range []string{KindGuildChannel, KindGuildDirect, KindGroup, KindUser} {
		_, err := reg.Target(kind)
		assert.NoError(t, err, kind)
	}

	res, err := reg.Resolver(c2cEvent())
	require.NoError(t, err)
	assert.NotNil(t, res)
}
