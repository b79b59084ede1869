package qq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/keepmind9/chatbridge/internal/bridge"
)

// GuildChannelTarget adapts sends to a guild text channel. Channels are the
// only QQ scope with message retraction, so only this target is a Revoker.
type GuildChannelTarget struct{}

func (GuildChannelTarget) Kind() string { return KindGuildChannel }

func (GuildChannelTarget) SendDescriptor(e *bridge.Entity) (bridge.SendDescriptor, error) {
	return bridge.SendDescriptor{
		Action:       "send_channel_message",
		MessageParam: "message",
		Params:       map[string]any{"channel_id": e.ID},
	}, nil
}

// RevokeDescriptor implements bridge.Revoker. The sent handle is the
// dto.Message the open platform returned.
func (GuildChannelTarget) RevokeDescriptor(handle bridge.SentHandle) (bridge.RevokeDescriptor, error) {
	var sent struct {
		ID        string `json:"id"`
		ChannelID string `json:"channel_id"`
	}
	if err := json.Unmarshal(handle.Raw, &sent); err != nil {
		return bridge.RevokeDescriptor{}, fmt.Errorf("qq: bad sent handle: %w", err)
	}
	if sent.ID == "" {
		return bridge.RevokeDescriptor{}, fmt.Errorf("qq: sent handle has no message id")
	}
	return bridge.RevokeDescriptor{
		Action: "retract_channel_message",
		Params: map[string]any{
			"channel_id": sent.ChannelID,
			"message_id": sent.ID,
		},
	}, nil
}

// FetchDisplayName implements bridge.NameFetcher via the channel API.
func (GuildChannelTarget) FetchDisplayName(ctx context.Context, conn bridge.Conn, e *bridge.Entity) (string, error) {
	data, err := conn.Invoke(ctx, "get_channel", map[string]any{"channel_id": e.ID})
	if err != nil {
		return "", err
	}
	var channel struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &channel); err != nil {
		return "", fmt.Errorf("qq: bad get_channel result: %w", err)
	}
	return channel.Name, nil
}

// GuildDirectTarget adapts sends to a guild direct-message session. The
// session is addressed by channel id with the source guild alongside, which
// the resolver records in the entity info.
type GuildDirectTarget struct{}

func (GuildDirectTarget) Kind() string { return KindGuildDirect }

func (GuildDirectTarget) SendDescriptor(e *bridge.Entity) (bridge.SendDescriptor, error) {
	guildID := e.Info["guild_id"]
	if guildID == "" {
		return bridge.SendDescriptor{}, fmt.Errorf("qq: direct-message entity %s has no guild_id", e.ID)
	}
	return bridge.SendDescriptor{
		Action:       "send_direct_message",
		MessageParam: "message",
		Params: map[string]any{
			"guild_id":   guildID,
			"channel_id": e.ID,
		},
	}, nil
}

// GroupTarget adapts sends to a QQ group chat. The open platform offers no
// group message retraction, so the target is deliberately not a Revoker.
type GroupTarget struct{}

func (GroupTarget) Kind() string { return KindGroup }

func (GroupTarget) SendDescriptor(e *bridge.Entity) (bridge.SendDescriptor, error) {
	return bridge.SendDescriptor{
		Action:       "send_group_message",
		MessageParam: "message",
		Params:       map[string]any{"group_id": e.ID},
	}, nil
}

// UserTarget adapts sends to a C2C chat, addressed by user openid.
type UserTarget struct{}

func (UserTarget) Kind() string { return KindUser }

func (UserTarget) SendDescriptor(e *bridge.Entity) (bridge.SendDescriptor, error) {
	return bridge.SendDescriptor{
		Action:       "send_c2c_message",
		MessageParam: "message",
		Params:       map[string]any{"user_openid": e.ID},
	}, nil
}

var (
	_ bridge.Target      = GuildChannelTarget{}
	_ bridge.Revoker     = GuildChannelTarget{}
	_ bridge.NameFetcher = GuildChannelTarget{}
	_ bridge.Target      = GuildDirectTarget{}
	_ bridge.Target      = GroupTarget{}
	_ bridge.Target      = UserTarget{}
)
