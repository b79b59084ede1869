package discord

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/keepmind9/chatbridge/internal/bridge"
)

// ChannelTarget adapts sends to a guild or direct-message channel.
type ChannelTarget struct{}

func (ChannelTarget) Kind() string { return KindChannel }

func (ChannelTarget) SendDescriptor(e *bridge.Entity) (bridge.SendDescriptor, error) {
	return bridge.SendDescriptor{
		Action:       "send_channel_message",
		MessageParam: "message",
		Params:       map[string]any{"channel_id": e.ID},
	}, nil
}

// RevokeDescriptor implements bridge.Revoker. The sent handle is the
// message object the REST API returned.
func (ChannelTarget) RevokeDescriptor(handle bridge.SentHandle) (bridge.RevokeDescriptor, error) {
	return revokeFromHandle(handle)
}

// FetchDisplayName implements bridge.NameFetcher.
func (ChannelTarget) FetchDisplayName(ctx context.Context, conn bridge.Conn, e *bridge.Entity) (string, error) {
	data, err := conn.Invoke(ctx, "get_channel", map[string]any{"channel_id": e.ID})
	if err != nil {
		return "", err
	}
	var channel struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &channel); err != nil {
		return "", fmt.Errorf("discord: bad get_channel result: %w", err)
	}
	return channel.Name, nil
}

// SendFile implements bridge.FileSender.
func (ChannelTarget) SendFile(ctx context.Context, conn bridge.Conn, e *bridge.Entity, path, name string) error {
	_, err := conn.Invoke(ctx, "send_file", map[string]any{
		"channel_id": e.ID,
		"path":       path,
		"name":       name,
	})
	return err
}

// UserTarget adapts sends to a user through their direct-message channel,
// which the connection opens on demand.
type UserTarget struct{}

func (UserTarget) Kind() string { return KindUser }

func (UserTarget) SendDescriptor(e *bridge.Entity) (bridge.SendDescriptor, error) {
	return bridge.SendDescriptor{
		Action:       "send_user_message",
		MessageParam: "message",
		Params:       map[string]any{"user_id": e.ID},
	}, nil
}

// RevokeDescriptor implements bridge.Revoker. The sent message carries the
// dm channel id, so deletion needs no extra lookup.
func (UserTarget) RevokeDescriptor(handle bridge.SentHandle) (bridge.RevokeDescriptor, error) {
	return revokeFromHandle(handle)
}

// FetchDisplayName implements bridge.NameFetcher.
func (UserTarget) FetchDisplayName(ctx context.Context, conn bridge.Conn, e *bridge.Entity) (string, error) {
	u, err := fetchUser(ctx, conn, e.ID)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// FetchAvatarURL implements bridge.AvatarFetcher using the CDN scheme.
func (UserTarget) FetchAvatarURL(ctx context.Context, conn bridge.Conn, e *bridge.Entity) (string, error) {
	u, err := fetchUser(ctx, conn, e.ID)
	if err != nil {
		return "", err
	}
	if u.Avatar == "" {
		return "", nil
	}
	return AvatarURL(e.ID, u.Avatar), nil
}

// AvatarURL formats the CDN location of a user's avatar.
func AvatarURL(userID, hash string) string {
	return "https://cdn.discordapp.com/avatars/" + userID + "/" + hash + ".png"
}

type userInfo struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func fetchUser(ctx context.Context, conn bridge.Conn, userID string) (*userInfo, error) {
	data, err := conn.Invoke(ctx, "get_user", map[string]any{"user_id": userID})
	if err != nil {
		return nil, err
	}
	var u userInfo
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("discord: bad get_user result: %w", err)
	}
	return &u, nil
}

func revokeFromHandle(handle bridge.SentHandle) (bridge.RevokeDescriptor, error) {
	var sent struct {
		ID        string `json:"id"`
		ChannelID string `json:"channel_id"`
	}
	if err := json.Unmarshal(handle.Raw, &sent); err != nil {
		return bridge.RevokeDescriptor{}, fmt.Errorf("discord: bad sent handle: %w", err)
	}
	if sent.ID == "" || sent.ChannelID == "" {
		return bridge.RevokeDescriptor{}, fmt.Errorf("discord: sent handle lacks message or channel id")
	}
	return bridge.RevokeDescriptor{
		Action: "delete_message",
		Params: map[string]any{
			"channel_id": sent.ChannelID,
			"message_id": sent.ID,
		},
	}, nil
}

var (
	_ bridge.Target        = ChannelTarget{}
	_ bridge.Revoker       = ChannelTarget{}
	_ bridge.NameFetcher   = ChannelTarget{}
	_ bridge.FileSender    = ChannelTarget{}
	_ bridge.Target        = UserTarget{}
	_ bridge.Revoker       = UserTarget{}
	_ bridge.NameFetcher   = UserTarget{}
	_ bridge.AvatarFetcher = UserTarget{}
)
