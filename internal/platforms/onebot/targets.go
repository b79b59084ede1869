package onebot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/keepmind9/chatbridge/internal/bridge"
)

// PrivateTarget adapts sends to a OneBot private chat.
type PrivateTarget struct{}

// Kind implements bridge.Target.
func (PrivateTarget) Kind() string { return KindPrivate }

// SendDescriptor implements bridge.Target.
func (PrivateTarget) SendDescriptor(e *bridge.Entity) (bridge.SendDescriptor, error) {
	return bridge.SendDescriptor{
		Action:       "send_private_msg",
		MessageParam: "message",
		Params:       map[string]any{"user_id": idParam(e.ID)},
	}, nil
}

// RevokeDescriptor implements bridge.Revoker.
func (PrivateTarget) RevokeDescriptor(handle bridge.SentHandle) (bridge.RevokeDescriptor, error) {
	return revokeDescriptor(handle)
}

// FetchDisplayName implements bridge.NameFetcher via get_stranger_info.
func (PrivateTarget) FetchDisplayName(ctx context.Context, conn bridge.Conn, e *bridge.Entity) (string, error) {
	data, err := conn.Invoke(ctx, "get_stranger_info", map[string]any{"user_id": idParam(e.ID)})
	if err != nil {
		return "", err
	}
	var info struct {
		Nickname string `json:"nickname"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return "", fmt.Errorf("onebot: bad get_stranger_info result: %w", err)
	}
	return info.Nickname, nil
}

// FetchAvatarURL implements bridge.AvatarFetcher. QQ avatars are served
// from a well-known URL scheme, no API call needed.
func (PrivateTarget) FetchAvatarURL(_ context.Context, _ bridge.Conn, e *bridge.Entity) (string, error) {
	return fmt.Sprintf("https://q1.qlogo.cn/g?b=qq&nk=%s&s=640", e.ID), nil
}

// SendFile implements bridge.FileSender via the upload_private_file
// extension.
func (PrivateTarget) SendFile(ctx context.Context, conn bridge.Conn, e *bridge.Entity, path, name string) error {
	_, err := conn.Invoke(ctx, "upload_private_file", map[string]any{
		"user_id": idParam(e.ID),
		"file":    path,
		"name":    name,
	})
	return err
}

// GroupTarget adapts sends to a OneBot group.
type GroupTarget struct{}

// Kind implements bridge.Target.
func (GroupTarget) Kind() string { return KindGroup }

// SendDescriptor implements bridge.Target.
func (GroupTarget) SendDescriptor(e *bridge.Entity) (bridge.SendDescriptor, error) {
	return bridge.SendDescriptor{
		Action:       "send_group_msg",
		MessageParam: "message",
		Params:       map[string]any{"group_id": idParam(e.ID)},
	}, nil
}

// BatchSendDescriptor implements bridge.BatchSender: all messages go out as
// one forward bundle of custom nodes.
func (GroupTarget) BatchSendDescriptor(e *bridge.Entity) (bridge.SendDescriptor, error) {
	return bridge.SendDescriptor{
		Action:       "send_group_forward_msg",
		MessageParam: "messages",
		Params:       map[string]any{"group_id": idParam(e.ID)},
	}, nil
}

// RevokeDescriptor implements bridge.Revoker.
func (GroupTarget) RevokeDescriptor(handle bridge.SentHandle) (bridge.RevokeDescriptor, error) {
	return revokeDescriptor(handle)
}

// FetchDisplayName implements bridge.NameFetcher via get_group_info.
func (GroupTarget) FetchDisplayName(ctx context.Context, conn bridge.Conn, e *bridge.Entity) (string, error) {
	data, err := conn.Invoke(ctx, "get_group_info", map[string]any{"group_id": idParam(e.ID)})
	if err != nil {
		return "", err
	}
	var info struct {
		GroupName string `json:"group_name"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return "", fmt.Errorf("onebot: bad get_group_info result: %w", err)
	}
	return info.GroupName, nil
}

// FetchAvatarURL implements bridge.AvatarFetcher.
func (GroupTarget) FetchAvatarURL(_ context.Context, _ bridge.Conn, e *bridge.Entity) (string, error) {
	return fmt.Sprintf("https://p.qlogo.cn/gh/%s/%s/640", e.ID, e.ID), nil
}

// SendFile implements bridge.FileSender via upload_group_file.
func (GroupTarget) SendFile(ctx context.Context, conn bridge.Conn, e *bridge.Entity, path, name string) error {
	_, err := conn.Invoke(ctx, "upload_group_file", map[string]any{
		"group_id": idParam(e.ID),
		"file":     path,
		"name":     name,
	})
	return err
}

// revokeDescriptor reads the message id out of the send result. delete_msg
// is scope-independent in OneBot, so both targets share it.
func revokeDescriptor(handle bridge.SentHandle) (bridge.RevokeDescriptor, error) {
	var sent struct {
		MessageID json.RawMessage `json:"message_id"`
	}
	if err := json.Unmarshal(handle.Raw, &sent); err != nil {
		return bridge.RevokeDescriptor{}, fmt.Errorf("onebot: bad sent handle: %w", err)
	}
	id := rawID(sent.MessageID)
	if id == "" {
		return bridge.RevokeDescriptor{}, fmt.Errorf("onebot: sent handle has no message_id")
	}
	return bridge.RevokeDescriptor{
		Action: "delete_msg",
		Params: map[string]any{"message_id": idParam(id)},
	}, nil
}

// idParam converts a string id to the numeric form most OneBot
// implementations expect, falling back to the string for non-numeric ids.
func idParam(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

var (
	_ bridge.Target        = PrivateTarget{}
	_ bridge.Revoker       = PrivateTarget{}
	_ bridge.NameFetcher   = PrivateTarget{}
	_ bridge.AvatarFetcher = PrivateTarget{}
	_ bridge.FileSender    = PrivateTarget{}

	_ bridge.Target        = GroupTarget{}
	_ bridge.BatchSender   = GroupTarget{}
	_ bridge.Revoker       = GroupTarget{}
	_ bridge.NameFetcher   = GroupTarget{}
	_ bridge.AvatarFetcher = GroupTarget{}
	_ bridge.FileSender    = GroupTarget{}
)
