package telegram

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/keepmind9/chatbridge/internal/bridge"
)

// ChatTarget adapts sends to a Telegram chat. The same adapter serves both
// registered kinds: a user's private chat id equals the user id, so user
// targets differ only in kind.
//
// Telegram exposes no avatar URL without extra file-resolution calls, so
// the adapter deliberately does not implement bridge.AvatarFetcher.
type ChatTarget struct {
	kind string
}

// NewChatTarget creates the adapter for one registered kind.
func NewChatTarget(kind string) ChatTarget {
	return ChatTarget{kind: kind}
}

// Kind implements bridge.Target.
func (t ChatTarget) Kind() string { return t.kind }

// SendDescriptor implements bridge.Target.
func (t ChatTarget) SendDescriptor(e *bridge.Entity) (bridge.SendDescriptor, error) {
	return bridge.SendDescriptor{
		Action:       "send_message",
		MessageParam: "message",
		Params:       map[string]any{"chat_id": e.ID},
	}, nil
}

// RevokeDescriptor implements bridge.Revoker. The sent handle is the Bot
// API message object; deleteMessage needs its chat and message ids.
func (t ChatTarget) RevokeDescriptor(handle bridge.SentHandle) (bridge.RevokeDescriptor, error) {
	var sent struct {
		MessageID int `json:"message_id"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	}
	if err := json.Unmarshal(handle.Raw, &sent); err != nil {
		return bridge.RevokeDescriptor{}, fmt.Errorf("telegram: bad sent handle: %w", err)
	}
	if sent.MessageID == 0 {
		return bridge.RevokeDescriptor{}, fmt.Errorf("telegram: sent handle has no message_id")
	}
	return bridge.RevokeDescriptor{
		Action: "delete_message",
		Params: map[string]any{
			"chat_id":    sent.Chat.ID,
			"message_id": sent.MessageID,
		},
	}, nil
}

// FetchDisplayName implements bridge.NameFetcher via getChat.
func (t ChatTarget) FetchDisplayName(ctx context.Context, conn bridge.Conn, e *bridge.Entity) (string, error) {
	data, err := conn.Invoke(ctx, "get_chat", map[string]any{"chat_id": e.ID})
	if err != nil {
		return "", err
	}
	var chat struct {
		Title     string `json:"title"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.Unmarshal(data, &chat); err != nil {
		return "", fmt.Errorf("telegram: bad get_chat result: %w", err)
	}
	switch {
	case chat.Title != "":
		return chat.Title, nil
	case chat.FirstName != "":
		name := chat.FirstName
		if chat.LastName != "" {
			name += " " + chat.LastName
		}
		return name, nil
	default:
		return chat.Username, nil
	}
}

// SendFile implements bridge.FileSender via sendDocument.
func (t ChatTarget) SendFile(ctx context.Context, conn bridge.Conn, e *bridge.Entity, path, name string) error {
	_, err := conn.Invoke(ctx, "send_document", map[string]any{
		"chat_id": e.ID,
		"path":    path,
		"name":    name,
	})
	return err
}

var (
	_ bridge.Target      = ChatTarget{}
	_ bridge.Revoker     = ChatTarget{}
	_ bridge.NameFetcher = ChatTarget{}
	_ bridge.FileSender  = ChatTarget{}
)
