package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/logger"
)

// Conn is the Discord connection handle, wrapping one gateway session.
type Conn struct {
	mu     sync.RWMutex
	token  string
	sess   *discordgo.Session
	selfID string

	handler func(bridge.Event)
}

// NewConn creates an unconnected Discord connection handle.
func NewConn(token string) *Conn {
	return &Conn{token: token}
}

// Platform implements bridge.Conn.
func (c *Conn) Platform() string { return Platform }

// BotID implements bridge.Conn.
func (c *Conn) BotID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selfID
}

// Start opens the gateway session and begins receiving message events.
func (c *Conn) Start(handler func(bridge.Event)) error {
	c.handler = handler

	logger.WithFields(logrus.Fields{
		"token": logger.MaskSecret(c.token),
	}).Info("starting-discord-connection")

	sess, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	sess.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		logger.WithFields(logrus.Fields{
			"user_id": m.Author.ID,
			"channel": m.ChannelID,
		}).Debug("received-discord-message")
		if c.handler != nil {
			c.handler(eventFromMessage(c.BotID(), m.Message))
		}
	})

	if err := sess.Open(); err != nil {
		return fmt.Errorf("failed to open discord connection: %w", err)
	}

	c.mu.Lock()
	c.sess = sess
	if sess.State != nil && sess.State.User != nil {
		c.selfID = sess.State.User.ID
	}
	c.mu.Unlock()

	logger.WithField("bot_id", c.BotID()).Info("discord-connection-started")
	return nil
}

// Stop closes the gateway session.
func (c *Conn) Stop() error {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()

	if sess == nil {
		return nil
	}
	if err := sess.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	logger.Info("discord-connection-stopped")
	return nil
}

// Invoke implements bridge.Conn. Supported operations: send_channel_message,
// send_user_message, delete_message, send_file, get_channel, get_user.
func (c *Conn) Invoke(_ context.Context, action string, params map[string]any) (json.RawMessage, error) {
	c.mu.RLock()
	sess := c.sess
	c.mu.RUnlock()
	if sess == nil {
		return nil, fmt.Errorf("discord connection not started")
	}

	switch action {
	case "send_channel_message":
		return c.sendMessage(sess, stringParam(params, "channel_id"), params)
	case "send_user_message":
		dm, err := sess.UserChannelCreate(stringParam(params, "user_id"))
		if err != nil {
			return nil, fmt.Errorf("failed to open dm channel: %w", err)
		}
		return c.sendMessage(sess, dm.ID, params)
	case "delete_message":
		err := sess.ChannelMessageDelete(stringParam(params, "channel_id"), stringParam(params, "message_id"))
		if err != nil {
			return nil, err
		}
		return json.RawMessage(`{}`), nil
	case "send_file":
		return c.sendFile(sess, params)
	case "get_channel":
		ch, err := sess.Channel(stringParam(params, "channel_id"))
		if err != nil {
			return nil, err
		}
		return json.Marshal(ch)
	case "get_user":
		u, err := sess.User(stringParam(params, "user_id"))
		if err != nil {
			return nil, err
		}
		return json.Marshal(u)
	default:
		return nil, fmt.Errorf("discord: unknown operation %q", action)
	}
}

func (c *Conn) sendMessage(sess *discordgo.Session, channelID string, params map[string]any) (json.RawMessage, error) {
	native, ok := params["message"].(Native)
	if !ok {
		return nil, fmt.Errorf("discord: send needs a native message, got %T", params["message"])
	}

	send := &discordgo.MessageSend{Content: native.Content}
	if native.ReplyTo != "" {
		send.Reference = &discordgo.MessageReference{
			MessageID: native.ReplyTo,
			ChannelID: channelID,
		}
	}
	for _, u := range native.Images {
		send.Embeds = append(send.Embeds, &discordgo.MessageEmbed{
			Image: &discordgo.MessageEmbedImage{URL: u},
		})
	}

	sent, err := sess.ChannelMessageSendComplex(channelID, send)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sent)
}

func (c *Conn) sendFile(sess *discordgo.Session, params map[string]any) (json.RawMessage, error) {
	path := stringParam(params, "path")
	name := stringParam(params, "name")
	if name == "" {
		name = path
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	sent, err := sess.ChannelFileSend(stringParam(params, "channel_id"), name, f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sent)
}

func stringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

var _ bridge.Conn = (*Conn)(nil)
