package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/logger"
	"github.com/keepmind9/chatbridge/pkg/constants"
)

// Conn is the Telegram connection handle, wrapping one Bot API client with
// long polling for updates. Invoke maps the middleware's named operations
// to Bot API calls.
type Conn struct {
	mu     sync.RWMutex
	token  string
	bot    *tgbotapi.BotAPI
	selfID string

	handler func(bridge.Event)
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewConn creates an unconnected Telegram connection handle.
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

// Start connects to the Bot API and begins long polling for updates.
func (c *Conn) Start(handler func(bridge.Event)) error {
	c.handler = handler
	c.ctx, c.cancel = context.WithCancel(context.Background())

	logger.WithFields(logrus.Fields{
		"token": logger.MaskSecret(c.token),
	}).Info("starting-telegram-connection")

	bot, err := tgbotapi.NewBotAPI(c.token)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	c.mu.Lock()
	c.bot = bot
	c.selfID = strconv.FormatInt(bot.Self.ID, 10)
	c.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"bot_username": bot.Self.UserName,
		"bot_id":       bot.Self.ID,
	}).Info("telegram-connection-initialized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(constants.DefaultPollTimeout.Seconds())
	updates := bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-c.ctx.Done():
				logger.Info("telegram-long-polling-stopped")
				return
			case update, ok := <-updates:
				if !ok {
					logger.Info("telegram-updates-channel-closed")
					return
				}
				if update.Message != nil && c.handler != nil {
					c.handler(eventFromMessage(c.BotID(), update.Message))
				}
			}
		}
	}()

	logger.Info("telegram-long-polling-started")
	return nil
}

// Stop closes the long polling connection.
func (c *Conn) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}

	c.mu.Lock()
	bot := c.bot
	c.bot = nil
	c.mu.Unlock()

	if bot != nil {
		bot.StopReceivingUpdates()
	}
	logger.Info("telegram-connection-stopped")
	return nil
}

// Invoke implements bridge.Conn. Supported operations: send_message,
// delete_message, send_document, get_chat.
func (c *Conn) Invoke(_ context.Context, action string, params map[string]any) (json.RawMessage, error) {
	c.mu.RLock()
	bot := c.bot
	c.mu.RUnlock()
	if bot == nil {
		return nil, fmt.Errorf("telegram connection not started")
	}

	switch action {
	case "send_message":
		return c.sendMessage(bot, params)
	case "delete_message":
		return c.deleteMessage(bot, params)
	case "send_document":
		return c.sendDocument(bot, params)
	case "get_chat":
		return c.getChat(bot, params)
	default:
		return nil, fmt.Errorf("telegram: unknown operation %q", action)
	}
}

func (c *Conn) sendMessage(bot *tgbotapi.BotAPI, params map[string]any) (json.RawMessage, error) {
	chatID, err := chatIDParam(params)
	if err != nil {
		return nil, err
	}
	native, ok := params["message"].(Native)
	if !ok {
		return nil, fmt.Errorf("telegram: send_message needs a native message, got %T", params["message"])
	}

	// Photo messages carry the text as caption; text-only messages use
	// sendMessage. Additional photos go out as bare follow-up photos.
	var sent tgbotapi.Message
	if len(native.Photos) > 0 {
		photo := tgbotapi.NewPhoto(chatID, photoFile(native.Photos[0]))
		photo.Caption = native.Text
		photo.CaptionEntities = native.Entities
		photo.ReplyToMessageID = native.ReplyTo
		sent, err = bot.Send(photo)
		if err != nil {
			return nil, err
		}
		for _, p := range native.Photos[1:] {
			if _, err := bot.Send(tgbotapi.NewPhoto(chatID, photoFile(p))); err != nil {
				return nil, err
			}
		}
	} else {
		msg := tgbotapi.NewMessage(chatID, native.Text)
		msg.Entities = native.Entities
		msg.ReplyToMessageID = native.ReplyTo
		sent, err = bot.Send(msg)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(sent)
}

func (c *Conn) deleteMessage(bot *tgbotapi.BotAPI, params map[string]any) (json.RawMessage, error) {
	chatID, err := chatIDParam(params)
	if err != nil {
		return nil, err
	}
	messageID, ok := params["message_id"].(int)
	if !ok {
		return nil, fmt.Errorf("telegram: delete_message needs message_id")
	}
	resp, err := bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Result), nil
}

func (c *Conn) sendDocument(bot *tgbotapi.BotAPI, params map[string]any) (json.RawMessage, error) {
	chatID, err := chatIDParam(params)
	if err != nil {
		return nil, err
	}
	path, _ := params["path"].(string)
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	sent, err := bot.Send(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sent)
}

func (c *Conn) getChat(bot *tgbotapi.BotAPI, params map[string]any) (json.RawMessage, error) {
	chatID, err := chatIDParam(params)
	if err != nil {
		return nil, err
	}
	chat, err := bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(chat)
}

func chatIDParam(params map[string]any) (int64, error) {
	switch v := params["chat_id"].(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("telegram: invalid chat id %q: %w", v, err)
		}
		return id, nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("telegram: missing chat_id")
	}
}

// photoFile picks the right Bot API file reference for a photo source:
// local paths, remote URLs or previously seen file ids.
func photoFile(src string) tgbotapi.RequestFileData {
	switch {
	case strings.HasPrefix(src, "file://"):
		return tgbotapi.FilePath(strings.TrimPrefix(src, "file://"))
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return tgbotapi.FileURL(src)
	default:
		return tgbotapi.FileID(src)
	}
}

var _ bridge.Conn = (*Conn)(nil)
