package qq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/tencent-connect/botgo"
	"github.com/tencent-connect/botgo/dto"
	"github.com/tencent-connect/botgo/event"
	"github.com/tencent-connect/botgo/openapi"
	"github.com/tencent-connect/botgo/token"
	"golang.org/x/oauth2"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/logger"
	"github.com/keepmind9/chatbridge/pkg/constants"
)

// Conn is the QQ connection handle: an OpenAPI client plus a websocket
// session subscribed to guild, group and C2C message events.
type Conn struct {
	appID  string
	secret string

	mu          sync.RWMutex
	api         openapi.OpenAPI
	tokenSource oauth2.TokenSource

	handler func(bridge.Event)

	// msgSeq orders active messages within a session; the open platform
	// rejects duplicate (msg_id, msg_seq) pairs.
	msgSeq uint32
}

// NewConn creates an unconnected QQ connection handle.
func NewConn(appID, secret string) *Conn {
	return &Conn{appID: appID, secret: secret}
}

// Platform implements bridge.Conn.
func (c *Conn) Platform() string { return Platform }

// BotID implements bridge.Conn. The open platform identifies bots by app
// id.
func (c *Conn) BotID() string { return c.appID }

// Start authenticates against the open platform and opens the websocket
// session.
func (c *Conn) Start(handler func(bridge.Event)) error {
	c.handler = handler

	logger.WithFields(logrus.Fields{
		"app_id": c.appID,
		"secret": logger.MaskSecret(c.secret),
	}).Info("starting-qq-connection")

	creds := &token.QQBotCredentials{
		AppID:     c.appID,
		AppSecret: c.secret,
	}
	ts := token.NewQQBotTokenSource(creds)
	api := botgo.NewOpenAPI(creds.AppID, ts).WithTimeout(constants.DefaultConnectionTimeout)

	c.mu.Lock()
	c.api = api
	c.tokenSource = ts
	c.mu.Unlock()

	intent := event.RegisterHandlers(
		c.guildAtMessageHandler(),
		c.guildDirectMessageHandler(),
		c.groupAtMessageHandler(),
		c.c2cMessageHandler(),
	)

	ws, err := api.WS(context.Background(), nil, "")
	if err != nil {
		return fmt.Errorf("failed to fetch QQ websocket info: %w", err)
	}

	go func() {
		mgr := botgo.NewSessionManager()
		if err := mgr.Start(ws, ts, &intent); err != nil {
			logger.WithFields(logrus.Fields{
				"error": err,
			}).Error("qq-session-stopped")
		}
	}()

	logger.Info("qq-connection-started")
	return nil
}

// Stop releases the API client. The botgo session manager owns its own
// reconnect loop and winds down with the process.
func (c *Conn) Stop() error {
	c.mu.Lock()
	c.api = nil
	c.mu.Unlock()
	logger.Info("qq-connection-stopped")
	return nil
}

func (c *Conn) guildAtMessageHandler() event.ATMessageEventHandler {
	return func(_ *dto.WSPayload, data *dto.WSATMessageData) error {
		c.dispatch(eventFromGuildAt(c.appID, data))
		return nil
	}
}

func (c *Conn) guildDirectMessageHandler() event.DirectMessageEventHandler {
	return func(_ *dto.WSPayload, data *dto.WSDirectMessageData) error {
		c.dispatch(eventFromGuildDirect(c.appID, data))
		return nil
	}
}

func (c *Conn) groupAtMessageHandler() event.GroupATMessageEventHandler {
	return func(_ *dto.WSPayload, data *dto.WSGroupATMessageData) error {
		c.dispatch(eventFromGroupAt(c.appID, data))
		return nil
	}
}

func (c *Conn) c2cMessageHandler() event.C2CMessageEventHandler {
	return func(_ *dto.WSPayload, data *dto.WSC2CMessageData) error {
		c.dispatch(eventFromC2C(c.appID, data))
		return nil
	}
}

func (c *Conn) dispatch(ev *MessageEvent) {
	if c.handler != nil {
		c.handler(ev)
	}
}

// Invoke implements bridge.Conn. Supported operations: send_channel_message,
// send_direct_message, send_group_message, send_c2c_message,
// retract_channel_message, get_channel.
func (c *Conn) Invoke(ctx context.Context, action string, params map[string]any) (json.RawMessage, error) {
	c.mu.RLock()
	api := c.api
	c.mu.RUnlock()
	if api == nil {
		return nil, fmt.Errorf("qq connection not started")
	}

	switch action {
	case "send_channel_message":
		msg, err := api.PostMessage(ctx, stringParam(params, "channel_id"), c.messageToCreate(params, false))
		return marshalSent(msg, err)
	case "send_direct_message":
		dm := &dto.DirectMessage{
			GuildID:   stringParam(params, "guild_id"),
			ChannelID: stringParam(params, "channel_id"),
		}
		msg, err := api.PostDirectMessage(ctx, dm, c.messageToCreate(params, false))
		return marshalSent(msg, err)
	case "send_group_message":
		msg, err := api.PostGroupMessage(ctx, stringParam(params, "group_id"), c.messageToCreate(params, true))
		return marshalSent(msg, err)
	case "send_c2c_message":
		msg, err := api.PostC2CMessage(ctx, stringParam(params, "user_openid"), c.messageToCreate(params, true))
		return marshalSent(msg, err)
	case "retract_channel_message":
		err := api.RetractMessage(ctx, stringParam(params, "channel_id"), stringParam(params, "message_id"))
		if err != nil {
			return nil, err
		}
		return json.RawMessage(`{}`), nil
	case "get_channel":
		ch, err := api.Channel(ctx, stringParam(params, "channel_id"))
		if err != nil {
			return nil, err
		}
		return json.Marshal(ch)
	default:
		return nil, fmt.Errorf("qq: unknown operation %q", action)
	}
}

// messageToCreate builds the outbound payload. Group and C2C sends need a
// monotonic msg_seq; guild sends ignore it.
func (c *Conn) messageToCreate(params map[string]any, seq bool) *dto.MessageToCreate {
	native, _ := params["message"].(Native)
	out := &dto.MessageToCreate{
		Content: native.Content,
		Image:   native.Image,
		MsgID:   native.ReplyTo,
		MsgType: 0,
	}
	if seq {
		out.MsgSeq = atomic.AddUint32(&c.msgSeq, 1)
	}
	return out
}

func marshalSent(msg *dto.Message, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	if msg == nil {
		msg = &dto.Message{}
	}
	return json.Marshal(msg)
}

func stringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

var _ bridge.Conn = (*Conn)(nil)
