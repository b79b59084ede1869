package onebot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/logger"
	"github.com/keepmind9/chatbridge/pkg/constants"
)

// Conn is the OneBot connection handle: one forward websocket to a OneBot
// v11 implementation. API calls are correlated with responses through the
// echo field; everything without an echo is an event and goes to the event
// handler.
type Conn struct {
	url         string
	accessToken string
	selfID      string

	mu      sync.RWMutex
	ws      *websocket.Conn
	writeMu sync.Mutex

	pending   map[string]chan apiResponse
	pendingMu sync.Mutex

	handler func(bridge.Event)
	ctx     context.Context
	cancel  context.CancelFunc
}

type apiFrame struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
	Echo   string         `json:"echo"`
}

type apiResponse struct {
	Status  string          `json:"status"`
	RetCode int             `json:"retcode"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Echo    string          `json:"echo"`
}

// NewConn creates an unconnected OneBot connection handle.
func NewConn(url, accessToken string) *Conn {
	return &Conn{
		url:         url,
		accessToken: accessToken,
		pending:     make(map[string]chan apiResponse),
	}
}

// Platform implements bridge.Conn.
func (c *Conn) Platform() string { return Platform }

// BotID implements bridge.Conn. It is the self id reported by the remote,
// learned from get_login_info at startup or from the first event.
func (c *Conn) BotID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selfID
}

// Start dials the websocket and begins dispatching events to handler.
func (c *Conn) Start(handler func(bridge.Event)) error {
	c.handler = handler
	c.ctx, c.cancel = context.WithCancel(context.Background())

	logger.WithFields(logrus.Fields{
		"url":   c.url,
		"token": logger.MaskSecret(c.accessToken),
	}).Info("starting-onebot-connection")

	header := http.Header{}
	if c.accessToken != "" {
		header.Set("Authorization", "Bearer "+c.accessToken)
	}

	ws, _, err := websocket.DefaultDialer.Dial(c.url, header)
	if err != nil {
		return fmt.Errorf("failed to dial OneBot websocket: %w", err)
	}

	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()

	go c.readLoop(ws)

	// Learn the bot's own id so events can be attributed
	if err := c.loadSelfID(); err != nil {
		logger.WithField("error", err).Warn("onebot-get-login-info-failed")
	}

	logger.Info("onebot-connection-started")
	return nil
}

// Stop closes the websocket and abandons pending API calls.
func (c *Conn) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}

	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	if ws != nil {
		_ = ws.Close()
	}

	// Complete pending API calls with a failure instead of closing their
	// channels: a response frame racing this loop must never hit a closed
	// channel. Sends are non-blocking; a call that already got its
	// response just loses the redundant failure.
	c.pendingMu.Lock()
	for echo, ch := range c.pending {
		delete(c.pending, echo)
		select {
		case ch <- apiResponse{Status: "failed", Message: "connection closed"}:
		default:
		}
	}
	c.pendingMu.Unlock()

	logger.Info("onebot-connection-stopped")
	return nil
}

// Invoke implements bridge.Conn: it sends one action frame and waits for
// the echo-correlated response, returning the response's data field.
func (c *Conn) Invoke(ctx context.Context, action string, params map[string]any) (json.RawMessage, error) {
	c.mu.RLock()
	ws := c.ws
	c.mu.RUnlock()
	if ws == nil {
		return nil, fmt.Errorf("onebot connection not started")
	}

	echo := uuid.New().String()
	ch := make(chan apiResponse, 1)

	c.pendingMu.Lock()
	c.pending[echo] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, echo)
		c.pendingMu.Unlock()
	}()

	frame := apiFrame{Action: action, Params: params, Echo: echo}
	c.writeMu.Lock()
	err := ws.WriteJSON(frame)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", action, err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, constants.DefaultInvokeTimeout)
		defer cancel()
	}

	select {
	case resp := <-ch:
		if resp.Status == "failed" {
			return nil, fmt.Errorf("onebot %s failed: retcode=%d %s", action, resp.RetCode, resp.Message)
		}
		return resp.Data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				logger.WithField("error", err).Error("onebot-read-failed")
			}
			return
		}
		c.dispatchFrame(data)
	}
}

// dispatchFrame routes one inbound frame: echo-bearing frames complete a
// pending API call, everything else is an event.
func (c *Conn) dispatchFrame(data []byte) {
	var probe struct {
		Echo string `json:"echo"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		logger.WithField("error", err).Warn("onebot-malformed-frame")
		return
	}

	if probe.Echo != "" {
		var resp apiResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			logger.WithField("error", err).Warn("onebot-malformed-response")
			return
		}
		// Claim the pending entry before sending so a duplicate echo
		// cannot deliver twice, and send non-blockingly so a stale
		// entry cannot wedge the read loop.
		c.pendingMu.Lock()
		ch, ok := c.pending[resp.Echo]
		if ok {
			delete(c.pending, resp.Echo)
		}
		c.pendingMu.Unlock()
		if ok {
			select {
			case ch <- resp:
			default:
			}
		}
		return
	}

	ev, err := ParseEvent(data)
	if err != nil {
		logger.WithField("error", err).Warn("onebot-malformed-event")
		return
	}
	if ev == nil {
		return
	}

	c.rememberSelfID(ev.BotID())

	if c.handler != nil {
		c.handler(ev)
	}
}

func (c *Conn) loadSelfID() error {
	ctx, cancel := context.WithTimeout(c.ctx, constants.DefaultConnectionTimeout)
	defer cancel()

	data, err := c.Invoke(ctx, "get_login_info", nil)
	if err != nil {
		return err
	}
	var info struct {
		UserID   json.RawMessage `json:"user_id"`
		Nickname string          `json:"nickname"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return err
	}
	c.rememberSelfID(rawID(info.UserID))
	return nil
}

func (c *Conn) rememberSelfID(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	if c.selfID == "" {
		c.selfID = id
	}
	c.mu.Unlock()
}

var _ bridge.Conn = (*Conn)(nil)
