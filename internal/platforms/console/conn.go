package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/chzyer/readline"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/logger"
)

// InputEvent is one line typed at the terminal.
type InputEvent struct {
	SelfID string
	Seq    int64
	Line   string
}

func (e *InputEvent) Platform() string { return Platform }
func (e *InputEvent) BotID() string    { return e.SelfID }

func (e *InputEvent) TypeChain() []string {
	return []string{"console.input", "console"}
}

// NativeMessage implements bridge.NativeCarrier.
func (e *InputEvent) NativeMessage() any {
	return Native{Segments: []Seg{{Type: "text", Value: e.Line}}}
}

// Conn is the console connection handle: a readline loop on stdin and
// plain line output on stdout.
type Conn struct {
	botID string

	mu   sync.RWMutex
	rl   *readline.Instance
	out  io.Writer
	seq  int64
	sent int64

	handler func(bridge.Event)
}

// NewConn creates an unconnected console handle. The bot id names this
// terminal in entity identities.
func NewConn(botID string) *Conn {
	if botID == "" {
		botID = "console"
	}
	return &Conn{botID: botID, out: os.Stdout}
}

// Platform implements bridge.Conn.
func (c *Conn) Platform() string { return Platform }

// BotID implements bridge.Conn.
func (c *Conn) BotID() string { return c.botID }

// Start opens the readline loop and feeds typed lines to the handler.
func (c *Conn) Start(handler func(bridge.Event)) error {
	c.handler = handler

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".chatbridge_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}

	c.mu.Lock()
	c.rl = rl
	c.out = rl.Stdout()
	c.mu.Unlock()

	go func() {
		for {
			line, err := rl.Readline()
			if err != nil {
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					logger.Info("console-input-closed")
					return
				}
				logger.WithField("error", err).Warn("console-read-failed")
				continue
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if c.handler != nil {
				c.handler(&InputEvent{
					SelfID: c.botID,
					Seq:    atomic.AddInt64(&c.seq, 1),
					Line:   line,
				})
			}
		}
	}()

	logger.Info("console-connection-started")
	return nil
}

// Stop closes the readline loop.
func (c *Conn) Stop() error {
	c.mu.Lock()
	rl := c.rl
	c.rl = nil
	c.out = os.Stdout
	c.mu.Unlock()

	if rl != nil {
		rl.Close()
	}
	return nil
}

// Invoke implements bridge.Conn. Supported operations: send_message and
// get_name.
func (c *Conn) Invoke(_ context.Context, action string, params map[string]any) (json.RawMessage, error) {
	switch action {
	case "send_message":
		native, ok := params["message"].(Native)
		if !ok {
			return nil, fmt.Errorf("console: send_message needs a native message, got %T", params["message"])
		}
		c.mu.RLock()
		out := c.out
		c.mu.RUnlock()
		fmt.Fprintln(out, native.Render())

		id := "console-" + strconv.FormatInt(atomic.AddInt64(&c.sent, 1), 10)
		return json.Marshal(map[string]string{"message_id": id})
	case "get_name":
		return json.Marshal(map[string]string{"name": c.botID})
	default:
		return nil, fmt.Errorf("console: unknown operation %q", action)
	}
}

var (
	_ bridge.Conn  = (*Conn)(nil)
	_ bridge.Event = (*InputEvent)(nil)
)
