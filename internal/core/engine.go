package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/keepmind9/chatbridge/internal/bridge"
	"github.com/keepmind9/chatbridge/internal/logger"
	"github.com/keepmind9/chatbridge/internal/platforms/console"
	"github.com/keepmind9/chatbridge/internal/platforms/discord"
	"github.com/keepmind9/chatbridge/internal/platforms/onebot"
	"github.com/keepmind9/chatbridge/internal/platforms/qq"
	"github.com/keepmind9/chatbridge/internal/platforms/telegram"
	"github.com/keepmind9/chatbridge/pkg/constants"
)

// Handler processes one inbound event with a ready session.
type Handler func(ctx context.Context, s *bridge.Session, ev bridge.Event)

// Connector is a startable platform connection. Every platform package's
// Conn satisfies it.
type Connector interface {
	bridge.Conn
	Start(handler func(bridge.Event)) error
	Stop() error
}

// Engine owns the registrar, the platform connections and the inbound
// event loop.
type Engine struct {
	config *Config
	reg    *bridge.Registrar
	conns  map[string]Connector

	handler Handler
	events  chan inbound

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type inbound struct {
	conn Connector
	ev   bridge.Event
}

// NewEngine builds an engine from configuration: one connection per
// enabled bot, the matching platform registrations, and a sealed
// registrar. Each platform can carry at most one bot; running several
// bots on one platform takes several engine processes.
func NewEngine(config *Config) (*Engine, error) {
	e := &Engine{
		config: config,
		reg:    bridge.NewRegistrar(),
		conns:  make(map[string]Connector),
		events: make(chan inbound, constants.EventChannelBufferSize),
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	for platform, bot := range config.Bots {
		if !bot.Enabled {
			continue
		}
		conn, register, err := buildPlatform(platform, bot)
		if err != nil {
			return nil, err
		}
		register(e.reg)
		e.conns[platform] = conn
	}
	if len(e.conns) == 0 {
		return nil, fmt.Errorf("no bots enabled")
	}

	e.reg.Seal()
	return e, nil
}

func buildPlatform(platform string, bot BotConfig) (Connector, func(*bridge.Registrar), error) {
	switch platform {
	case "onebot":
		return onebot.NewConn(bot.URL, bot.AccessToken), onebot.Register, nil
	case "telegram":
		return telegram.NewConn(bot.Token), telegram.Register, nil
	case "qq":
		return qq.NewConn(bot.AppID, bot.Secret), qq.Register, nil
	case "discord":
		return discord.NewConn(bot.Token), discord.Register, nil
	case "console":
		return console.NewConn(bot.Name), console.Register, nil
	default:
		return nil, nil, fmt.Errorf("unknown bot platform %q", platform)
	}
}

// Registrar exposes the sealed registrar, for handlers that address
// entities directly.
func (e *Engine) Registrar() *bridge.Registrar { return e.reg }

// Conn returns the connection for a platform, for direct entity sessions.
func (e *Engine) Conn(platform string) (bridge.Conn, error) {
	conn, ok := e.conns[platform]
	if !ok {
		return nil, &bridge.NotSupportedError{Registry: "connection", Key: platform}
	}
	return conn, nil
}

// Start opens every connection and begins dispatching events to the
// handler.
func (e *Engine) Start(handler Handler) error {
	e.handler = handler

	e.wg.Add(1)
	go e.dispatchLoop()

	for platform, conn := range e.conns {
		conn := conn
		if err := conn.Start(func(ev bridge.Event) {
			select {
			case e.events <- inbound{conn: conn, ev: ev}:
			case <-e.ctx.Done():
			}
		}); err != nil {
			e.Stop()
			return fmt.Errorf("failed to start %s connection: %w", platform, err)
		}
		logger.WithFields(logrus.Fields{
			"platform": platform,
			"bot_id":   conn.BotID(),
		}).Info("connection-started")
	}

	return nil
}

// Stop closes the connections and drains the event loop.
func (e *Engine) Stop() {
	e.cancel()
	for platform, conn := range e.conns {
		if err := conn.Stop(); err != nil {
			logger.WithFields(logrus.Fields{
				"platform": platform,
				"error":    err,
			}).Warn("connection-stop-failed")
		}
	}
	e.wg.Wait()
}

func (e *Engine) dispatchLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case in := <-e.events:
			e.dispatch(in)
		}
	}
}

// dispatch builds a session for one event and runs the handler. Events the
// registries cannot resolve are logged and dropped, as are events from
// users outside the whitelist.
func (e *Engine) dispatch(in inbound) {
	ev := in.ev

	// A connection only speaks for its own bot; cross-delivered events
	// are a wiring error upstream.
	if ev.BotID() != "" && in.conn.BotID() != "" && ev.BotID() != in.conn.BotID() {
		logger.WithFields(logrus.Fields{
			"platform":  ev.Platform(),
			"event_bot": ev.BotID(),
			"conn_bot":  in.conn.BotID(),
		}).Debug("dropping-foreign-bot-event")
		return
	}

	session, err := bridge.NewSession(e.reg, in.conn, ev)
	if err != nil {
		var unsupported *bridge.EventNotSupportedError
		if errors.As(err, &unsupported) {
			logger.WithFields(logrus.Fields{
				"platform":   ev.Platform(),
				"event_type": unsupported.EventType,
			}).Debug("event-not-supported")
			return
		}
		logger.WithFields(logrus.Fields{
			"platform": ev.Platform(),
			"error":    err,
		}).Warn("session-construction-failed")
		return
	}

	if !e.authorized(session, ev) {
		return
	}

	if e.handler != nil {
		e.handler(e.ctx, session, ev)
	}
}

func (e *Engine) authorized(session *bridge.Session, ev bridge.Event) bool {
	if !e.config.Security.WhitelistEnabled {
		return true
	}
	actor, err := session.ActorEntity()
	if err != nil {
		logger.WithFields(logrus.Fields{
			"platform": ev.Platform(),
			"error":    err,
		}).Warn("actor-resolution-failed")
		return false
	}
	if !e.config.IsUserAuthorized(ev.Platform(), actor.ID) {
		logger.WithFields(logrus.Fields{
			"platform": ev.Platform(),
			"user_id":  actor.ID,
		}).Info("unauthorized-user-ignored")
		return false
	}
	return true
}
