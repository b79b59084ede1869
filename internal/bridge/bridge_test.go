package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/keepmind9/chatbridge/internal/message"
)

// fakeConn records every Invoke and returns canned results.
type fakeConn struct {
	mu         sync.Mutex
	platform   string
	botID      string
	calls      []fakeCall
	result     json.RawMessage
	err        error
	failAction string
}

type fakeCall struct {
	action string
	params map[string]any
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		platform: "fake",
		botID:    "bot-1",
		result:   json.RawMessage(`{"message_id":"m-1"}`),
	}
}

func (c *fakeConn) Platform() string { return c.platform }
func (c *fakeConn) BotID() string    { return c.botID }

func (c *fakeConn) Invoke(_ context.Context, action string, params map[string]any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, fakeCall{action: action, params: params})
	if c.err != nil && (c.failAction == "" || c.failAction == action) {
		return nil, c.err
	}
	return c.result, nil
}

func (c *fakeConn) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *fakeConn) lastCall() fakeCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[len(c.calls)-1]
}

// fakeBuilder renders messages as their plain text, and forwards as a
// joined string, so tests can assert on the native payload easily.
type fakeBuilder struct{}

func (fakeBuilder) Build(msg message.Message) (any, error) {
	return msg.PlainText(), nil
}

func (fakeBuilder) BuildForward(msgs []message.Message) (any, error) {
	var out string
	for _, m := range msgs {
		out += "[" + m.PlainText() + "]"
	}
	return out, nil
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(native any) (message.Message, error) {
	s, ok := native.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected native type %T", native)
	}
	return message.FromText(s), nil
}

// fakeTarget supports send, batch send and revoke.
type fakeTarget struct{ kind string }

func (t fakeTarget) Kind() string { return t.kind }

func (t fakeTarget) SendDescriptor(e *Entity) (SendDescriptor, error) {
	return SendDescriptor{
		Action:       "send_msg",
		MessageParam: "message",
		Params:       map[string]any{"target_id": e.ID},
	}, nil
}

func (t fakeTarget) BatchSendDescriptor(e *Entity) (SendDescriptor, error) {
	return SendDescriptor{
		Action:       "send_forward",
		MessageParam: "messages",
		Params:       map[string]any{"target_id": e.ID},
	}, nil
}

func (t fakeTarget) RevokeDescriptor(handle SentHandle) (RevokeDescriptor, error) {
	var sent struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(handle.Raw, &sent); err != nil {
		return RevokeDescriptor{}, err
	}
	return RevokeDescriptor{
		Action: "delete_msg",
		Params: map[string]any{"message_id": sent.MessageID},
	}, nil
}

// bareTarget supports nothing but plain sends.
type bareTarget struct{ kind string }

func (t bareTarget) Kind() string { return t.kind }

func (t bareTarget) SendDescriptor(e *Entity) (SendDescriptor, error) {
	return SendDescriptor{
		Action:       "send_msg",
		MessageParam: "message",
		Params:       map[string]any{"target_id": e.ID},
	}, nil
}

// fakeEvent implements a three-level chain for ancestor-walk tests.
type fakeEvent struct {
	chain  []string
	chatID string
	userID string
	reply  string
}

func (e *fakeEvent) Platform() string    { return "fake" }
func (e *fakeEvent) BotID() string       { return "bot-1" }
func (e *fakeEvent) TypeChain() []string { return e.chain }

func newFakeMessageEvent() *fakeEvent {
	return &fakeEvent{
		chain:  []string{"fake.message.group", "fake.message", "fake"},
		chatID: "g-9",
		userID: "u-7",
	}
}

// fakeResolver serves fake.message and below.
type fakeResolver struct{}

func (fakeResolver) EventEntity(ev Event) (*Entity, error) {
	fe := ev.(*fakeEvent)
	return &Entity{BotID: ev.BotID(), Kind: "fake-group", ID: fe.chatID}, nil
}

func (fakeResolver) ActorEntity(ev Event) (*Entity, error) {
	fe := ev.(*fakeEvent)
	return &Entity{BotID: ev.BotID(), Kind: "fake-user", ID: fe.userID}, nil
}

func (fakeResolver) FrameAtSender(ev Event, msg message.Message) message.Message {
	fe := ev.(*fakeEvent)
	return msg.Prepend(message.Mention{UserID: fe.userID}, message.Text{Content: " "})
}

func (fakeResolver) FrameReply(ev Event, msg message.Message) message.Message {
	return msg.Prepend(message.Reply{MessageID: "orig-1"})
}

func (fakeResolver) MessageImages(ev Event) []string { return nil }

func (fakeResolver) RepliedImages(_ context.Context, _ Conn, ev Event) ([]string, error) {
	return nil, nil
}

func (fakeResolver) RepliedText(_ context.Context, _ Conn, ev Event) (string, error) {
	fe := ev.(*fakeEvent)
	return fe.reply, nil
}

// baseResolver serves the platform's base event type only.
type baseResolver struct{}

func (baseResolver) EventEntity(ev Event) (*Entity, error) {
	return nil, &CapabilityError{Kind: "fake", Operation: "event_entity"}
}

func (baseResolver) ActorEntity(ev Event) (*Entity, error) {
	return nil, &CapabilityError{Kind: "fake", Operation: "actor_entity"}
}

func newTestRegistrar() *Registrar {
	reg := NewRegistrar()
	reg.RegisterBuilder("fake", fakeBuilder{})
	reg.RegisterExtractor("fake", fakeExtractor{})
	reg.RegisterTarget("fake-group", fakeTarget{kind: "fake-group"})
	reg.RegisterTarget("fake-user", bareTarget{kind: "fake-user"})
	reg.RegisterResolver("fake", baseResolver{})
	reg.RegisterResolver("fake.message", fakeResolver{})
	reg.Seal()
	return reg
}
