package console

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/keepmind9/chatbridge/internal/bridge"
)

// UserTarget adapts sends to the terminal. Printed lines cannot be taken
// back, so the target is not a Revoker, and a terminal has no avatar.
type UserTarget struct{}

func (UserTarget) Kind() string { return KindUser }

func (UserTarget) SendDescriptor(_ *bridge.Entity) (bridge.SendDescriptor, error) {
	return bridge.SendDescriptor{
		Action:       "send_message",
		MessageParam: "message",
		Params:       map[string]any{},
	}, nil
}

// FetchDisplayName implements bridge.NameFetcher.
func (UserTarget) FetchDisplayName(ctx context.Context, conn bridge.Conn, _ *bridge.Entity) (string, error) {
	data, err := conn.Invoke(ctx, "get_name", nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("console: bad get_name result: %w", err)
	}
	return out.Name, nil
}

// InputResolver resolves console input events. The terminal is a single
// two-party chat, so the event scope and the actor are the same entity.
// It is intentionally not a message resolver: there is nothing to frame or
// look up on a terminal line.
type InputResolver struct{}

func (InputResolver) EventEntity(ev bridge.Event) (*bridge.Entity, error) {
	return consoleEntity(ev)
}

func (InputResolver) ActorEntity(ev bridge.Event) (*bridge.Entity, error) {
	return consoleEntity(ev)
}

func consoleEntity(ev bridge.Event) (*bridge.Entity, error) {
	e, ok := ev.(*InputEvent)
	if !ok {
		return nil, fmt.Errorf("console: unexpected event %T", ev)
	}
	return &bridge.Entity{
		BotID: e.SelfID,
		Kind:  KindUser,
		ID:    "local",
	}, nil
}

// Register wires the console backend into the registrar.
func Register(reg *bridge.Registrar) {
	reg.RegisterBuilder(Platform, Builder{})
	reg.RegisterExtractor(Platform, Extractor{})
	reg.RegisterTarget(KindUser, UserTarget{})
	reg.RegisterResolver("console.input", InputResolver{})
}

var (
	_ bridge.Target      = UserTarget{}
	_ bridge.NameFetcher = UserTarget{}
	_ bridge.Resolver    = InputResolver{}
)
