package bridge

import (
	"github.com/keepmind9/chatbridge/internal/registry"
)

// Registrar owns the four dispatch registries. The application's composition
// root creates one, lets each platform package register its implementations
// during startup, then seals it before any event dispatch begins. Sealing
// makes every later lookup a lock-free read; registering after Seal panics.
type Registrar struct {
	builders   *registry.Exact[Builder]
	extractors *registry.Exact[Extractor]
	targets    *registry.Exact[Target]
	resolvers  *registry.Hierarchy[Resolver]
}

// NewRegistrar creates an empty, unsealed Registrar.
func NewRegistrar() *Registrar {
	return &Registrar{
		builders:   registry.NewExact[Builder]("builder"),
		extractors: registry.NewExact[Extractor]("extractor"),
		targets:    registry.NewExact[Target]("target"),
		resolvers:  registry.NewHierarchy[Resolver]("resolver"),
	}
}

// RegisterBuilder binds a platform name to its message builder.
func (r *Registrar) RegisterBuilder(platform string, b Builder) {
	r.builders.Register(platform, b)
}

// RegisterExtractor binds a platform name to its message extractor.
func (r *Registrar) RegisterExtractor(platform string, x Extractor) {
	r.extractors.Register(platform, x)
}

// RegisterTarget binds an entity kind to its target adapter.
func (r *Registrar) RegisterTarget(kind string, t Target) {
	r.targets.Register(kind, t)
}

// RegisterResolver binds an exact event type key to a resolver. Resolution
// walks each event's type chain, so a resolver registered here also serves
// every more-derived event type without its own registration.
func (r *Registrar) RegisterResolver(eventType string, res Resolver) {
	r.resolvers.Register(eventType, res)
}

// Seal freezes all four registries. Call exactly once, after startup
// registration and before dispatch.
func (r *Registrar) Seal() {
	r.builders.Seal()
	r.extractors.Seal()
	r.targets.Seal()
	r.resolvers.Seal()
}

// Sealed reports whether Seal has been called.
func (r *Registrar) Sealed() bool {
	return r.builders.Sealed()
}

// Builder resolves the message builder for a platform.
func (r *Registrar) Builder(platform string) (Builder, error) {
	b, ok := r.builders.Resolve(platform)
	if !ok {
		return nil, &NotSupportedError{Registry: "builder", Key: platform}
	}
	return b, nil
}

// Extractor resolves the message extractor for a platform.
func (r *Registrar) Extractor(platform string) (Extractor, error) {
	x, ok := r.extractors.Resolve(platform)
	if !ok {
		return nil, &NotSupportedError{Registry: "extractor", Key: platform}
	}
	return x, nil
}

// Target resolves the target adapter for an entity kind.
func (r *Registrar) Target(kind string) (Target, error) {
	t, ok := r.targets.Resolve(kind)
	if !ok {
		return nil, &NotSupportedError{Registry: "target", Key: kind}
	}
	return t, nil
}

// Resolver resolves the event resolver for ev by walking its type chain
// most-derived-first.
func (r *Registrar) Resolver(ev Event) (Resolver, error) {
	chain := ev.TypeChain()
	res, ok := r.resolvers.Resolve(chain)
	if !ok {
		key := ev.Platform()
		if len(chain) > 0 {
			key = chain[0]
		}
		return nil, &EventNotSupportedError{EventType: key}
	}
	return res, nil
}
