// Package registry implements the write-once-then-read-many handler tables
// behind platform and event dispatch.
//
// Both registry flavors follow a load-then-freeze lifecycle: all Register
// calls happen during process startup, Seal is called exactly once when
// startup registration is complete, and every later read is a plain map
// lookup with no locking. Registering a duplicate key or registering after
// Seal is a programming error and panics, the same way net/http treats a
// duplicate pattern in its ServeMux.
package registry

import "fmt"

// Exact is a key-to-handler table resolved by exact key match. It backs the
// platform-name and entity-kind registries.
type Exact[V any] struct {
	name    string
	entries map[string]V
	sealed  bool
}

// NewExact creates an empty exact-match registry. The name appears in panic
// messages only.
func NewExact[V any](name string) *Exact[V] {
	return &Exact[V]{
		name:    name,
		entries: make(map[string]V),
	}
}

// Register binds key to handler. It panics if the registry is sealed or the
// key is already bound.
func (r *Exact[V]) Register(key string, handler V) {
	if r.sealed {
		panic(fmt.Sprintf("registry %s: register %q after seal", r.name, key))
	}
	if _, exists := r.entries[key]; exists {
		panic(fmt.Sprintf("registry %s: duplicate registration for %q", r.name, key))
	}
	r.entries[key] = handler
}

// Resolve returns the handler bound to key, or false if the key is unbound.
func (r *Exact[V]) Resolve(key string) (V, bool) {
	v, ok := r.entries[key]
	return v, ok
}

// Seal freezes the registry. Subsequent Register calls panic; Resolve reads
// are lock-free thereafter.
func (r *Exact[V]) Seal() {
	r.sealed = true
}

// Sealed reports whether the registry has been frozen.
func (r *Exact[V]) Sealed() bool {
	return r.sealed
}

// Keys returns the registered keys in unspecified order.
func (r *Exact[V]) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	return keys
}

// Hierarchy is a key-to-handler table resolved by ancestor walk. Callers
// pass the runtime type's dispatch chain ordered most-derived-first; the
// handler bound to the first chain element found in the table wins. A
// handler registered for a more specific type therefore always beats one
// registered for a supertype, regardless of registration order.
type Hierarchy[V any] struct {
	name    string
	entries map[string]V
	sealed  bool
}

// NewHierarchy creates an empty ancestor-walk registry.
func NewHierarchy[V any](name string) *Hierarchy[V] {
	return &Hierarchy[V]{
		name:    name,
		entries: make(map[string]V),
	}
}

// Register binds an exact type key to handler. It panics if the registry is
// sealed or the key is already bound.
func (r *Hierarchy[V]) Register(key string, handler V) {
	if r.sealed {
		panic(fmt.Sprintf("registry %s: register %q after seal", r.name, key))
	}
	if _, exists := r.entries[key]; exists {
		panic(fmt.Sprintf("registry %s: duplicate registration for %q", r.name, key))
	}
	r.entries[key] = handler
}

// Resolve walks chain front to back and returns the handler bound to the
// first element present in the table. The second result is false when no
// element of the chain is registered.
func (r *Hierarchy[V]) Resolve(chain []string) (V, bool) {
	for _, key := range chain {
		if v, ok := r.entries[key]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Seal freezes the registry.
func (r *Hierarchy[V]) Seal() {
	r.sealed = true
}

// Sealed reports whether the registry has been frozen.
func (r *Hierarchy[V]) Sealed() bool {
	return r.sealed
}
