package bridge

import (
	"errors"
	"fmt"
)

// Sentinel errors for the dispatch failure taxonomy. Callers match them with
// errors.Is; the typed structs below carry the detail and satisfy Is against
// their sentinel.
var (
	// ErrPlatformNotSupported means no builder, extractor or entity target
	// is registered for the requested key. Raised at resolution time, before
	// any network call.
	ErrPlatformNotSupported = errors.New("platform not supported")

	// ErrEventNotSupported means the ancestor walk found no resolver for
	// the event's type chain.
	ErrEventNotSupported = errors.New("event not supported")

	// ErrCapabilityUnimplemented means the resolved adapter exists but does
	// not support the requested operation. Distinct from
	// ErrPlatformNotSupported so callers can tell "platform unknown" from
	// "platform known but this operation is impossible there".
	ErrCapabilityUnimplemented = errors.New("capability unimplemented")
)

// NotSupportedError reports a miss in one of the exact registries.
type NotSupportedError struct {
	// Registry is the table that missed: "builder", "extractor" or "target".
	Registry string
	// Key is the platform name or entity kind that was requested.
	Key string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("no %s registered for %q", e.Registry, e.Key)
}

func (e *NotSupportedError) Is(target error) bool {
	return target == ErrPlatformNotSupported
}

// EventNotSupportedError reports a miss in the resolver hierarchy registry.
type EventNotSupportedError struct {
	// EventType is the most-derived dispatch key of the unresolvable event.
	EventType string
}

func (e *EventNotSupportedError) Error() string {
	return fmt.Sprintf("no resolver registered for event type %q", e.EventType)
}

func (e *EventNotSupportedError) Is(target error) bool {
	return target == ErrEventNotSupported
}

// CapabilityError reports that an adapter was found but the requested
// operation is not available on its platform. Never returned for transient
// failures; a reachable platform that simply has no revoke API returns this
// every time.
type CapabilityError struct {
	// Kind is the entity kind or platform the adapter serves.
	Kind string
	// Operation is the unavailable operation, e.g. "revoke" or "send_file".
	Operation string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s does not implement %s", e.Kind, e.Operation)
}

func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapabilityUnimplemented
}

// InvokeError wraps a failure of the platform connection's remote call. The
// cause is passed through unchanged and reachable via errors.Unwrap.
type InvokeError struct {
	Platform string
	Action   string
	Err      error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("%s: remote operation %s failed: %v", e.Platform, e.Action, e.Err)
}

func (e *InvokeError) Unwrap() error {
	return e.Err
}
