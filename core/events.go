package core

import "time"

// EventKind identifies one of the closed set of events the bus can dispatch.
type EventKind string

const (
	// Reference lifecycle notifications.
	EventAddReference    EventKind = "add_reference"
	EventChangeReference EventKind = "change_reference"
	EventRemoveReference EventKind = "remove_reference"

	// Dependency sweep events fired by the reference service.
	EventUpdateDependencies EventKind = "update_dependencies"
	EventCheckDependencies  EventKind = "check_dependencies"

	// Settings transition.
	EventChangeBlockPeriod EventKind = "change_block_period"

	// Log events. Handler errors for these kinds are swallowed so a broken
	// logger cannot fail a business operation.
	EventDebug   EventKind = "debug"
	EventInfo    EventKind = "info"
	EventWarning EventKind = "warning"
	EventError   EventKind = "error"
)

var knownEvents = map[EventKind]bool{
	EventAddReference:       true,
	EventChangeReference:    true,
	EventRemoveReference:    true,
	EventUpdateDependencies: true,
	EventCheckDependencies:  true,
	EventChangeBlockPeriod:  true,
	EventDebug:              true,
	EventInfo:               true,
	EventWarning:            true,
	EventError:              true,
}

// EventKinds returns the closed set of recognized event kinds.
func EventKinds() []EventKind {
	return []EventKind{
		EventAddReference,
		EventChangeReference,
		EventRemoveReference,
		EventUpdateDependencies,
		EventCheckDependencies,
		EventChangeBlockPeriod,
		EventDebug,
		EventInfo,
		EventWarning,
		EventError,
	}
}

// IsLogEvent reports whether kind is one of the four log levels.
func (k EventKind) IsLogEvent() bool {
	switch k {
	case EventDebug, EventInfo, EventWarning, EventError:
		return true
	}
	return false
}

// LogPayload travels with the four log event kinds.
type LogPayload struct {
	Message string
	Service string
	Details map[string]interface{}
}

// BlockPeriodPayload travels with change_block_period.
type BlockPeriodPayload struct {
	Period time.Time
}

// Subscriber receives every event fired on the bus and decides per kind
// whether to react. Returning an error from a non-log event aborts the
// dispatch.
type Subscriber interface {
	Handle(kind EventKind, payload interface{}) error
}

// Bus is the process-wide subscriber registry. Dispatch is synchronous and
// runs in subscription order; the repository and the bus are serialized
// externally (one request at a time), so the bus itself takes no locks.
type Bus struct {
	subscribers []Subscriber
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a subscriber. Registering the same subscriber twice is
// a no-op.
func (b *Bus) Subscribe(s Subscriber) {
	if s == nil {
		return
	}
	for _, existing := range b.subscribers {
		if existing == s {
			return
		}
	}
	b.subscribers = append(b.subscribers, s)
}

// Unsubscribe removes a subscriber. Unknown subscribers are ignored.
func (b *Bus) Unsubscribe(s Subscriber) {
	for i, existing := range b.subscribers {
		if existing == s {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Fire dispatches an event to every subscriber in subscription order. The
// first error from a non-log event aborts the dispatch and is returned to
// the caller; errors from log events are swallowed. Firing an unknown event
// kind is a programming error.
func (b *Bus) Fire(kind EventKind, payload interface{}) error {
	if !knownEvents[kind] {
		return NewArgumentError("unknown event kind %q", kind)
	}
	swallow := kind.IsLogEvent()
	for _, s := range b.subscribers {
		if err := s.Handle(kind, payload); err != nil {
			if swallow {
				continue
			}
			return err
		}
	}
	return nil
}

// Debug fires a debug log event. Log dispatch never fails.
func (b *Bus) Debug(service, message string, details map[string]interface{}) {
	_ = b.Fire(EventDebug, LogPayload{Message: message, Service: service, Details: details})
}

// Info fires an info log event.
func (b *Bus) Info(service, message string, details map[string]interface{}) {
	_ = b.Fire(EventInfo, LogPayload{Message: message, Service: service, Details: details})
}

// Warning fires a warning log event.
func (b *Bus) Warning(service, message string, details map[string]interface{}) {
	_ = b.Fire(EventWarning, LogPayload{Message: message, Service: service, Details: details})
}

// Error fires an error log event.
func (b *Bus) Error(service, message string, details map[string]interface{}) {
	_ = b.Fire(EventError, LogPayload{Message: message, Service: service, Details: details})
}
