package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSubscriber collects every event it sees and can be told to fail.
type recordingSubscriber struct {
	name   string
	seen   []EventKind
	failOn EventKind
	err    error
	log    *[]string
}

func (s *recordingSubscriber) Handle(kind EventKind, payload interface{}) error {
	s.seen = append(s.seen, kind)
	if s.log != nil {
		*s.log = append(*s.log, s.name)
	}
	if kind == s.failOn && s.err != nil {
		return s.err
	}
	return nil
}

func TestBusSubscribeIsIdempotent(t *testing.T) {
	bus := NewBus()
	sub := &recordingSubscriber{name: "a"}

	bus.Subscribe(sub)
	bus.Subscribe(sub)

	require.NoError(t, bus.Fire(EventInfo, LogPayload{Message: "once"}))
	assert.Len(t, sub.seen, 1)
}

func TestBusDispatchesInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	first := &recordingSubscriber{name: "first", log: &order}
	second := &recordingSubscriber{name: "second", log: &order}
	third := &recordingSubscriber{name: "third", log: &order}

	bus.Subscribe(first)
	bus.Subscribe(second)
	bus.Subscribe(third)

	require.NoError(t, bus.Fire(EventAddReference, nil))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBusFirstErrorAbortsDispatch(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	first := &recordingSubscriber{name: "first"}
	second := &recordingSubscriber{name: "second", failOn: EventCheckDependencies, err: boom}
	third := &recordingSubscriber{name: "third"}

	bus.Subscribe(first)
	bus.Subscribe(second)
	bus.Subscribe(third)

	err := bus.Fire(EventCheckDependencies, nil)
	require.ErrorIs(t, err, boom)
	assert.Len(t, first.seen, 1)
	assert.Len(t, second.seen, 1)
	assert.Empty(t, third.seen, "subscribers after the failing one must not run")
}

func TestBusSwallowsLogHandlerErrors(t *testing.T) {
	bus := NewBus()
	failing := &recordingSubscriber{name: "failing", failOn: EventError, err: errors.New("logger broke")}
	after := &recordingSubscriber{name: "after"}

	bus.Subscribe(failing)
	bus.Subscribe(after)

	require.NoError(t, bus.Fire(EventError, LogPayload{Message: "something failed"}))
	assert.Len(t, after.seen, 1, "log dispatch continues past a failing handler")
}

func TestBusRejectsUnknownKind(t *testing.T) {
	bus := NewBus()
	err := bus.Fire(EventKind("reticulate_splines"), nil)
	require.Error(t, err)
	assert.True(t, IsArgument(err))
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	sub := &recordingSubscriber{name: "a"}
	bus.Subscribe(sub)
	bus.Unsubscribe(sub)

	require.NoError(t, bus.Fire(EventInfo, nil))
	assert.Empty(t, sub.seen)

	// Unsubscribing twice is harmless.
	bus.Unsubscribe(sub)
}

func TestIsLogEvent(t *testing.T) {
	for _, kind := range []EventKind{EventDebug, EventInfo, EventWarning, EventError} {
		assert.True(t, kind.IsLogEvent(), string(kind))
	}
	for _, kind := range []EventKind{EventAddReference, EventChangeBlockPeriod, EventCheckDependencies} {
		assert.False(t, kind.IsLogEvent(), string(kind))
	}
}
