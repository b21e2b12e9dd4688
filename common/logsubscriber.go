package common

import (
	"github.com/sirupsen/logrus"

	"github.com/mgwoorl/design-patterns-galiulina/core"
)

// LogSubscriber adapts the four log event kinds of the bus onto the global
// logrus logger. It is registered as an ordinary bus subscriber, so domain
// services log by firing events and stay decoupled from the logger. All
// non-log events are ignored.
type LogSubscriber struct {
	logger *logrus.Logger
}

// NewLogSubscriber builds a subscriber writing to the given logger, or to
// the global Logger when nil.
func NewLogSubscriber(logger *logrus.Logger) *LogSubscriber {
	if logger == nil {
		logger = Logger
	}
	return &LogSubscriber{logger: logger}
}

// Handle implements core.Subscriber. Log handlers must not fail; this one
// never returns an error.
func (s *LogSubscriber) Handle(kind core.EventKind, payload interface{}) error {
	if !kind.IsLogEvent() {
		return nil
	}

	message := ""
	fields := logrus.Fields{}
	switch p := payload.(type) {
	case core.LogPayload:
		message = p.Message
		if p.Service != "" {
			fields["service"] = p.Service
		}
		for key, value := range p.Details {
			fields[key] = value
		}
	case string:
		message = p
	}

	entry := s.logger.WithFields(fields)
	switch kind {
	case core.EventDebug:
		entry.Debug(message)
	case core.EventInfo:
		entry.Info(message)
	case core.EventWarning:
		entry.Warn(message)
	case core.EventError:
		entry.Error(message)
	}
	return nil
}
