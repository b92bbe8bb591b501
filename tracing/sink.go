package tracing

import (
	"errors"
	"fmt"
)

// ErrTraceListener is wrapped around the errors returned by listeners.
var ErrTraceListener = errors.New("trace listener failed")

// A Sink filters records by level and hands them to its listeners.
type Sink struct {
	level     Level
	listeners []Listener
}

// NewSink creates a Sink that delivers the records up to level.
func NewSink(level Level) *Sink {
	return &Sink{level: level}
}

// Level returns the most verbose level that is delivered.
func (s *Sink) Level() Level {
	return s.level
}

// SetLevel changes the most verbose level that is delivered.
func (s *Sink) SetLevel(level Level) {
	s.level = level
}

// AddListener registers a listener. Listeners receive records in
// registration order.
func (s *Sink) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

// NumListeners returns the number of registered listeners.
func (s *Sink) NumListeners() int {
	return len(s.listeners)
}

// Enabled returns true if a record of the given level would be delivered.
func (s *Sink) Enabled(level Level) bool {
	return s.EnabledAt(level, s.level)
}

// EnabledAt is like Enabled, but filters against limit instead of the level of
// the sink.
func (s *Sink) EnabledAt(level, limit Level) bool {
	return level != LevelOff && level <= limit && len(s.listeners) > 0
}

// Emit delivers the record to every listener. Delivery stops at the first
// listener that fails, and the error is returned wrapped in
// ErrTraceListener.
func (s *Sink) Emit(r Record) error {
	return s.EmitAt(r, s.level)
}

// EmitAt is like Emit, but filters against limit instead of the level of the
// sink. It serves components that override the level.
func (s *Sink) EmitAt(r Record, limit Level) error {
	if !s.EnabledAt(r.Level, limit) {
		return nil
	}

	for _, l := range s.listeners {
		if err := l.Print(r); err != nil {
			return fmt.Errorf("%w: %w", ErrTraceListener, err)
		}
	}

	return nil
}
