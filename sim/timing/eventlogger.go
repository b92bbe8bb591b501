package timing

import (
	"github.com/sarchlab/desim/sim/hooking"
	"github.com/sirupsen/logrus"
)

// EventLogger is an hook that prints the event information.
type EventLogger struct {
	logger logrus.FieldLogger
}

// NewEventLogger returns a new EventLogger which will write into the logger.
func NewEventLogger(logger logrus.FieldLogger) *EventLogger {
	h := new(EventLogger)
	h.logger = logger

	return h
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(*Event)
	if !ok {
		return
	}

	h.logger.WithFields(logrus.Fields{
		"time":     evt.Time(),
		"priority": evt.Priority(),
		"seq":      evt.Seq(),
	}).Debugf("%s -> %s", evt.Kind(), evt.Owner())
}
