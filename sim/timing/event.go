package timing

import "github.com/sarchlab/desim/sim/hooking"

// EventKind tags what dispatching an event does.
type EventKind int

// The kinds of events the engine dispatches.
const (
	// EventKindCallback runs a plain function to completion.
	EventKindCallback EventKind = iota

	// EventKindResume hands control back to a suspended process.
	EventKindResume
)

func (k EventKind) String() string {
	switch k {
	case EventKindCallback:
		return "callback"
	case EventKindResume:
		return "resume"
	default:
		return "unknown"
	}
}

// HookPosBeforeEvent is a hook position that triggers before handling an event.
var HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent is a hook position that triggers after handling an event.
var HookPosAfterEvent = &hooking.HookPos{Name: "AfterEvent"}

// EventReq describes an event to be scheduled at an absolute time.
type EventReq struct {
	Time     VTimeInSec
	Priority int
	Kind     EventKind
	Owner    string
	Action   func()
}

// An Event is something going to happen in the future. Events are created by
// the engine and are never modified after being queued.
type Event struct {
	time     VTimeInSec
	priority int
	seq      uint64
	kind     EventKind
	owner    string
	action   func()

	index int
}

// Time returns the time that the event should happen.
func (e *Event) Time() VTimeInSec {
	return e.time
}

// Priority returns the priority of the event.
func (e *Event) Priority() int {
	return e.priority
}

// Seq returns the insertion sequence number of the event.
func (e *Event) Seq() uint64 {
	return e.seq
}

// Kind returns the kind of the event.
func (e *Event) Kind() EventKind {
	return e.kind
}

// Owner returns the name of whoever scheduled the event.
func (e *Event) Owner() string {
	return e.owner
}

// before reports whether e must be dispatched before o.
func (e *Event) before(o *Event) bool {
	if e.time != o.time {
		return e.time < o.time
	}

	if e.priority != o.priority {
		return e.priority < o.priority
	}

	return e.seq < o.seq
}

// An EventHandle refers to a scheduled event and can withdraw it before it is
// dispatched.
type EventHandle struct {
	evt   *Event
	queue EventQueue
}

// Event returns the event the handle refers to.
func (h *EventHandle) Event() *Event {
	return h.evt
}

// Pending returns true if the event is still waiting to be dispatched.
func (h *EventHandle) Pending() bool {
	return h.evt.index >= 0
}

// Cancel withdraws the event. It returns false if the event has already been
// dispatched or canceled.
func (h *EventHandle) Cancel() bool {
	return h.queue.Remove(h.evt)
}
