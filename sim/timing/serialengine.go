package timing

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/desim/sim/hooking"
	"github.com/sirupsen/logrus"
)

// A SerialEngine is an Engine that always run events one after another.
type SerialEngine struct {
	hooking.HookableBase

	logger logrus.FieldLogger

	timeLock sync.RWMutex
	time     VTimeInSec
	queue    EventQueue
	nextSeq  uint64

	currentPrio int
	dispatching bool
	numEvents   atomic.Uint64

	ended        bool
	finished     bool
	abortOnError bool
	fatalErr     error
	userErrs     []error

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	simulationEndHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{
		logger:      logrus.StandardLogger(),
		queue:       NewEventQueue(),
		currentPrio: PrioNormal,
	}
}

// WithLogger sets the logger that the engine reports anomalies to.
func (e *SerialEngine) WithLogger(logger logrus.FieldLogger) *SerialEngine {
	e.logger = logger
	return e
}

// WithAbortOnError makes the engine stop at the first error raised by model
// code instead of recording it and carrying on.
func (e *SerialEngine) WithAbortOnError() *SerialEngine {
	e.abortOnError = true
	return e
}

// Schedule registers an event to happen in the future.
func (e *SerialEngine) Schedule(req EventReq) (*EventHandle, error) {
	now := e.readNow()
	if !validTime(req.Time) || req.Time < now {
		return nil, fmt.Errorf(
			"%w: cannot schedule %s event of %q at %.10f, now %.10f",
			ErrCausality, req.Kind, req.Owner, req.Time, now,
		)
	}

	if req.Action == nil {
		return nil, fmt.Errorf("%w: event of %q has no action",
			ErrIllegalState, req.Owner)
	}

	e.nextSeq++
	evt := &Event{
		time:     req.Time,
		priority: req.Priority,
		seq:      e.nextSeq,
		kind:     req.Kind,
		owner:    req.Owner,
		action:   req.Action,
		index:    -1,
	}
	e.queue.Push(evt)

	return &EventHandle{evt: evt, queue: e.queue}, nil
}

// ScheduleIn schedules a callback to run delay seconds from now.
func (e *SerialEngine) ScheduleIn(
	delay VTimeInSec,
	priority int,
	owner string,
	action func(),
) (*EventHandle, error) {
	if !validTime(delay) || delay < 0 {
		return nil, fmt.Errorf("%w: negative delay %.10f requested by %q",
			ErrCausality, delay, owner)
	}

	return e.Schedule(EventReq{
		Time:     e.readNow() + delay,
		Priority: priority,
		Kind:     EventKindCallback,
		Owner:    owner,
		Action:   action,
	})
}

// ScheduleAt schedules a callback to run at an absolute time.
func (e *SerialEngine) ScheduleAt(
	t VTimeInSec,
	priority int,
	owner string,
	action func(),
) (*EventHandle, error) {
	return e.Schedule(EventReq{
		Time:     t,
		Priority: priority,
		Kind:     EventKindCallback,
		Owner:    owner,
		Action:   action,
	})
}

func (e *SerialEngine) readNow() VTimeInSec {
	e.timeLock.RLock()
	t := e.time
	e.timeLock.RUnlock()

	return t
}

func (e *SerialEngine) writeNow(t VTimeInSec) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// Run processes all the events scheduled in the SerialEngine. It returns the
// errors raised by model code joined together, or the error that aborted the
// run.
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	if e.finished {
		return fmt.Errorf("%w: the simulation has already finished",
			ErrIllegalState)
	}

	for !e.shouldStop() {
		e.pauseLock.Lock()
		err := e.Step()
		e.pauseLock.Unlock()

		if errors.Is(err, ErrEmptyQueue) {
			break
		}

		if err != nil {
			e.fatalErr = err
			break
		}
	}

	e.finish()

	return e.runError()
}

func (e *SerialEngine) shouldStop() bool {
	if e.ended || e.fatalErr != nil {
		return true
	}

	return e.abortOnError && len(e.userErrs) > 0
}

// Step removes the next event from the queue and dispatches it. It returns
// ErrEmptyQueue if there is nothing to dispatch.
func (e *SerialEngine) Step() error {
	evt := e.queue.Pop()
	if evt == nil {
		return ErrEmptyQueue
	}

	now := e.readNow()
	if evt.time < now {
		return fmt.Errorf(
			"%w: cannot run %s event of %q in the past, evt @ %.10f, now %.10f",
			ErrIllegalState, evt.kind, evt.owner, evt.time, now,
		)
	}

	e.writeNow(evt.time)
	e.dispatch(evt)

	return nil
}

func (e *SerialEngine) dispatch(evt *Event) {
	hookCtx := hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	prevPrio := e.currentPrio
	e.currentPrio = evt.priority
	e.dispatching = true

	e.runAction(evt)

	e.dispatching = false
	e.currentPrio = prevPrio
	e.numEvents.Add(1)

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)
}

func (e *SerialEngine) runAction(evt *Event) {
	defer func() {
		if r := recover(); r != nil {
			e.ReportUserError(&UserCodeError{
				Source: evt.owner,
				Time:   evt.time,
				Cause:  RecoveredError(r),
			})
		}
	}()

	evt.action()
}

// ReportUserError records a failure raised by model code. The run continues
// unless the engine is configured to abort on errors.
func (e *SerialEngine) ReportUserError(err error) {
	if err == nil {
		return
	}

	e.logger.WithField("time", e.readNow()).WithError(err).
		Error("model code failed")

	e.userErrs = append(e.userErrs, err)
}

// Abort stops the run after the current event and makes Run return err.
func (e *SerialEngine) Abort(err error) {
	if e.fatalErr == nil {
		e.fatalErr = err
	}
}

// Errors returns the errors raised by model code so far.
func (e *SerialEngine) Errors() []error {
	return e.userErrs
}

func (e *SerialEngine) runError() error {
	if e.fatalErr == nil {
		return errors.Join(e.userErrs...)
	}

	return errors.Join(append([]error{e.fatalErr}, e.userErrs...)...)
}

// End stops the run once the current event completes. The events that are
// still pending are dropped.
func (e *SerialEngine) End() {
	e.ended = true
}

// Finished returns true once Run has returned and the end handlers have been
// called.
func (e *SerialEngine) Finished() bool {
	return e.finished
}

// Ended returns true if End has been called.
func (e *SerialEngine) Ended() bool {
	return e.ended
}

func (e *SerialEngine) finish() {
	dropped := e.queue.Clear()
	if len(dropped) > 0 {
		e.logger.WithField("time", e.readNow()).
			Debugf("dropping %d pending events", len(dropped))
	}

	e.finished = true

	now := e.readNow()
	for _, h := range e.simulationEndHandlers {
		h.Handle(now)
	}
}

// Pause prevents the SerialEngine to trigger more events.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the SerialEngine to trigger more events.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// CurrentTime returns the current time at which the engine is at.
// Specifically, the run time of the current event.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	return e.readNow()
}

// CurrentPriority returns the priority of the event being dispatched, or
// PrioNormal if no event is being dispatched.
func (e *SerialEngine) CurrentPriority() int {
	return e.currentPrio
}

// Dispatching returns true while an event is being handled.
func (e *SerialEngine) Dispatching() bool {
	return e.dispatching
}

// EventCount returns the number of events dispatched so far.
func (e *SerialEngine) EventCount() uint64 {
	return e.numEvents.Load()
}

// Pending returns the number of events waiting to be dispatched.
func (e *SerialEngine) Pending() int {
	return e.queue.Len()
}

// RegisterSimulationEndHandler registers a handler to be called when the run
// finishes.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}
