package process

import (
	"fmt"
	"iter"
	"math"

	"github.com/sarchlab/desim/sim/timing"
	"github.com/sirupsen/logrus"
)

// killSignal unwinds the stack of a process that is being terminated.
type killSignal struct{}

// A Process is a routine that can suspend itself in simulated time.
type Process struct {
	id        string
	name      string
	engine    *Engine
	lifecycle Lifecycle
	priority  int
	state     State

	resumeValue any
	pending     *timing.EventHandle
	reclaim     func()
	killed      bool

	yield func(struct{}) bool
	next  func() (struct{}, bool)
	stop  func()
	err   error
}

// ID returns the unique ID of the process.
func (p *Process) ID() string {
	return p.id
}

// Name returns the name of the process.
func (p *Process) Name() string {
	return p.name
}

// State returns the current state of the process.
func (p *Process) State() State {
	return p.state
}

// Priority returns the priority of the resumption events of the process.
func (p *Process) Priority() int {
	return p.priority
}

// SetPriority changes the priority used by future resumption events.
func (p *Process) SetPriority(priority int) {
	p.priority = priority
}

// Now returns the current simulation time.
func (p *Process) Now() timing.VTimeInSec {
	return p.engine.sched.CurrentTime()
}

// Engine returns the engine that runs the process.
func (p *Process) Engine() *Engine {
	return p.engine
}

// WaitFor suspends the process for d seconds of simulated time. It must be
// called by the process itself. A negative or non-finite duration panics with
// an error wrapping timing.ErrCausality, which fails the process.
func (p *Process) WaitFor(d timing.VTimeInSec) {
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		panic(fmt.Errorf("%w: process %s cannot wait for %v",
			timing.ErrCausality, p.name, d))
	}

	p.WaitUntil(p.Now() + d)
}

// WaitUntil suspends the process until the given simulated time.
func (p *Process) WaitUntil(t timing.VTimeInSec) {
	p.mustBeCurrent()

	if err := p.scheduleResume(t, nil); err != nil {
		panic(err)
	}

	p.Suspend()
}

// Suspend parks the process until Wake is called on it, and returns the value
// given to Wake. Suspend must be called by the process itself.
func (p *Process) Suspend() any {
	p.mustBeCurrent()

	if p.killed {
		panic(killSignal{})
	}

	p.state = Waiting

	if !p.yield(struct{}{}) {
		p.killed = true
		panic(killSignal{})
	}

	v := p.resumeValue
	p.resumeValue = nil

	return v
}

// Wake schedules the resumption of a waiting process at the current time. The
// value is returned from the Suspend call that parked the process.
func (p *Process) Wake(value any) error {
	return p.WakeWithReclaim(value, nil)
}

// WakeWithReclaim is like Wake. If the process is killed before it resumes,
// the value never arrives and reclaim is called instead, so that the caller
// can pass the value on.
func (p *Process) WakeWithReclaim(value any, reclaim func()) error {
	if p.state != Waiting || p.pending != nil {
		return fmt.Errorf("%w: process %s cannot be woken in state %s",
			timing.ErrIllegalState, p.name, p.state)
	}

	err := p.scheduleResume(p.Now(), value)
	if err != nil {
		return err
	}

	p.state = Runnable
	p.reclaim = reclaim

	return nil
}

// Kill terminates the process. A pending resumption is withdrawn. If the
// process kills itself, Kill does not return.
func (p *Process) Kill() {
	if p.state == Terminated {
		return
	}

	if p.engine.current == p {
		p.killed = true
		panic(killSignal{})
	}

	var reclaim func()
	if p.pending != nil {
		p.pending.Cancel()
		p.pending = nil
		reclaim = p.reclaim
	}

	p.killed = true
	if p.stop != nil {
		p.stop()
	}

	p.terminate()

	if reclaim != nil {
		reclaim()
	}
}

func (p *Process) mustBeCurrent() {
	if p.engine.current != p {
		panic(fmt.Errorf("%w: process %s can only be suspended by itself",
			timing.ErrIllegalState, p.name))
	}
}

func (p *Process) scheduleResume(t timing.VTimeInSec, value any) error {
	h, err := p.engine.sched.Schedule(timing.EventReq{
		Time:     t,
		Priority: p.priority,
		Kind:     timing.EventKindResume,
		Owner:    p.name,
		Action:   func() { p.resume(value) },
	})
	if err != nil {
		return err
	}

	p.pending = h

	return nil
}

func (p *Process) resume(value any) {
	if p.state == Terminated {
		p.engine.logger.WithFields(logrus.Fields{
			"time":    p.Now(),
			"process": p.name,
		}).Warn("ignoring resumption of terminated process")

		return
	}

	p.pending = nil
	p.reclaim = nil
	p.resumeValue = value

	if p.next == nil {
		p.next, p.stop = iter.Pull(p.body)
	}

	p.state = Running
	prev := p.engine.current
	p.engine.current = p

	_, alive := p.next()

	p.engine.current = prev

	if !alive {
		p.terminate()

		if p.err != nil {
			p.engine.reportFailure(p, p.err)
		}
	}
}

func (p *Process) body(yield func(struct{}) bool) {
	p.yield = yield
	p.err = p.run()
}

func (p *Process) run() (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if _, ok := r.(killSignal); ok {
			err = nil
			return
		}

		err = timing.RecoveredError(r)
	}()

	return p.lifecycle(p)
}

func (p *Process) terminate() {
	p.state = Terminated
	p.resumeValue = nil
	p.reclaim = nil
	delete(p.engine.live, p)

	if p.stop != nil {
		p.stop()
	}
}
