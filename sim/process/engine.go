// Package process runs simulation processes: routines that can suspend in
// simulated time and resume later with their local state intact.
//
// A process is a coroutine multiplexed onto the event queue of a
// timing.EventScheduler. Only one process or callback executes at a time.
// The engine that dispatches a resumption event blocks until the resumed
// process suspends again or returns, so ordering is exactly that of the
// event queue.
package process

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/sarchlab/desim/sim/id"
	"github.com/sarchlab/desim/sim/timing"
	"github.com/sirupsen/logrus"
)

// Lifecycle is the body of a process. Returning ends the process. A returned
// error is reported to the simulation as a timing.UserCodeError.
type Lifecycle func(p *Process) error

// Engine creates processes and keeps track of the ones still alive.
type Engine struct {
	sched  timing.EventScheduler
	logger logrus.FieldLogger
	ids    id.Generator

	live    map[*Process]struct{}
	current *Process
}

// NewEngine creates a process engine that schedules resumptions through
// sched. The engine should be registered as a simulation end handler so that
// suspended processes are released when the run ends.
func NewEngine(sched timing.EventScheduler) *Engine {
	return &Engine{
		sched:  sched,
		logger: logrus.StandardLogger(),
		ids:    id.NewSequentialGenerator(),
		live:   make(map[*Process]struct{}),
	}
}

// WithLogger sets the logger that the engine reports anomalies to.
func (e *Engine) WithLogger(logger logrus.FieldLogger) *Engine {
	e.logger = logger
	return e
}

// Spawn creates a process and schedules its start at the current time. The
// process uses priority for all of its resumption events. Spawn panics if
// lifecycle is nil.
func (e *Engine) Spawn(
	name string,
	priority int,
	lifecycle Lifecycle,
) *Process {
	if lifecycle == nil {
		panic(fmt.Sprintf("process %q has no lifecycle", name))
	}

	p := &Process{
		id:        e.ids.Generate(),
		name:      name,
		engine:    e,
		lifecycle: lifecycle,
		priority:  priority,
		state:     Created,
	}

	if err := p.scheduleResume(e.sched.CurrentTime(), nil); err != nil {
		panic(err)
	}

	p.state = Runnable
	e.live[p] = struct{}{}

	return p
}

// Current returns the process that is executing, or nil if the running code
// is not a process.
func (e *Engine) Current() *Process {
	return e.current
}

// NumLive returns the number of processes that have not terminated.
func (e *Engine) NumLive() int {
	return len(e.live)
}

// Handle terminates every process that is still alive. It is called when the
// simulation ends.
func (e *Engine) Handle(now timing.VTimeInSec) {
	procs := make([]*Process, 0, len(e.live))
	for p := range e.live {
		procs = append(procs, p)
	}

	sort.Slice(procs, func(i, j int) bool {
		a, _ := strconv.ParseUint(procs[i].id, 10, 64)
		b, _ := strconv.ParseUint(procs[j].id, 10, 64)

		return a < b
	})

	for _, p := range procs {
		e.logger.WithFields(logrus.Fields{
			"time":    now,
			"process": p.name,
			"state":   p.state.String(),
		}).Debug("terminating process at simulation end")

		p.Kill()
	}
}

func (e *Engine) reportFailure(p *Process, err error) {
	e.sched.ReportUserError(&timing.UserCodeError{
		Source: p.name,
		Time:   e.sched.CurrentTime(),
		Cause:  err,
	})
}
