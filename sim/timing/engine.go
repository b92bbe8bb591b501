package timing

import "github.com/sarchlab/desim/sim/hooking"

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	TimeTeller

	// CurrentPriority returns the priority of the event being dispatched.
	CurrentPriority() int

	// Schedule queues an event at an absolute time.
	Schedule(req EventReq) (*EventHandle, error)

	// ReportUserError records a failure raised by model code.
	ReportUserError(err error)
}

// A SimulationEndHandler is a handler that is called after the simulation ends.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run will process all the events until the simulation finishes.
	Run() error

	// Step dispatches exactly one event.
	Step() error

	// End stops the run after the current event. Pending events are dropped.
	End()

	// Pause will pause the simulation until continue is called.
	Pause()

	// Continue will continue the paused simulation.
	Continue()

	// RegisterSimulationEndHandler registers a handler that perform some
	// actions after the simulation is finished.
	RegisterSimulationEndHandler(handler SimulationEndHandler)
}
