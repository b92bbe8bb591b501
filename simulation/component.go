package simulation

import (
	"fmt"

	"github.com/sarchlab/desim/sim/naming"
	"github.com/sarchlab/desim/sim/process"
	"github.com/sarchlab/desim/sim/randstream"
	"github.com/sarchlab/desim/sim/timing"
	"github.com/sarchlab/desim/tracing"
)

// A Component is a node of the simulation model. Components are built by
// embedding a *ComponentBase.
type Component interface {
	naming.Named

	// Path returns the dot separated names from the root to the component.
	Path() string

	componentBase() *ComponentBase
}

// Initializer is a component that prepares its state before the run.
type Initializer interface {
	Init() error
}

// Lifecycler is a component that runs as a process.
type Lifecycler interface {
	Lifecycle(p *process.Process) error
}

// ResultProducer is a component that contributes results after the run.
type ResultProducer interface {
	ProduceResults(res ResultMap)
}

// ComponentBase provides the services that a component needs. It must be
// embedded as a pointer.
type ComponentBase struct {
	naming.NamedBase

	self     Component
	parent   *ComponentBase
	children []Component
	sim      *Simulation

	initialized bool
	started     bool

	traceLevel    tracing.Level
	hasTraceLevel bool
}

// NewComponentBase creates a ComponentBase. It panics if the name is not
// valid.
func NewComponentBase(name string) *ComponentBase {
	return &ComponentBase{NamedBase: naming.MakeNamedBase(name)}
}

func (b *ComponentBase) componentBase() *ComponentBase {
	return b
}

// Path returns the dot separated names from the root to the component.
func (b *ComponentBase) Path() string {
	if b.parent == nil {
		return b.Name()
	}

	return naming.BuildName(b.parent.Path(), b.Name())
}

// Sim returns the simulation that the component belongs to, or nil if the
// component is not part of a simulation yet.
func (b *ComponentBase) Sim() *Simulation {
	return b.sim
}

// Parent returns the parent component, or nil for a root.
func (b *ComponentBase) Parent() Component {
	if b.parent == nil {
		return nil
	}

	return b.parent.self
}

// Children returns the sub-components in the order they were added.
func (b *ComponentBase) Children() []Component {
	return b.children
}

// AddComponent adds a sub-component. If the simulation is already running,
// the sub-component is initialized and started right away. It panics if the
// child already has a parent or if a sibling has the same name.
func (b *ComponentBase) AddComponent(child Component) {
	cb := child.componentBase()
	if cb.parent != nil || cb.sim != nil {
		panic(fmt.Sprintf("component %s is already part of a model",
			cb.Path()))
	}

	for _, c := range b.children {
		if c.Name() == child.Name() {
			panic(fmt.Sprintf("component %s already has a child named %s",
				b.Path(), child.Name()))
		}
	}

	cb.self = child
	cb.parent = b
	b.children = append(b.children, child)

	if b.sim != nil {
		b.sim.attach(child)
	}
}

func (b *ComponentBase) mustSim() *Simulation {
	if b.sim == nil {
		panic(fmt.Sprintf("component %s is not part of a simulation",
			b.Path()))
	}

	return b.sim
}

// Now returns the current simulation time.
func (b *ComponentBase) Now() timing.VTimeInSec {
	return b.mustSim().Now()
}

// CurrentPriority returns the priority of the event being dispatched.
func (b *ComponentBase) CurrentPriority() int {
	return b.mustSim().CurrentPriority()
}

// ScheduleIn runs action delay seconds from now.
func (b *ComponentBase) ScheduleIn(
	delay timing.VTimeInSec,
	priority int,
	action func(),
) (*timing.EventHandle, error) {
	return b.mustSim().engine.ScheduleIn(delay, priority, b.Path(), action)
}

// ScheduleAt runs action at time t.
func (b *ComponentBase) ScheduleAt(
	t timing.VTimeInSec,
	priority int,
	action func(),
) (*timing.EventHandle, error) {
	return b.mustSim().engine.ScheduleAt(t, priority, b.Path(), action)
}

// Spawn starts a process that belongs to the component. The process name is
// scoped by the component path.
func (b *ComponentBase) Spawn(
	name string,
	lifecycle process.Lifecycle,
) *process.Process {
	return b.mustSim().procs.Spawn(
		naming.BuildName(b.Path(), name), timing.PrioNormal, lifecycle)
}

// SetTraceLevel overrides the print level of the simulation for this
// component and its descendants that have no override of their own.
func (b *ComponentBase) SetTraceLevel(level tracing.Level) {
	b.traceLevel = level
	b.hasTraceLevel = true
}

// ClearTraceLevel removes the override set by SetTraceLevel.
func (b *ComponentBase) ClearTraceLevel() {
	b.hasTraceLevel = false
}

// TraceLevel returns the most verbose level that this component emits.
func (b *ComponentBase) TraceLevel() tracing.Level {
	for c := b; c != nil; c = c.parent {
		if c.hasTraceLevel {
			return c.traceLevel
		}
	}

	return b.mustSim().PrintLevel()
}

// Trace emits a record at trace level.
func (b *ComponentBase) Trace(label string, values ...any) {
	b.Print(tracing.LevelTrace, label, values...)
}

// Print emits a record at the given level.
func (b *ComponentBase) Print(
	level tracing.Level,
	label string,
	values ...any,
) {
	b.mustSim().emit(level, b.TraceLevel(), b.Path(), label, values)
}

// InitRndGen binds a distribution to the random stream named after the
// component path and name.
func (b *ComponentBase) InitRndGen(
	dist randstream.Distribution,
	name string,
) randstream.DblSequence {
	return b.mustSim().streams.Stream(dist, naming.BuildName(b.Path(), name))
}

// End stops the simulation once the current event completes.
func (b *ComponentBase) End() {
	b.mustSim().End()
}
