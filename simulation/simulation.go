// Package simulation connects the simulation kernel with the models. It keeps
// the component tree, runs the model, and collects the results.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sarchlab/desim/datarecording"
	"github.com/sarchlab/desim/monitoring"
	"github.com/sarchlab/desim/sim/process"
	"github.com/sarchlab/desim/sim/randstream"
	"github.com/sarchlab/desim/sim/timing"
	"github.com/sarchlab/desim/tracing"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyRun is returned when a simulation is asked to run a second time.
var ErrAlreadyRun = errors.New("simulation has already run")

type phase int

const (
	phaseBuilt phase = iota
	phaseInit
	phaseRunning
	phaseDone
)

// A Simulation owns the engine and the services shared by all the
// components of a model.
type Simulation struct {
	id     string
	logger logrus.FieldLogger

	engine  *timing.SerialEngine
	procs   *process.Engine
	streams *randstream.Registry
	sink    *tracing.Sink

	monitor      *monitoring.Monitor
	recorder     datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder

	roots  []Component
	byPath map[string]Component
	phase  phase

	traceErr error
}

// ID returns the unique ID of the simulation run.
func (s *Simulation) ID() string {
	return s.id
}

// Engine returns the event engine.
func (s *Simulation) Engine() *timing.SerialEngine {
	return s.engine
}

// Processes returns the process engine.
func (s *Simulation) Processes() *process.Engine {
	return s.procs
}

// Streams returns the random stream registry.
func (s *Simulation) Streams() *randstream.Registry {
	return s.streams
}

// Monitor returns the monitor, or nil if monitoring is disabled.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Recorder returns the data recorder, or nil if recording is disabled.
func (s *Simulation) Recorder() datarecording.DataRecorder {
	return s.recorder
}

// Now returns the current simulation time.
func (s *Simulation) Now() timing.VTimeInSec {
	return s.engine.CurrentTime()
}

// CurrentPriority returns the priority of the event being dispatched.
func (s *Simulation) CurrentPriority() int {
	return s.engine.CurrentPriority()
}

// End stops the run once the current event completes.
func (s *Simulation) End() {
	s.engine.End()
}

// PrintLevel returns the level of the records that reach the listeners.
func (s *Simulation) PrintLevel() tracing.Level {
	return s.sink.Level()
}

// SetPrintLevel changes the level of the records that reach the listeners.
func (s *Simulation) SetPrintLevel(level tracing.Level) {
	s.sink.SetLevel(level)
}

// AddPrintListener adds a listener that receives trace records.
func (s *Simulation) AddPrintListener(l tracing.Listener) {
	s.sink.AddListener(l)
}

// AddComponent adds a root component. If the simulation is already running,
// the component is initialized and started right away.
func (s *Simulation) AddComponent(c Component) {
	cb := c.componentBase()
	if cb.parent != nil || cb.sim != nil {
		panic(fmt.Sprintf("component %s is already part of a model",
			cb.Path()))
	}

	if _, found := s.byPath[c.Name()]; found {
		panic(fmt.Sprintf("component %s already exists", c.Name()))
	}

	cb.self = c
	s.roots = append(s.roots, c)
	s.attach(c)
}

// Components returns the root components in the order they were added.
func (s *Simulation) Components() []Component {
	return s.roots
}

// ComponentByPath returns the component with the given path, or nil if no
// such component exists.
func (s *Simulation) ComponentByPath(path string) Component {
	return s.byPath[path]
}

// attach binds a subtree to the simulation. Components that join a running
// simulation are initialized and started immediately.
func (s *Simulation) attach(c Component) {
	for _, n := range preOrder(c) {
		cb := n.componentBase()
		if cb.self == nil {
			cb.self = n
		}

		cb.sim = s
		s.byPath[cb.Path()] = n

		if s.monitor != nil {
			s.monitor.RegisterComponent(n)
		}
	}

	switch s.phase {
	case phaseInit:
		s.initTree(c)
	case phaseRunning:
		s.initTree(c)
		s.startTree(c)
	}
}

func preOrder(c Component) []Component {
	list := []Component{c}
	for _, child := range c.componentBase().children {
		list = append(list, preOrder(child)...)
	}

	return list
}

func (s *Simulation) initTree(c Component) {
	for _, n := range preOrder(c) {
		cb := n.componentBase()
		if cb.initialized {
			continue
		}

		cb.initialized = true

		if i, ok := n.(Initializer); ok {
			s.initComponent(n, i)
		}
	}
}

func (s *Simulation) initComponent(c Component, i Initializer) {
	defer func() {
		if r := recover(); r != nil {
			s.reportInitError(c, timing.RecoveredError(r))
		}
	}()

	if err := i.Init(); err != nil {
		s.reportInitError(c, err)
	}
}

func (s *Simulation) reportInitError(c Component, err error) {
	s.engine.ReportUserError(&timing.UserCodeError{
		Source: c.Path(),
		Time:   s.Now(),
		Cause:  fmt.Errorf("init: %w", err),
	})
}

func (s *Simulation) startTree(c Component) {
	for _, n := range preOrder(c) {
		cb := n.componentBase()
		if cb.started {
			continue
		}

		cb.started = true

		if l, ok := n.(Lifecycler); ok {
			s.procs.Spawn(cb.Path(), timing.PrioNormal, l.Lifecycle)
		}
	}
}

func (s *Simulation) emit(
	level, limit tracing.Level,
	component, label string,
	values []any,
) {
	if !s.sink.EnabledAt(level, limit) {
		return
	}

	err := s.sink.EmitAt(tracing.Record{
		Time:      s.Now(),
		Level:     level,
		Component: component,
		Label:     label,
		Values:    values,
	}, limit)
	if err == nil {
		return
	}

	if s.traceErr == nil {
		s.traceErr = err
	}

	if s.phase == phaseRunning {
		s.engine.Abort(err)
	}
}

// PerformRun initializes every component, runs the model until it ends or
// runs out of events, and collects the results. The errors raised by the
// model during the run are joined into the returned error. The results are
// collected even if the run fails.
func (s *Simulation) PerformRun() (ResultMap, error) {
	if s.phase != phaseBuilt {
		return nil, ErrAlreadyRun
	}

	if err := s.prepare(); err != nil {
		return nil, err
	}

	s.phase = phaseInit
	for _, c := range s.roots {
		s.initTree(c)
	}

	if s.traceErr != nil {
		s.engine.Abort(s.traceErr)
	}

	s.phase = phaseRunning
	for _, c := range s.roots {
		s.startTree(c)
	}

	runErr := s.engine.Run()
	s.phase = phaseDone

	s.logger.WithFields(logrus.Fields{
		"run":    s.id,
		"time":   s.Now(),
		"events": s.engine.EventCount(),
	}).Info("simulation finished")

	res, resErr := s.CollectResults()

	errs := []error{runErr, resErr}
	if s.traceErr != nil && !errors.Is(runErr, s.traceErr) {
		errs = append(errs, s.traceErr)
	}

	errs = append(errs, s.finishRecording())

	return res, errors.Join(errs...)
}

func (s *Simulation) prepare() error {
	if s.monitor != nil {
		if _, err := s.monitor.StartServer(); err != nil {
			return err
		}
	}

	if s.recorder == nil {
		return nil
	}

	l, err := tracing.RecorderListener(s.recorder)
	if err != nil {
		return fmt.Errorf("preparing trace recording: %w", err)
	}

	s.sink.AddListener(l)

	s.execRecorder, err = datarecording.NewExecRecorder(s.recorder)
	if err != nil {
		return fmt.Errorf("preparing execution recording: %w", err)
	}

	s.execRecorder.Start(
		datarecording.ExecInfo{Property: "Run ID", Value: s.id},
		datarecording.ExecInfo{
			Property: "Seed",
			Value:    strconv.FormatInt(s.streams.Seed(), 10),
		},
	)

	return nil
}

func (s *Simulation) finishRecording() error {
	if s.execRecorder == nil {
		return nil
	}

	if err := s.execRecorder.End(); err != nil {
		return fmt.Errorf("recording execution info: %w", err)
	}

	return nil
}

// CollectResults writes simTime and numEvents, then lets every component
// contribute its results in post-order, so a parent overwrites the keys of
// its children.
func (s *Simulation) CollectResults() (ResultMap, error) {
	res := ResultMap{
		ResultSimTime:   s.Now(),
		ResultNumEvents: s.engine.EventCount(),
	}

	var errs []error
	for _, c := range s.roots {
		errs = append(errs, s.collect(c, res)...)
	}

	return res, errors.Join(errs...)
}

func (s *Simulation) collect(c Component, res ResultMap) []error {
	var errs []error
	for _, child := range c.componentBase().children {
		errs = append(errs, s.collect(child, res)...)
	}

	p, ok := c.(ResultProducer)
	if !ok {
		return errs
	}

	if err := produceResults(p, res); err != nil {
		errs = append(errs, &timing.UserCodeError{
			Source: c.Path(),
			Time:   s.Now(),
			Cause:  fmt.Errorf("producing results: %w", err),
		})
	}

	return errs
}

func produceResults(p ResultProducer, res ResultMap) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = timing.RecoveredError(r)
		}
	}()

	p.ProduceResults(res)

	return nil
}

// Terminate releases the resources held by the simulation.
func (s *Simulation) Terminate() error {
	var errs []error

	if s.monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		errs = append(errs, s.monitor.StopServer(ctx))
	}

	if s.recorder != nil {
		errs = append(errs, s.recorder.Close())
	}

	return errors.Join(errs...)
}
