package simulation

import (
	"github.com/rs/xid"
	"github.com/sarchlab/desim/datarecording"
	"github.com/sarchlab/desim/monitoring"
	"github.com/sarchlab/desim/sim/process"
	"github.com/sarchlab/desim/sim/randstream"
	"github.com/sarchlab/desim/sim/timing"
	"github.com/sarchlab/desim/tracing"
	"github.com/sirupsen/logrus"
)

// DefaultSeed is the seed of the random streams if no seed is given.
const DefaultSeed int64 = 0

// Builder can be used to build a simulation.
type Builder struct {
	seed         int64
	printLevel   tracing.Level
	listeners    []tracing.Listener
	abortOnError bool
	logger       logrus.FieldLogger
	eventLogging bool

	monitorOn   bool
	monitorPort int
	browser     bool

	recorder datarecording.DataRecorder
}

// MakeBuilder creates a new builder. By default, nothing is printed,
// monitoring is off, and nothing is recorded.
func MakeBuilder() Builder {
	return Builder{
		seed:       DefaultSeed,
		printLevel: tracing.LevelOff,
		logger:     logrus.StandardLogger(),
	}
}

// WithSeed sets the global seed that all random streams derive from.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithPrintLevel sets the level of the records that reach the listeners.
func (b Builder) WithPrintLevel(level tracing.Level) Builder {
	b.printLevel = level
	return b
}

// WithPrintListener adds a listener that receives trace records.
func (b Builder) WithPrintListener(l tracing.Listener) Builder {
	b.listeners = append(b.listeners[:len(b.listeners):len(b.listeners)], l)
	return b
}

// WithAbortOnError stops the run at the first error raised by model code.
func (b Builder) WithAbortOnError() Builder {
	b.abortOnError = true
	return b
}

// WithLogger sets the logger of the kernel.
func (b Builder) WithLogger(logger logrus.FieldLogger) Builder {
	b.logger = logger
	return b
}

// WithEventLogging logs every dispatched event at debug level.
func (b Builder) WithEventLogging() Builder {
	b.eventLogging = true
	return b
}

// WithMonitor turns on the monitoring server.
func (b Builder) WithMonitor() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitoring dashboard when the run starts.
func (b Builder) WithBrowser() Builder {
	b.browser = true
	return b
}

// WithRecorder records the trace records and the execution information.
func (b Builder) WithRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && (b.monitorPort != 0 || b.browser) {
		panic("monitor options cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:       xid.New().String(),
		logger:   b.logger,
		streams:  randstream.NewRegistry(b.seed),
		sink:     tracing.NewSink(b.printLevel),
		recorder: b.recorder,
		byPath:   make(map[string]Component),
	}

	s.engine = timing.NewSerialEngine().WithLogger(b.logger)
	if b.abortOnError {
		s.engine.WithAbortOnError()
	}

	if b.eventLogging {
		s.engine.AcceptHook(timing.NewEventLogger(b.logger))
	}

	s.procs = process.NewEngine(s.engine).WithLogger(b.logger)
	s.engine.RegisterSimulationEndHandler(s.procs)

	for _, l := range b.listeners {
		s.sink.AddListener(l)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().WithLogger(b.logger)
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}

		if b.browser {
			s.monitor.WithBrowser()
		}

		s.monitor.RegisterEngine(s.engine)
	}

	return s
}
