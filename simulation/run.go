package simulation

import "github.com/sarchlab/desim/tracing"

// An Option configures the simulation that PerformRun builds.
type Option func(b Builder) Builder

// Seed sets the global seed.
func Seed(seed int64) Option {
	return func(b Builder) Builder { return b.WithSeed(seed) }
}

// PrintLevel sets the trace level.
func PrintLevel(level tracing.Level) Option {
	return func(b Builder) Builder { return b.WithPrintLevel(level) }
}

// PrintListener adds a trace listener.
func PrintListener(l tracing.Listener) Option {
	return func(b Builder) Builder { return b.WithPrintListener(l) }
}

// AbortOnError stops the run at the first error raised by model code.
func AbortOnError() Option {
	return func(b Builder) Builder { return b.WithAbortOnError() }
}

// PerformRun builds a simulation around root, runs it, and returns the
// results.
func PerformRun(root Component, opts ...Option) (ResultMap, error) {
	b := MakeBuilder()
	for _, opt := range opts {
		b = opt(b)
	}

	s := b.Build()
	s.AddComponent(root)

	res, err := s.PerformRun()
	if tErr := s.Terminate(); tErr != nil && err == nil {
		err = tErr
	}

	return res, err
}
