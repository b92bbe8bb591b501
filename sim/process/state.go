package process

// State is the stage a process is at in its life.
type State int

// The states of a process.
const (
	// Created processes have not been scheduled yet.
	Created State = iota

	// Runnable processes have a resumption event queued and are not waiting
	// for anything else.
	Runnable

	// Running is the state of the process whose code is executing.
	Running

	// Waiting processes are suspended in WaitFor or on a queue.
	Waiting

	// Terminated processes have returned from their lifecycle, failed, or
	// have been stopped by the end of the run.
	Terminated
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Runnable:
		return "Runnable"
	case Running:
		return "Running"
	case Waiting:
		return "Waiting"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}
