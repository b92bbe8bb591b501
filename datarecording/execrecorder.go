package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecInfoTable is the table that stores how the simulator was invoked.
const ExecInfoTable = "exec_info"

// ExecInfo is a property of a simulator execution.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records when and how the simulator is executed.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates an ExecRecorder that writes into recorder.
func NewExecRecorder(recorder DataRecorder) (*ExecRecorder, error) {
	if err := recorder.CreateTable(ExecInfoTable, ExecInfo{}); err != nil {
		return nil, err
	}

	return &ExecRecorder{recorder: recorder}, nil
}

// Start notes the start time, the command line, and the working directory.
// Extra properties, such as the run ID and the seed, can be given as
// property-value pairs.
func (e *ExecRecorder) Start(props ...ExecInfo) {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", timestamp()},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	if cwd, err := os.Getwd(); err == nil {
		e.entries = append(e.entries, ExecInfo{"Working Directory", cwd})
	}

	e.entries = append(e.entries, props...)
}

// End writes the recorded properties along with the end time.
func (e *ExecRecorder) End() error {
	e.entries = append(e.entries, ExecInfo{"End Time", timestamp()})

	for _, entry := range e.entries {
		if err := e.recorder.InsertData(ExecInfoTable, entry); err != nil {
			return err
		}
	}

	e.entries = nil

	return e.recorder.Flush()
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}
