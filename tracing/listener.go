package tracing

import (
	"fmt"
	"io"

	"github.com/sarchlab/desim/datarecording"
	"github.com/sirupsen/logrus"
)

// A Listener receives trace records.
type Listener interface {
	Print(r Record) error
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(r Record) error

// Print calls f(r).
func (f ListenerFunc) Print(r Record) error {
	return f(r)
}

type writerListener struct {
	w io.Writer
}

// WriterListener writes one line per record into w.
func WriterListener(w io.Writer) Listener {
	return writerListener{w: w}
}

func (l writerListener) Print(r Record) error {
	_, err := fmt.Fprintln(l.w, r.String())
	return err
}

type logrusListener struct {
	logger logrus.FieldLogger
}

// LogrusListener forwards the records to a logger. Trace levels map to the
// logrus level of the same name, and the levels above TRACE are logged at
// trace level.
func LogrusListener(logger logrus.FieldLogger) Listener {
	return logrusListener{logger: logger}
}

func (l logrusListener) Print(r Record) error {
	entry := l.logger.WithFields(logrus.Fields{
		"time":      r.Time,
		"component": r.Component,
	})

	msg := r.Label
	if len(r.Values) > 0 {
		msg += " " + r.ValuesString()
	}

	switch r.Level {
	case LevelError:
		entry.Error(msg)
	case LevelWarn:
		entry.Warn(msg)
	case LevelInfo:
		entry.Info(msg)
	case LevelDebug:
		entry.Debug(msg)
	default:
		entry.WithField("level", r.Level.String()).Trace(msg)
	}

	return nil
}

// TraceTable is the table that a RecorderListener writes into.
const TraceTable = "trace"

// TraceEntry is a trace record as stored by a RecorderListener.
type TraceEntry struct {
	Time      float64
	Level     string
	Component string
	Label     string
	Values    string
}

type recorderListener struct {
	recorder datarecording.DataRecorder
}

// RecorderListener stores the records in the trace table of a DataRecorder.
// The table is created when the listener is created.
func RecorderListener(
	recorder datarecording.DataRecorder,
) (Listener, error) {
	if err := recorder.CreateTable(TraceTable, TraceEntry{}); err != nil {
		return nil, err
	}

	return recorderListener{recorder: recorder}, nil
}

func (l recorderListener) Print(r Record) error {
	return l.recorder.InsertData(TraceTable, TraceEntry{
		Time:      r.Time,
		Level:     r.Level.String(),
		Component: r.Component,
		Label:     r.Label,
		Values:    r.ValuesString(),
	})
}
