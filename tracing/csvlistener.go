package tracing

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVListener is a listener that stores the records in a CSV file.
type CSVListener struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewCSVListener creates path.csv and writes the header. A random name is used
// if path is empty. The file is flushed and closed when the program exits
// through atexit, or when Close is called.
func NewCSVListener(path string) (*CSVListener, error) {
	if path == "" {
		path = "desim_trace_" + xid.New().String()
	}

	filename := path + ".csv"
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	l := &CSVListener{
		path:   filename,
		file:   file,
		writer: csv.NewWriter(file),
	}

	err = l.writer.Write(
		[]string{"Time", "Level", "Component", "Label", "Values"})
	if err != nil {
		return nil, err
	}

	atexit.Register(func() { _ = l.Close() })

	return l, nil
}

// Path returns the name of the CSV file.
func (l *CSVListener) Path() string {
	return l.path
}

// Print appends a row.
func (l *CSVListener) Print(r Record) error {
	if l.file == nil {
		return fmt.Errorf("%s is closed", l.path)
	}

	return l.writer.Write([]string{
		strconv.FormatFloat(r.Time, 'f', -1, 64),
		r.Level.String(),
		r.Component,
		r.Label,
		r.ValuesString(),
	})
}

// Close flushes the rows and closes the file.
func (l *CSVListener) Close() error {
	if l.file == nil {
		return nil
	}

	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		return err
	}

	err := l.file.Close()
	l.file = nil

	return err
}
