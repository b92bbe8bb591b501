package tracing

import (
	"fmt"
	"strings"
)

// A Record is a message emitted by a component.
type Record struct {
	Time      float64
	Level     Level
	Component string
	Label     string
	Values    []any
}

// ValuesString joins the values with spaces.
func (r Record) ValuesString() string {
	parts := make([]string, len(r.Values))
	for i, v := range r.Values {
		parts[i] = fmt.Sprint(v)
	}

	return strings.Join(parts, " ")
}

// String formats the record in one line.
func (r Record) String() string {
	s := fmt.Sprintf("%.6f\t%s\t%s\t%s", r.Time, r.Level, r.Component, r.Label)
	if len(r.Values) > 0 {
		s += "\t" + r.ValuesString()
	}

	return s
}
