// Package report prints the results of a simulation run.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// PrintResults writes the results as a table sorted by name. Floating point
// values are printed with four decimals.
func PrintResults(w io.Writer, title string, res map[string]any) error {
	if title == "" {
		title = "Results"
	}

	keys := make([]string, 0, len(res))
	for k := range res {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	if _, err := fmt.Fprintf(w, "%s\n%s\n", title,
		strings.Repeat("=", len(title))); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Name\tValue")
	fmt.Fprintln(tw, "----\t-----")

	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", k, formatValue(res[k]))
	}

	return tw.Flush()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case float64:
		return fmt.Sprintf("%.4f", v)
	case float32:
		return fmt.Sprintf("%.4f", v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
