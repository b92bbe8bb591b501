package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/desim/datarecording"
	"github.com/sarchlab/desim/tracing"
	"github.com/spf13/cobra"
)

type inspectOptions struct {
	component string
	label     string
	limit     int
	offset    int
}

func newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}

	inspectCmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the execution information and the traces of a recording.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}

	inspectCmd.Flags().StringVar(&opts.component, "component", "",
		"Only show the records of this component")
	inspectCmd.Flags().StringVar(&opts.label, "label", "",
		"Only show the records with this label")
	inspectCmd.Flags().IntVar(&opts.limit, "limit", 0,
		"Maximum number of records to show, 0 for all")
	inspectCmd.Flags().IntVar(&opts.offset, "offset", 0,
		"Number of records to skip")

	return inspectCmd
}

func (o *inspectOptions) run(cmd *cobra.Command, file string) error {
	if _, err := os.Stat(file); err != nil {
		return err
	}

	reader, err := datarecording.NewReader(file)
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable(datarecording.ExecInfoTable, datarecording.ExecInfo{})
	reader.MapTable(tracing.TraceTable, tracing.TraceEntry{})

	out := cmd.OutOrStdout()

	if err := printExecInfo(cmd, reader, out); err != nil {
		return err
	}

	return o.printTraces(cmd, reader, out)
}

func printExecInfo(
	cmd *cobra.Command,
	reader datarecording.DataReader,
	out io.Writer,
) error {
	entries, _, err := reader.Query(cmd.Context(),
		datarecording.ExecInfoTable, datarecording.QueryParams{})
	if err != nil {
		return fmt.Errorf("reading execution info: %w", err)
	}

	for _, e := range entries {
		info := e.(*datarecording.ExecInfo)
		fmt.Fprintf(out, "%s: %s\n", info.Property, info.Value)
	}

	return nil
}

func (o *inspectOptions) printTraces(
	cmd *cobra.Command,
	reader datarecording.DataReader,
	out io.Writer,
) error {
	params := datarecording.QueryParams{
		OrderBy: "Time",
		Limit:   o.limit,
		Offset:  o.offset,
	}

	switch {
	case o.component != "" && o.label != "":
		params.Where = "Component = ? AND Label = ?"
		params.Args = []any{o.component, o.label}
	case o.component != "":
		params.Where = "Component = ?"
		params.Args = []any{o.component}
	case o.label != "":
		params.Where = "Label = ?"
		params.Args = []any{o.label}
	}

	entries, total, err := reader.Query(cmd.Context(), tracing.TraceTable,
		params)
	if err != nil {
		return fmt.Errorf("reading traces: %w", err)
	}

	fmt.Fprintf(out, "%d of %d trace records\n", len(entries), total)

	for _, e := range entries {
		t := e.(*tracing.TraceEntry)
		fmt.Fprintf(out, "%.6f\t%s\t%s\t%s\t%s\n",
			t.Time, t.Level, t.Component, t.Label, t.Values)
	}

	return nil
}
