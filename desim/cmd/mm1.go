package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/desim/datarecording"
	"github.com/sarchlab/desim/examples/mm1events"
	"github.com/sarchlab/desim/examples/mm1processes"
	"github.com/sarchlab/desim/report"
	"github.com/sarchlab/desim/simulation"
	"github.com/sarchlab/desim/tracing"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newMM1Cmd(root *rootOptions) *cobra.Command {
	defaults := defaultConfig()

	mm1Cmd := &cobra.Command{
		Use:   "mm1",
		Short: "Run the M/M/1 single server queue model.",
		Long: `Run the M/M/1 single server queue model with exponentially ` +
			`distributed inter-arrival and service times. The model can be ` +
			`written with callback events or with processes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(root.configFile, os.LookupEnv,
				changedFlags(cmd))
			if err != nil {
				return err
			}

			return runMM1(cfg, cmd.OutOrStdout())
		},
	}

	f := mm1Cmd.Flags()
	f.String("model", defaults.Model, "Model style (events, processes)")
	f.Int("jobs", defaults.NumJobs, "Number of jobs to create")
	f.Float64("traffic-intensity", defaults.TrafficIntensity,
		"Mean service time divided by mean inter-arrival time")
	f.Float64("inter-arrival-time", defaults.InterArrivalTime,
		"Mean time between two arrivals")
	f.Bool("drain", defaults.Drain,
		"Keep running after the last arrival until all jobs are served")
	f.Int64("seed", defaults.Seed, "Seed of the random streams")
	f.Bool("abort-on-error", defaults.AbortOnError,
		"Stop at the first error raised by the model")
	f.String("print-level", defaults.PrintLevel,
		"Trace level (OFF, ERROR, WARN, INFO, DEBUG, TRACE, ALL)")
	f.Bool("trace-log", defaults.TraceLog, "Send trace records to the log")
	f.String("trace-csv", defaults.TraceCSV,
		"CSV file to write trace records into")
	f.String("record", defaults.Record,
		"Database file, without extension, to record the run into")
	f.Bool("monitor", defaults.Monitor, "Start the monitoring server")
	f.Int("monitor-port", defaults.MonitorPort,
		"Port of the monitoring server, random if 0")
	f.Bool("browser", defaults.Browser,
		"Open the monitoring dashboard in a browser")

	return mm1Cmd
}

func changedFlags(cmd *cobra.Command) func(string) (string, bool) {
	return func(name string) (string, bool) {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			return "", false
		}

		return f.Value.String(), true
	}
}

func buildModel(cfg Config) (simulation.Component, error) {
	switch cfg.Model {
	case "events":
		b := mm1events.MakeBuilder().
			WithNumJobs(cfg.NumJobs).
			WithTrafficIntensity(cfg.TrafficIntensity).
			WithInterArrivalTime(cfg.InterArrivalTime)
		if cfg.Drain {
			b = b.WithDrain()
		}

		return b.Build("mm1"), nil
	case "processes":
		b := mm1processes.MakeBuilder().
			WithNumJobs(cfg.NumJobs).
			WithTrafficIntensity(cfg.TrafficIntensity).
			WithInterArrivalTime(cfg.InterArrivalTime)
		if cfg.Drain {
			b = b.WithDrain()
		}

		return b.Build("mm1"), nil
	default:
		return nil, fmt.Errorf("unknown model %q", cfg.Model)
	}
}

func validate(cfg Config) error {
	if cfg.NumJobs <= 0 {
		return fmt.Errorf("number of jobs must be positive, got %d",
			cfg.NumJobs)
	}

	if cfg.TrafficIntensity <= 0 || cfg.InterArrivalTime <= 0 {
		return fmt.Errorf("traffic intensity and inter-arrival time must " +
			"be positive")
	}

	return nil
}

func runMM1(cfg Config, out io.Writer) error {
	if err := validate(cfg); err != nil {
		return err
	}

	level, err := tracing.ParseLevel(cfg.PrintLevel)
	if err != nil {
		return err
	}

	model, err := buildModel(cfg)
	if err != nil {
		return err
	}

	b := simulation.MakeBuilder().
		WithLogger(logrus.StandardLogger()).
		WithSeed(cfg.Seed).
		WithPrintLevel(level)

	if cfg.AbortOnError {
		b = b.WithAbortOnError()
	}

	if cfg.TraceLog {
		b = b.WithPrintListener(tracing.LogrusListener(logrus.StandardLogger()))
	} else if level != tracing.LevelOff {
		b = b.WithPrintListener(tracing.WriterListener(out))
	}

	var csvListener *tracing.CSVListener
	if cfg.TraceCSV != "" {
		csvListener, err = tracing.NewCSVListener(cfg.TraceCSV)
		if err != nil {
			return err
		}
		defer csvListener.Close()

		b = b.WithPrintListener(csvListener)
	}

	if cfg.Record != "" {
		recorder, err := datarecording.New(cfg.Record)
		if err != nil {
			return err
		}

		b = b.WithRecorder(recorder)
	}

	if cfg.Monitor {
		b = b.WithMonitor().WithMonitorPort(cfg.MonitorPort)
		if cfg.Browser {
			b = b.WithBrowser()
		}
	}

	s := b.Build()
	s.AddComponent(model)

	res, runErr := s.PerformRun()
	if err := s.Terminate(); err != nil {
		logrus.WithError(err).Warn("releasing simulation resources")
	}

	title := fmt.Sprintf("M/M/1 (%s)", cfg.Model)
	if err := report.PrintResults(out, title, res); err != nil {
		return err
	}

	return runErr
}
