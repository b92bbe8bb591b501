// Package cmd provides the command-line interface of desim.
package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

type rootOptions struct {
	logLevel   string
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "desim",
		Short: "desim runs discrete event simulation models.",
		Long: `desim runs discrete event simulation models. Models can be ` +
			`configured with a YAML file, DESIM_* environment variables, ` +
			`and flags, in increasing order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn",
		"Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "",
		"YAML file that holds the model configuration")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env",
		"File that holds DESIM_* environment variables")

	rootCmd.AddCommand(newMM1Cmd(opts))
	rootCmd.AddCommand(newInspectCmd())

	return rootCmd
}

func (o *rootOptions) setup() error {
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}

	logrus.SetLevel(level)

	err = godotenv.Load(o.envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
