package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the configuration of an M/M/1 run.
type Config struct {
	Model            string  `yaml:"model"`
	NumJobs          int     `yaml:"num_jobs"`
	TrafficIntensity float64 `yaml:"traffic_intensity"`
	InterArrivalTime float64 `yaml:"inter_arrival_time"`
	Drain            bool    `yaml:"drain"`
	Seed             int64   `yaml:"seed"`
	AbortOnError     bool    `yaml:"abort_on_error"`

	PrintLevel string `yaml:"print_level"`
	TraceLog   bool   `yaml:"trace_log"`
	TraceCSV   string `yaml:"trace_csv"`
	Record     string `yaml:"record"`

	Monitor     bool `yaml:"monitor"`
	MonitorPort int  `yaml:"monitor_port"`
	Browser     bool `yaml:"browser"`
}

func defaultConfig() Config {
	return Config{
		Model:            "events",
		NumJobs:          1000,
		TrafficIntensity: 0.85,
		InterArrivalTime: 1.0,
		PrintLevel:       "OFF",
	}
}

// setting binds a configuration field to a flag and an environment variable.
type setting struct {
	flag string
	env  string
	set  func(c *Config, v string) error
}

func stringSetting(flag, env string, field func(c *Config) *string) setting {
	return setting{flag, env, func(c *Config, v string) error {
		*field(c) = v
		return nil
	}}
}

func intSetting(flag, env string, field func(c *Config) *int) setting {
	return setting{flag, env, func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}

		*field(c) = n

		return nil
	}}
}

func int64Setting(flag, env string, field func(c *Config) *int64) setting {
	return setting{flag, env, func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}

		*field(c) = n

		return nil
	}}
}

func floatSetting(flag, env string, field func(c *Config) *float64) setting {
	return setting{flag, env, func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}

		*field(c) = f

		return nil
	}}
}

func boolSetting(flag, env string, field func(c *Config) *bool) setting {
	return setting{flag, env, func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}

		*field(c) = b

		return nil
	}}
}

var settings = []setting{
	stringSetting("model", "DESIM_MODEL",
		func(c *Config) *string { return &c.Model }),
	intSetting("jobs", "DESIM_NUM_JOBS",
		func(c *Config) *int { return &c.NumJobs }),
	floatSetting("traffic-intensity", "DESIM_TRAFFIC_INTENSITY",
		func(c *Config) *float64 { return &c.TrafficIntensity }),
	floatSetting("inter-arrival-time", "DESIM_INTER_ARRIVAL_TIME",
		func(c *Config) *float64 { return &c.InterArrivalTime }),
	boolSetting("drain", "DESIM_DRAIN",
		func(c *Config) *bool { return &c.Drain }),
	int64Setting("seed", "DESIM_SEED",
		func(c *Config) *int64 { return &c.Seed }),
	boolSetting("abort-on-error", "DESIM_ABORT_ON_ERROR",
		func(c *Config) *bool { return &c.AbortOnError }),
	stringSetting("print-level", "DESIM_PRINT_LEVEL",
		func(c *Config) *string { return &c.PrintLevel }),
	boolSetting("trace-log", "DESIM_TRACE_LOG",
		func(c *Config) *bool { return &c.TraceLog }),
	stringSetting("trace-csv", "DESIM_TRACE_CSV",
		func(c *Config) *string { return &c.TraceCSV }),
	stringSetting("record", "DESIM_RECORD",
		func(c *Config) *string { return &c.Record }),
	boolSetting("monitor", "DESIM_MONITOR",
		func(c *Config) *bool { return &c.Monitor }),
	intSetting("monitor-port", "DESIM_MONITOR_PORT",
		func(c *Config) *int { return &c.MonitorPort }),
	boolSetting("browser", "DESIM_BROWSER",
		func(c *Config) *bool { return &c.Browser }),
}

// loadConfigFile overrides cfg with the fields set in a YAML file. Unknown
// fields are rejected.
func loadConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err = decoder.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return nil
}

// applyEnv overrides cfg with the DESIM_* variables that lookup finds.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, s := range settings {
		v, ok := lookup(s.env)
		if !ok {
			continue
		}

		if err := s.set(cfg, v); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", s.env, v, err)
		}
	}

	return nil
}

// applyFlags overrides cfg with the flags that are explicitly set.
func applyFlags(cfg *Config, changed func(string) (string, bool)) error {
	for _, s := range settings {
		v, ok := changed(s.flag)
		if !ok {
			continue
		}

		if err := s.set(cfg, v); err != nil {
			return fmt.Errorf("invalid --%s=%q: %w", s.flag, v, err)
		}
	}

	return nil
}

// resolveConfig merges the defaults, the config file, the environment, and
// the flags, in increasing order of precedence.
func resolveConfig(
	configFile string,
	lookupEnv func(string) (string, bool),
	changedFlag func(string) (string, bool),
) (Config, error) {
	cfg := defaultConfig()

	if configFile != "" {
		if err := loadConfigFile(&cfg, configFile); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg, lookupEnv); err != nil {
		return cfg, err
	}

	if err := applyFlags(&cfg, changedFlag); err != nil {
		return cfg, err
	}

	return cfg, nil
}
