package config

import (
	"os"
	"time"

	"github.com/spf13/pflag"
)

// Flags binds the configuration flags to a flag set.
type Flags struct {
	fs *pflag.FlagSet

	configFile string
	envFile    string

	listen         string
	logLevel       string
	logFormat      string
	logFile        string
	procRoot       string
	sysRoot        string
	probeTimeout   time.Duration
	sampleInterval time.Duration
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}

	fs.StringVarP(&f.configFile, "config", "c", "", "path to YAML config file")
	fs.StringVar(&f.envFile, "env-file", ".env", "path to dotenv file (ignored if missing)")
	fs.StringVar(&f.listen, "listen", d.Listen, "HTTP listen address")
	fs.StringVar(&f.logLevel, "log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", d.LogFormat, "log format (text or json)")
	fs.StringVar(&f.logFile, "log-file", "", "write logs to this file instead of stderr")
	fs.StringVar(&f.procRoot, "proc-root", d.ProcRoot, "procfs mount point")
	fs.StringVar(&f.sysRoot, "sys-root", d.SysRoot, "sysfs mount point")
	fs.DurationVar(&f.probeTimeout, "probe-timeout", d.ProbeTimeout, "timeout for a single probe")
	fs.DurationVar(&f.sampleInterval, "sample-interval", d.SampleInterval, "background collection period (0 disables)")

	return f
}

// Load builds the configuration from defaults, files, the process
// environment and the parsed flags.
func (f *Flags) Load() (*Config, error) {
	return f.load(os.LookupEnv)
}

func (f *Flags) load(environ LookupFunc) (*Config, error) {
	cfg := Default()

	if f.configFile != "" {
		if err := cfg.LoadFile(f.configFile); err != nil {
			return nil, err
		}
	}

	dotenv, err := readDotenv(f.envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(chain(environ, mapLookup(dotenv))); err != nil {
		return nil, err
	}

	f.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply copies explicitly set flags onto cfg.
func (f *Flags) apply(cfg *Config) {
	set := func(name string, fn func()) {
		if f.fs.Changed(name) {
			fn()
		}
	}
	set("listen", func() { cfg.Listen = f.listen })
	set("log-level", func() { cfg.LogLevel = f.logLevel })
	set("log-format", func() { cfg.LogFormat = f.logFormat })
	set("log-file", func() { cfg.LogFile = f.logFile })
	set("proc-root", func() { cfg.ProcRoot = f.procRoot })
	set("sys-root", func() { cfg.SysRoot = f.sysRoot })
	set("probe-timeout", func() { cfg.ProbeTimeout = f.probeTimeout })
	set("sample-interval", func() { cfg.SampleInterval = f.sampleInterval })
}
