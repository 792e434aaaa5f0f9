// Package config loads the agent configuration.
//
// Values are layered, lowest precedence first:
//   - built-in defaults (Default)
//   - the YAML file named by --config
//   - the dotenv file named by --env-file (a missing file is ignored)
//   - SYSINFOD_* environment variables
//   - command-line flags that were explicitly set
//
// Dotenv values never override variables already present in the process
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable the agent reads.
const EnvPrefix = "SYSINFOD_"

// Config is the agent configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// LogLevel is a logrus level name (debug, info, warn, ...).
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`

	// LogFile, when set, receives log output instead of stderr.
	LogFile string `yaml:"log_file"`

	// ProcRoot and SysRoot point the probes at procfs and sysfs.
	ProcRoot string `yaml:"proc_root"`
	SysRoot  string `yaml:"sys_root"`

	// ProbeTimeout bounds every single probe run.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// CacheTTL is how long sensors and smartctl results are reused. Zero disables caching.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// SampleInterval is the background collection period. Zero disables sampling.
	SampleInterval time.Duration `yaml:"sample_interval"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Chromium  ChromiumConfig  `yaml:"chromium"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Smartctl  ToggleConfig    `yaml:"smartctl"`
	Sensors   ToggleConfig    `yaml:"sensors"`
}

// RateLimitConfig configures the token bucket in front of the API.
type RateLimitConfig struct {
	// RPS is the sustained request rate. Zero disables rate limiting.
	RPS float64 `yaml:"rps"`

	// Burst is the bucket size.
	Burst int `yaml:"burst"`
}

// ChromiumConfig configures the browser preferences probe.
type ChromiumConfig struct {
	Enabled bool `yaml:"enabled"`

	// Preferences lists candidate preference files, first existing wins.
	// Empty selects the distribution defaults.
	Preferences []string `yaml:"preferences"`
}

// ResolverConfig configures the DNS health probe.
type ResolverConfig struct {
	// Name is resolved on every run. Empty disables the probe.
	Name string `yaml:"name"`

	// ResolvConf lists the nameservers to query.
	ResolvConf string `yaml:"resolv_conf"`

	Timeout time.Duration `yaml:"timeout"`
}

// ToggleConfig enables or disables an optional probe.
type ToggleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:         ":1982",
		LogLevel:       "info",
		LogFormat:      "text",
		ProcRoot:       "/proc",
		SysRoot:        "/sys",
		ProbeTimeout:   10 * time.Second,
		CacheTTL:       5 * time.Minute,
		SampleInterval: time.Minute,
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 10,
		},
		Resolver: ResolverConfig{
			ResolvConf: "/etc/resolv.conf",
			Timeout:    3 * time.Second,
		},
		Smartctl: ToggleConfig{Enabled: true},
		Sensors:  ToggleConfig{Enabled: true},
	}
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the
// file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return nil
}

// readDotenv returns the variables defined in the dotenv file at path.
// A missing file yields no variables.
func readDotenv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read env file %s: %w", path, err)
	}
	return vars, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be \"text\" or \"json\", got %q", c.LogFormat)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe_timeout must be positive, got %v", c.ProbeTimeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative, got %v", c.CacheTTL)
	}
	if c.SampleInterval < 0 {
		return fmt.Errorf("sample_interval must not be negative, got %v", c.SampleInterval)
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must not be negative, got %v", c.RateLimit.RPS)
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1 when rate limiting is enabled, got %d", c.RateLimit.Burst)
	}
	if c.Resolver.Name != "" && c.Resolver.Timeout <= 0 {
		return fmt.Errorf("resolver.timeout must be positive, got %v", c.Resolver.Timeout)
	}
	return nil
}
