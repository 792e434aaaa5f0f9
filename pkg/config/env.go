package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// chain returns a LookupFunc that consults each lookup in turn.
func chain(lookups ...LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		for _, l := range lookups {
			if l == nil {
				continue
			}
			if v, ok := l(key); ok {
				return v, true
			}
		}
		return "", false
	}
}

func mapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// ApplyEnv overlays SYSINFOD_* variables found by lookup onto c.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("LISTEN", &c.Listen)
	e.str("LOG_LEVEL", &c.LogLevel)
	e.str("LOG_FORMAT", &c.LogFormat)
	e.str("LOG_FILE", &c.LogFile)
	e.str("PROC_ROOT", &c.ProcRoot)
	e.str("SYS_ROOT", &c.SysRoot)
	e.duration("PROBE_TIMEOUT", &c.ProbeTimeout)
	e.duration("CACHE_TTL", &c.CacheTTL)
	e.duration("SAMPLE_INTERVAL", &c.SampleInterval)
	e.float("RATE_LIMIT_RPS", &c.RateLimit.RPS)
	e.int("RATE_LIMIT_BURST", &c.RateLimit.Burst)
	e.bool("CHROMIUM_ENABLED", &c.Chromium.Enabled)
	e.list("CHROMIUM_PREFERENCES", &c.Chromium.Preferences)
	e.str("RESOLVER_NAME", &c.Resolver.Name)
	e.str("RESOLVER_RESOLV_CONF", &c.Resolver.ResolvConf)
	e.duration("RESOLVER_TIMEOUT", &c.Resolver.Timeout)
	e.bool("SMARTCTL_ENABLED", &c.Smartctl.Enabled)
	e.bool("SENSORS_ENABLED", &c.Sensors.Enabled)

	return e.err
}

// envReader parses variables and remembers the first failure.
type envReader struct {
	lookup LookupFunc
	err    error
}

func (e *envReader) get(name string) (string, bool) {
	if e.err != nil || e.lookup == nil {
		return "", false
	}
	return e.lookup(EnvPrefix + name)
}

func (e *envReader) fail(name, value string, err error) {
	e.err = fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, name, value, err)
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) duration(name string, dst *time.Duration) {
	if v, ok := e.get(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = d
	}
}

func (e *envReader) float(name string, dst *float64) {
	if v, ok := e.get(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) int(name string, dst *int) {
	if v, ok := e.get(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) bool(name string, dst *bool) {
	if v, ok := e.get(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = b
	}
}

// list splits a PATH-style value on the OS list separator.
func (e *envReader) list(name string, dst *[]string) {
	if v, ok := e.get(name); ok {
		var out []string
		for _, p := range filepath.SplitList(v) {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}
