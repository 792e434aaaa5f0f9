package sysinfo

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/conqp/digsigctl/pkg/probe"
)

// CmdlineProbe parses /proc/cmdline. Flags without a value map to nil.
func (h Host) CmdlineProbe() *probe.Func[map[string]*string] {
	return probe.New("cmdline", func(context.Context) (map[string]*string, error) {
		data, err := readFile("cmdline", h.proc("cmdline"))
		if err != nil {
			return nil, err
		}
		return parseCmdline(string(data)), nil
	})
}

func parseCmdline(s string) map[string]*string {
	params := make(map[string]*string)
	for _, field := range strings.Fields(s) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			params[key] = nil
			continue
		}
		params[key] = &value
	}
	return params
}

// MeminfoProbe parses /proc/meminfo into kB values keyed by field name.
// HugePages_* counters carry no unit and are reported as-is.
func (h Host) MeminfoProbe() *probe.Func[map[string]uint64] {
	return probe.New("meminfo", func(context.Context) (map[string]uint64, error) {
		data, err := readFile("meminfo", h.proc("meminfo"))
		if err != nil {
			return nil, err
		}
		return parseMeminfo(data)
	})
}

func parseMeminfo(data []byte) (map[string]uint64, error) {
	info := make(map[string]uint64)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, malformed("meminfo", "line without separator: %q", line)
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, malformed("meminfo", "unexpected value for %s: %q", key, rest)
		}
		if len(fields) == 2 && fields[1] != "kB" {
			return nil, malformed("meminfo", "unexpected unit for %s: %q", key, fields[1])
		}
		v, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, malformed("meminfo", "%s %q is not a number", key, fields[0])
		}
		info[strings.TrimSpace(key)] = v
	}
	if len(info) == 0 {
		return nil, malformed("meminfo", "no entries")
	}
	return info, nil
}

// Uptime is the system uptime and aggregate idle time, in seconds.
type Uptime struct {
	Seconds float64 `json:"seconds"`
	Idle    float64 `json:"idle"`
}

// UptimeProbe parses /proc/uptime.
func (h Host) UptimeProbe() *probe.Func[Uptime] {
	return probe.New("uptime", func(context.Context) (Uptime, error) {
		data, err := readFile("uptime", h.proc("uptime"))
		if err != nil {
			return Uptime{}, err
		}
		return parseUptime(string(data))
	})
}

func parseUptime(s string) (Uptime, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Uptime{}, malformed("uptime", "expected 2 fields, got %d", len(fields))
	}
	up, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Uptime{}, malformed("uptime", "uptime %q is not a number", fields[0])
	}
	idle, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Uptime{}, malformed("uptime", "idle %q is not a number", fields[1])
	}
	return Uptime{Seconds: up, Idle: idle}, nil
}
