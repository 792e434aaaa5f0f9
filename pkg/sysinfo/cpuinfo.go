package sysinfo

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/conqp/digsigctl/pkg/probe"
)

// CPUInfo is the first processor block of /proc/cpuinfo.
type CPUInfo struct {
	Vendor    string `json:"vendor"`
	Family    int    `json:"family"`
	Model     int    `json:"model"`
	ModelName string `json:"model_name"`
	Cores     int    `json:"cores"`
}

// Intel Silvermont "Bay Trail" SoCs report family 6, model 55 (0x37).
const (
	bayTrailFamily = 6
	bayTrailModel  = 55
)

// BayTrail reports whether the CPU is an Intel Bay Trail SoC.
func (c CPUInfo) BayTrail() bool {
	return c.Family == bayTrailFamily && c.Model == bayTrailModel
}

// CPUInfoProbe reads and parses /proc/cpuinfo.
func (h Host) CPUInfoProbe() *probe.Func[CPUInfo] {
	return probe.New("cpuinfo", func(context.Context) (CPUInfo, error) {
		data, err := readFile("cpuinfo", h.proc("cpuinfo"))
		if err != nil {
			return CPUInfo{}, err
		}
		return parseCPUInfo(data)
	})
}

// parseCPUInfo parses the first processor block. Only vendor_id, cpu family
// and model are required; "model name" and "cpu cores" are optional.
func parseCPUInfo(data []byte) (CPUInfo, error) {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(fields) > 0 {
				break
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return CPUInfo{}, malformed("cpuinfo", "line without separator: %q", line)
		}
		key = strings.TrimSpace(key)
		if _, seen := fields[key]; !seen {
			fields[key] = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return CPUInfo{}, malformed("cpuinfo", "%v", err)
	}

	var info CPUInfo
	var ok bool
	if info.Vendor, ok = fields["vendor_id"]; !ok {
		return CPUInfo{}, malformed("cpuinfo", "missing vendor_id")
	}

	var err error
	if info.Family, err = intField(fields, "cpu family"); err != nil {
		return CPUInfo{}, err
	}
	if info.Model, err = intField(fields, "model"); err != nil {
		return CPUInfo{}, err
	}

	info.ModelName = fields["model name"]
	if v, ok := fields["cpu cores"]; ok {
		if info.Cores, err = strconv.Atoi(v); err != nil {
			return CPUInfo{}, malformed("cpuinfo", "cpu cores %q is not an integer", v)
		}
	}
	return info, nil
}

func intField(fields map[string]string, key string) (int, error) {
	v, ok := fields[key]
	if !ok {
		return 0, malformed("cpuinfo", "missing %s", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, malformed("cpuinfo", "%s %q is not an integer", key, v)
	}
	return n, nil
}
