package sysinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/conqp/digsigctl/pkg/probe"
	"github.com/conqp/digsigctl/pkg/result"
)

// SMART health verdicts.
const (
	SmartPassed = "PASSED"
	SmartFailed = "FAILED"
)

// runJSON runs a command and decodes its stdout into v. A non-zero exit
// status is tolerated when the command still printed output.
func (h Host) runJSON(ctx context.Context, key string, v any, name string, args ...string) error {
	out, err := h.runner().Run(ctx, name, args...)
	if err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || len(out) == 0 {
			return result.Classify(key, err)
		}
	}
	if err := json.Unmarshal(out, v); err != nil {
		return result.Classify(key, fmt.Errorf("decoding %s output: %w", name, err))
	}
	return nil
}

// SensorsProbe runs "sensors -j" and returns its JSON object as-is.
func (h Host) SensorsProbe() *probe.Func[map[string]any] {
	return probe.New("sensors", func(ctx context.Context) (map[string]any, error) {
		var raw any
		if err := h.runJSON(ctx, "sensors", &raw, "sensors", "-j"); err != nil {
			return nil, err
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, malformed("sensors", "not a JSON object")
		}
		return obj, nil
	})
}

type smartScan struct {
	Devices []struct {
		Name string `json:"name"`
	} `json:"devices"`
}

type smartHealth struct {
	SmartStatus *struct {
		Passed bool `json:"passed"`
	} `json:"smart_status"`
}

// SmartctlProbe scans for SMART-capable devices and reports the overall
// health verdict of each. Devices whose health cannot be read map to nil.
func (h Host) SmartctlProbe() *probe.Func[map[string]*string] {
	return probe.New("smartctl", func(ctx context.Context) (map[string]*string, error) {
		var scan smartScan
		if err := h.runJSON(ctx, "smartctl", &scan, "smartctl", "--scan", "-j"); err != nil {
			return nil, err
		}
		if scan.Devices == nil {
			return nil, malformed("smartctl", "scan output has no device list")
		}

		states := make(map[string]*string, len(scan.Devices))
		for _, dev := range scan.Devices {
			if dev.Name == "" {
				continue
			}
			states[dev.Name] = h.smartHealth(ctx, dev.Name)
		}
		return states, nil
	})
}

func (h Host) smartHealth(ctx context.Context, device string) *string {
	var health smartHealth
	if err := h.runJSON(ctx, "smartctl", &health, "smartctl", "-H", "-j", device); err != nil {
		return nil
	}
	if health.SmartStatus == nil {
		return nil
	}
	verdict := SmartFailed
	if health.SmartStatus.Passed {
		verdict = SmartPassed
	}
	return &verdict
}
