// Package sysinfo collects facts about the local signage machine.
//
// Each facet (CPU, memory, mounts, firmware, sensors, ...) is a probe built
// from a Host, which carries the filesystem roots and command runner the
// probes read from. Production code uses /proc, /sys and real commands;
// tests point the roots at synthetic trees and stub the runner.
//
// The Assembler runs all probes concurrently and folds their verdicts into
// a single Report plus one result.Outcome.
package sysinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conqp/digsigctl/pkg/result"
)

// Host describes where probes read the machine's state from.
type Host struct {
	// ProcRoot is the procfs mount point. Defaults to "/proc".
	ProcRoot string

	// SysRoot is the sysfs mount point. Defaults to "/sys".
	SysRoot string

	// Runner executes external commands. Defaults to ExecRunner.
	Runner Runner
}

// LocalHost returns a Host for the running machine.
func LocalHost() Host {
	return Host{ProcRoot: "/proc", SysRoot: "/sys", Runner: ExecRunner{}}
}

func (h Host) proc(name string) string {
	root := h.ProcRoot
	if root == "" {
		root = "/proc"
	}
	return filepath.Join(root, name)
}

func (h Host) sys(name string) string {
	root := h.SysRoot
	if root == "" {
		root = "/sys"
	}
	return filepath.Join(root, name)
}

func (h Host) runner() Runner {
	if h.Runner == nil {
		return ExecRunner{}
	}
	return h.Runner
}

// readFile reads path and attributes any failure to key.
func readFile(key, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, result.Classify(key, err)
	}
	return data, nil
}

// readSysfsString reads a single-line sysfs attribute, returning "" if
// it cannot be read.
func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// malformed returns a KindMalformed error for key with a formatted detail.
func malformed(key, format string, args ...any) *result.Error {
	return result.Malformed(key, fmt.Errorf("%w: "+format, append([]any{result.ErrMalformed}, args...)...))
}
