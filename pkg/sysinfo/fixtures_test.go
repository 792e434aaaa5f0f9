package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conqp/digsigctl/pkg/result"
)

const testCPUInfo = `processor	: 0
vendor_id	: GenuineIntel
cpu family	: 6
model		: 55
model name	: Intel(R) Celeron(R) CPU  J1900  @ 1.99GHz
stepping	: 8
cpu cores	: 4
flags		: fpu vme de pse

processor	: 1
vendor_id	: GenuineIntel
cpu family	: 6
model		: 55
model name	: Intel(R) Celeron(R) CPU  J1900  @ 1.99GHz
cpu cores	: 4
`

const testMeminfo = `MemTotal:        3938148 kB
MemFree:          210512 kB
MemAvailable:    2201420 kB
HugePages_Total:       0
Hugepagesize:       2048 kB
`

const testMounts = `sysfs /sys sysfs rw,nosuid,nodev,noexec,relatime 0 0
proc /proc proc rw,nosuid,nodev,noexec,relatime 0 0
/dev/sda2 / ext4 rw,relatime 0 0
/dev/sda1 /boot vfat rw,relatime,fmask=0022 0 0
tmpfs /tmp tmpfs rw,nosuid,nodev 0 0
/dev/sda2 / ext4 ro,relatime 0 0
/dev/sdb1 /media/usb\040stick vfat rw 0 0
`

// writeTree creates files under root. Keys are slash-separated relative paths.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// newTestHost returns a Host backed by empty proc and sys trees and the given runner.
func newTestHost(t *testing.T, runner Runner) Host {
	t.Helper()
	root := t.TempDir()
	h := Host{
		ProcRoot: filepath.Join(root, "proc"),
		SysRoot:  filepath.Join(root, "sys"),
		Runner:   runner,
	}
	for _, dir := range []string{h.ProcRoot, h.SysRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return h
}

// fullTestHost returns a Host whose trees contain every file the probes read.
func fullTestHost(t *testing.T, runner Runner) Host {
	t.Helper()
	h := newTestHost(t, runner)
	writeTree(t, h.ProcRoot, map[string]string{
		"cpuinfo": testCPUInfo,
		"meminfo": testMeminfo,
		"mounts":  testMounts,
		"cmdline": "BOOT_IMAGE=/vmlinuz root=/dev/sda2 ro quiet\n",
		"uptime":  "350735.47 234388.90\n",
	})
	writeTree(t, h.SysRoot, map[string]string{
		"firmware/efi/fw_platform_size": "64\n",
	})
	return h
}

// stubRunner maps "name arg1 arg2" command lines to canned output.
type stubRunner map[string]stubOutput

type stubOutput struct {
	out string
	err error
}

func (s stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	o, ok := s[line]
	if !ok {
		return nil, fmt.Errorf("running %s: %w", name, errNotInstalled)
	}
	return []byte(o.out), o.err
}

var errNotInstalled = fmt.Errorf("stub: %w", os.ErrNotExist)

func healthyRunner() stubRunner {
	return stubRunner{
		"sensors -j":              {out: `{"coretemp-isa-0000":{"Adapter":"ISA adapter","Core 0":{"temp2_input":41.0}}}`},
		"smartctl --scan -j":      {out: `{"devices":[{"name":"/dev/sda","type":"sat"},{"name":"/dev/sdb","type":"sat"}]}`},
		"smartctl -H -j /dev/sda": {out: `{"smart_status":{"passed":true}}`},
		"smartctl -H -j /dev/sdb": {out: `{"smart_status":{"passed":false}}`, err: &ExitError{Command: "smartctl", Code: 8}},
	}
}

func staticStatfs(path string) (DiskUsage, error) {
	switch path {
	case "/":
		return DiskUsage{Size: 100 << 30, Available: 60 << 30}, nil
	case "/boot":
		return DiskUsage{Size: 512 << 20, Available: 400 << 20}, nil
	default:
		return DiskUsage{}, fmt.Errorf("statfs %s: no such device", path)
	}
}

func errorKind(t *testing.T, err error) result.Kind {
	t.Helper()
	var re *result.Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *result.Error, got %T (%v)", err, err)
	}
	return re.Kind
}
