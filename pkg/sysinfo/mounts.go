package sysinfo

import (
	"bufio"
	"bytes"
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/conqp/digsigctl/pkg/probe"
)

// Mount is one line of /proc/mounts.
type Mount struct {
	Device     string
	Mountpoint string
	Type       string
	Options    []string
}

// ReadOnly reports whether the mount carries the "ro" option.
func (m Mount) ReadOnly() bool {
	return slices.Contains(m.Options, "ro")
}

// readMounts reads and parses /proc/mounts, attributing failures to key.
func (h Host) readMounts(key string) ([]Mount, error) {
	data, err := readFile(key, h.proc("mounts"))
	if err != nil {
		return nil, err
	}
	return parseMounts(key, data)
}

func parseMounts(key string, data []byte) ([]Mount, error) {
	var mounts []Mount
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 4 {
			return nil, malformed(key, "mount entry with %d fields", len(fields))
		}
		mounts = append(mounts, Mount{
			Device:     unescapeMount(fields[0]),
			Mountpoint: unescapeMount(fields[1]),
			Type:       fields[2],
			Options:    strings.Split(fields[3], ","),
		})
	}
	return mounts, nil
}

// unescapeMount decodes the octal escapes (\040 for space and friends)
// the kernel uses in /proc/mounts.
func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// RootReadOnlyProbe reports whether / is mounted read-only. When / appears
// several times (overlays, pivoted roots) the last entry wins.
func (h Host) RootReadOnlyProbe() *probe.Func[bool] {
	return probe.New("root_ro", func(context.Context) (bool, error) {
		mounts, err := h.readMounts("root_ro")
		if err != nil {
			return false, err
		}
		for i := len(mounts) - 1; i >= 0; i-- {
			if mounts[i].Mountpoint == "/" {
				return mounts[i].ReadOnly(), nil
			}
		}
		return false, malformed("root_ro", "no entry for /")
	})
}
