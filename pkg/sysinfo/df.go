package sysinfo

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/conqp/digsigctl/pkg/probe"
)

// DiskUsage is the capacity of one mounted filesystem, in bytes.
type DiskUsage struct {
	Size      uint64
	Available uint64
}

// StatfsFunc returns the usage of the filesystem mounted at path.
type StatfsFunc func(path string) (DiskUsage, error)

// Statfs queries the kernel with statfs(2).
func Statfs(path string) (DiskUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DiskUsage{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	bsize := uint64(st.Bsize)
	return DiskUsage{
		Size:      st.Blocks * bsize,
		Available: st.Bavail * bsize,
	}, nil
}

// DiskEntry is one row of the df report.
type DiskEntry struct {
	Filesystem string `json:"filesystem"`
	Mountpoint string `json:"mountpoint"`
	Type       string `json:"type"`
	Size       uint64 `json:"size"`
	Used       uint64 `json:"used"`
	Available  uint64 `json:"available"`
}

// DfProbe lists the usage of every block-device mount in /proc/mounts.
// Entries that cannot be measured are logged and skipped; only an
// unreadable mount table fails the probe.
func (h Host) DfProbe(logger *logrus.Logger, statfs StatfsFunc) *probe.Func[[]DiskEntry] {
	if statfs == nil {
		statfs = Statfs
	}
	return probe.New("df", func(context.Context) ([]DiskEntry, error) {
		mounts, err := h.readMounts("df")
		if err != nil {
			return nil, err
		}

		entries := make([]DiskEntry, 0, len(mounts))
		for _, m := range mounts {
			if !strings.HasPrefix(m.Device, "/dev/") {
				continue
			}
			entry, err := diskEntry(m, statfs)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"probe":      "df",
					"mountpoint": m.Mountpoint,
				}).Warnf("Invalid entry: %v", err)
				continue
			}
			entries = append(entries, entry)
		}
		return entries, nil
	})
}

func diskEntry(m Mount, statfs StatfsFunc) (DiskEntry, error) {
	usage, err := statfs(m.Mountpoint)
	if err != nil {
		return DiskEntry{}, err
	}
	if usage.Size == 0 {
		return DiskEntry{}, fmt.Errorf("%s reports zero size", m.Mountpoint)
	}
	if usage.Available > usage.Size {
		return DiskEntry{}, fmt.Errorf("%s reports more available (%d) than total (%d)", m.Mountpoint, usage.Available, usage.Size)
	}
	return DiskEntry{
		Filesystem: m.Device,
		Mountpoint: m.Mountpoint,
		Type:       m.Type,
		Size:       usage.Size,
		Used:       usage.Size - usage.Available,
		Available:  usage.Available,
	}, nil
}
