package sysinfo

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/conqp/digsigctl/pkg/probe"
	"github.com/conqp/digsigctl/pkg/result"
)

// Firmware boot modes.
const (
	ModeUEFI = "uefi"
	ModeBIOS = "bios"
)

// EFI describes how the machine was booted.
type EFI struct {
	Mode string `json:"mode"`

	// PlatformSize is the firmware word size (32 or 64) on UEFI systems.
	PlatformSize *int `json:"platform_size,omitempty"`
}

// EFIProbe inspects /sys/firmware/efi. Its absence means legacy BIOS boot.
func (h Host) EFIProbe() *probe.Func[EFI] {
	return probe.New("efi", func(context.Context) (EFI, error) {
		fi, err := os.Stat(h.sys("firmware/efi"))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return EFI{Mode: ModeBIOS}, nil
		case err != nil:
			return EFI{}, result.IO("efi", err)
		case !fi.IsDir():
			return EFI{}, malformed("efi", "%s is not a directory", h.sys("firmware/efi"))
		}

		info := EFI{Mode: ModeUEFI}
		if v := readSysfsString(h.sys("firmware/efi/fw_platform_size")); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				info.PlatformSize = &n
			}
		}
		return info, nil
	})
}
