package sysinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/conqp/digsigctl/pkg/probe"
	"github.com/conqp/digsigctl/pkg/result"
)

// DefaultChromiumPreferences are the locations searched for the browser's
// default (initial) preferences, in order.
var DefaultChromiumPreferences = []string{
	"/etc/chromium/master_preferences",
	"/etc/chromium/initial_preferences",
	"/usr/lib/chromium/initial_preferences",
	"/usr/lib/chromium/master_preferences",
	"/opt/google/chrome/initial_preferences",
	"/opt/google/chrome/master_preferences",
}

// ErrChromiumPreferencesNotFound means none of the preference files exist.
var ErrChromiumPreferencesNotFound = errors.New("Chrome / Chromium default preferences not found")

// Chromium summarizes the kiosk browser's default preferences.
type Chromium struct {
	Path             string   `json:"path"`
	Homepage         *string  `json:"homepage,omitempty"`
	RestoreOnStartup *int     `json:"restore_on_startup,omitempty"`
	StartupURLs      []string `json:"startup_urls,omitempty"`
}

type chromiumSession struct {
	RestoreOnStartup *int     `json:"restore_on_startup"`
	StartupURLs      []string `json:"startup_urls"`
}

// ChromiumProbe reads the first existing preferences file from paths. The
// files are JSON with comments, as shipped by distributions.
func ChromiumProbe(paths []string) *probe.Func[Chromium] {
	if len(paths) == 0 {
		paths = DefaultChromiumPreferences
	}
	return probe.New("chromium", func(context.Context) (Chromium, error) {
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return Chromium{}, result.IO("chromium", err)
			}
			return parseChromium(path, data)
		}
		return Chromium{}, result.NotFound("chromium", ErrChromiumPreferencesNotFound)
	})
}

func parseChromium(path string, data []byte) (Chromium, error) {
	var prefs map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &prefs); err != nil {
		return Chromium{}, result.Classify("chromium", fmt.Errorf("parsing %s: %w", path, err))
	}

	info := Chromium{Path: path}
	if raw, ok := prefs["homepage"]; ok {
		var homepage string
		if err := json.Unmarshal(raw, &homepage); err != nil {
			return Chromium{}, malformed("chromium", "homepage is not a string")
		}
		info.Homepage = &homepage
	}

	raw, ok := prefs["session"]
	if !ok {
		return info, nil
	}
	var session chromiumSession
	if !isObject(raw) {
		return Chromium{}, malformed("chromium", "not a JSON object: session")
	}
	if err := json.Unmarshal(raw, &session); err != nil {
		return Chromium{}, result.Classify("chromium", fmt.Errorf("parsing session: %w", err))
	}
	info.RestoreOnStartup = session.RestoreOnStartup
	info.StartupURLs = session.StartupURLs
	return info, nil
}

func isObject(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
