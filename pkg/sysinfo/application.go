package sysinfo

import (
	"context"
	"runtime"
	"runtime/debug"

	"github.com/conqp/digsigctl/pkg/probe"
)

// Version is set at link time with -ldflags "-X .../pkg/sysinfo.Version=...".
var Version = "dev"

// Application describes the running agent binary.
type Application struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// ApplicationProbe reports build metadata. It never fails.
func ApplicationProbe() *probe.Func[Application] {
	return probe.New("application", func(context.Context) (Application, error) {
		return readApplication(debug.ReadBuildInfo), nil
	})
}

func readApplication(read func() (*debug.BuildInfo, bool)) Application {
	app := Application{
		Name:      "sysinfod",
		Version:   Version,
		GoVersion: runtime.Version(),
	}

	bi, ok := read()
	if !ok {
		return app
	}
	if bi.Main.Path != "" {
		app.Name = bi.Main.Path
	}
	if app.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		app.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			app.Revision = s.Value
		case "vcs.modified":
			app.Modified = s.Value == "true"
		}
	}
	return app
}
