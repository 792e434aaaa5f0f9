package sysinfo

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/conqp/digsigctl/pkg/probe"
	"github.com/conqp/digsigctl/pkg/result"
	"github.com/conqp/digsigctl/pkg/sysinfo/resolver"
)

// Report is the collected information about the local signage system.
// A nil field means its probe failed or is disabled.
type Report struct {
	OS          string             `json:"os"`
	Application *Application       `json:"application"`
	BayTrail    *bool              `json:"baytrail"`
	EFI         *EFI               `json:"efi"`
	Cmdline     map[string]*string `json:"cmdline"`
	CPUInfo     *CPUInfo           `json:"cpuinfo"`
	Df          []DiskEntry        `json:"df"`
	Meminfo     map[string]uint64  `json:"meminfo"`
	RootRO      *bool              `json:"root_ro"`
	Sensors     map[string]any     `json:"sensors"`
	Uptime      *Uptime            `json:"uptime"`
	Smartctl    map[string]*string `json:"smartctl"`
	Chromium    *Chromium          `json:"chromium,omitempty"`
	Resolver    *resolver.Answer   `json:"resolver,omitempty"`
}

// binding ties a probe to the report field it fills.
type binding struct {
	probe  probe.Probe
	assign func(r *Report, v any)
}

func bind[T any](p *probe.Func[T], assign func(r *Report, v T)) binding {
	return binding{
		probe: p,
		assign: func(r *Report, v any) {
			if typed, ok := v.(T); ok {
				assign(r, typed)
			}
		},
	}
}

// Assembler runs every bound probe once per Collect and builds the Report.
type Assembler struct {
	host      Host
	logger    *logrus.Logger
	timeout   time.Duration
	observers []probe.Observer
	cache     *probe.Cache
	statfs    StatfsFunc
	chromium  []string
	browser   bool
	sensors   bool
	smartctl  bool
	resolver  *resolver.Resolver

	bindings []binding
	registry *probe.Registry
}

// Option is a functional option for configuring an Assembler.
type Option func(*Assembler)

// WithTimeout bounds each probe run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Assembler) { a.timeout = d }
}

// WithObservers registers observers notified of every probe outcome.
func WithObservers(observers ...probe.Observer) Option {
	return func(a *Assembler) { a.observers = append(a.observers, observers...) }
}

// WithCache caches the slow command probes (sensors, smartctl) in c.
func WithCache(c *probe.Cache) Option {
	return func(a *Assembler) { a.cache = c }
}

// WithStatfs replaces the statfs(2) call used by the df probe.
func WithStatfs(fn StatfsFunc) Option {
	return func(a *Assembler) { a.statfs = fn }
}

// WithChromium enables the chromium probe, searching paths for the
// preferences file. Empty paths select DefaultChromiumPreferences.
func WithChromium(paths []string) Option {
	return func(a *Assembler) {
		a.browser = true
		a.chromium = paths
	}
}

// WithSensors enables or disables the sensors probe.
func WithSensors(enabled bool) Option {
	return func(a *Assembler) { a.sensors = enabled }
}

// WithSmartctl enables or disables the smartctl probe.
func WithSmartctl(enabled bool) Option {
	return func(a *Assembler) { a.smartctl = enabled }
}

// WithResolver enables the DNS resolver probe.
func WithResolver(r *resolver.Resolver) Option {
	return func(a *Assembler) { a.resolver = r }
}

// NewAssembler creates an Assembler reading from host.
func NewAssembler(host Host, logger *logrus.Logger, opts ...Option) (*Assembler, error) {
	if logger == nil {
		return nil, fmt.Errorf("sysinfo: logger must not be nil")
	}

	a := &Assembler{
		host:     host,
		logger:   logger,
		sensors:  true,
		smartctl: true,
		registry: probe.NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.bindings = a.bind()
	for _, b := range a.bindings {
		if err := a.registry.Register(b.probe); err != nil {
			return nil, fmt.Errorf("sysinfo: %w", err)
		}
	}
	return a, nil
}

// bind returns the probes in report order.
func (a *Assembler) bind() []binding {
	h := a.host
	bindings := []binding{
		bind(ApplicationProbe(), func(r *Report, v Application) { r.Application = &v }),
		bind(h.EFIProbe(), func(r *Report, v EFI) { r.EFI = &v }),
		bind(h.CmdlineProbe(), func(r *Report, v map[string]*string) { r.Cmdline = v }),
		bind(h.CPUInfoProbe(), func(r *Report, v CPUInfo) { r.CPUInfo = &v }),
		bind(h.DfProbe(a.logger, a.statfs), func(r *Report, v []DiskEntry) { r.Df = v }),
		bind(h.MeminfoProbe(), func(r *Report, v map[string]uint64) { r.Meminfo = v }),
		bind(h.RootReadOnlyProbe(), func(r *Report, v bool) { r.RootRO = &v }),
	}
	if a.sensors {
		bindings = append(bindings,
			bind(probe.Cached(a.cache, h.SensorsProbe()), func(r *Report, v map[string]any) { r.Sensors = v }))
	}
	bindings = append(bindings,
		bind(h.UptimeProbe(), func(r *Report, v Uptime) { r.Uptime = &v }))
	if a.smartctl {
		bindings = append(bindings,
			bind(probe.Cached(a.cache, h.SmartctlProbe()), func(r *Report, v map[string]*string) { r.Smartctl = v }))
	}
	if a.browser {
		bindings = append(bindings,
			bind(ChromiumProbe(a.chromium), func(r *Report, v Chromium) { r.Chromium = &v }))
	}
	if a.resolver != nil {
		bindings = append(bindings,
			bind(a.resolver.Probe(), func(r *Report, v resolver.Answer) { r.Resolver = &v }))
	}
	return bindings
}

// Registry returns the registry of all bound probes.
func (a *Assembler) Registry() *probe.Registry {
	return a.registry
}

// Collect runs all probes concurrently and returns the report together with
// the fold of every probe's outcome in binding order. On success the outcome
// carries the report as its payload. Fields of failed probes stay nil, so the
// report is a usable partial view either way.
func (a *Assembler) Collect(ctx context.Context) (Report, result.Outcome) {
	outcomes := make([]result.Outcome, len(a.bindings))

	var g errgroup.Group
	for i, b := range a.bindings {
		g.Go(func() error {
			outcomes[i] = a.execute(ctx, b.probe)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{OS: runtime.GOOS}
	for i, b := range a.bindings {
		if outcomes[i].Ok() {
			b.assign(&report, outcomes[i].Payload())
			continue
		}
		a.warn(outcomes[i].Errors())
	}
	if report.CPUInfo != nil {
		bayTrail := report.CPUInfo.BayTrail()
		report.BayTrail = &bayTrail
	}

	return report, result.Fold(outcomes...).With(report)
}

// Run executes the named probe alone. It returns false if no such probe is bound.
func (a *Assembler) Run(ctx context.Context, name string) (result.Outcome, bool) {
	p, ok := a.registry.Get(name)
	if !ok {
		return result.Outcome{}, false
	}
	outcome := a.execute(ctx, p)
	if !outcome.Ok() {
		a.warn(outcome.Errors())
	}
	return outcome, true
}

func (a *Assembler) execute(ctx context.Context, p probe.Probe) result.Outcome {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return probe.Execute(ctx, p, a.observers...)
}

func (a *Assembler) warn(errs result.Errors) {
	for _, e := range errs.Errors() {
		a.logger.WithFields(logrus.Fields{
			"probe": e.Key,
			"kind":  e.Kind.String(),
		}).Warn(e.Error())
	}
}
