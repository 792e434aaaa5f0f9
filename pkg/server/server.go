package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/conqp/digsigctl/pkg/config"
	"github.com/conqp/digsigctl/pkg/probe"
	"github.com/conqp/digsigctl/pkg/sysinfo"
	"github.com/conqp/digsigctl/pkg/sysinfo/resolver"
)

// cacheSize bounds the probe cache; only the command probes are cached.
const cacheSize = 8

// Server is the sysinfo HTTP agent.
type Server struct {
	assembler *sysinfo.Assembler
	tracker   *probe.Tracker
	metrics   *Metrics
	limiter   *rate.Limiter
	logger    *logrus.Logger

	listen     string
	interval   time.Duration
	staleAfter time.Duration
	startDelay func() time.Duration

	httpServer *http.Server
	addr       net.Addr

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// AssemblerOptions translates cfg into options for sysinfo.NewAssembler.
func AssemblerOptions(cfg *config.Config) ([]sysinfo.Option, error) {
	opts := []sysinfo.Option{
		sysinfo.WithTimeout(cfg.ProbeTimeout),
		sysinfo.WithCache(probe.NewCache(cacheSize, cfg.CacheTTL)),
		sysinfo.WithSensors(cfg.Sensors.Enabled),
		sysinfo.WithSmartctl(cfg.Smartctl.Enabled),
	}
	if cfg.Chromium.Enabled {
		opts = append(opts, sysinfo.WithChromium(cfg.Chromium.Preferences))
	}
	if cfg.Resolver.Name != "" {
		r, err := resolver.New(cfg.Resolver.Name,
			resolver.WithTimeout(cfg.Resolver.Timeout),
			resolver.WithResolvConf(cfg.Resolver.ResolvConf),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create resolver probe: %w", err)
		}
		opts = append(opts, sysinfo.WithResolver(r))
	}
	return opts, nil
}

// HostFromConfig returns the host described by cfg, using real commands.
func HostFromConfig(cfg *config.Config) sysinfo.Host {
	return sysinfo.Host{
		ProcRoot: cfg.ProcRoot,
		SysRoot:  cfg.SysRoot,
		Runner:   sysinfo.ExecRunner{},
	}
}

// NewServer builds a server for host. Extra options are applied after the
// ones derived from cfg.
func NewServer(cfg *config.Config, host sysinfo.Host, logger *logrus.Logger, extra ...sysinfo.Option) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("server: logger must not be nil")
	}

	opts, err := AssemblerOptions(cfg)
	if err != nil {
		return nil, err
	}

	tracker := probe.NewTracker()
	metrics := NewMetrics()
	opts = append(opts, sysinfo.WithObservers(tracker, metrics))
	opts = append(opts, extra...)

	assembler, err := sysinfo.NewAssembler(host, logger, opts...)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.RateLimit.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		assembler:  assembler,
		tracker:    tracker,
		metrics:    metrics,
		limiter:    limiter,
		logger:     logger,
		listen:     cfg.Listen,
		interval:   cfg.SampleInterval,
		staleAfter: staleAfter(cfg.SampleInterval),
		startDelay: randomStartDelay(cfg.SampleInterval),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.ProbeTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the address the server listens on, or nil before Start.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Start opens the listener, serves the API and starts the background sampler.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listen, err)
	}
	s.addr = ln.Addr()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Infof("Starting API server on %v...", s.addr)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("API server failed: %v", err)
		}
	}()

	if s.interval > 0 {
		s.wg.Add(1)
		go s.sampler()
	} else {
		s.logger.Info("Background sampling disabled")
	}
	return nil
}

// Stop shuts the API server down and waits for the sampler to finish.
func (s *Server) Stop(ctx context.Context) error {
	close(s.done)
	s.cancel()
	err := s.httpServer.Shutdown(ctx)
	s.wg.Wait()
	s.logger.Info("Server stopped.")
	return err
}
