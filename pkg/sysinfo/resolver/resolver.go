// Package resolver implements a DNS health probe. It resolves one configured
// name against the nameservers listed in resolv.conf and reports the answer
// of the first server that responds. A and AAAA records are queried; the
// probe succeeds when at least one address comes back.
package resolver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/conqp/digsigctl/pkg/probe"
	"github.com/conqp/digsigctl/pkg/result"
)

const (
	// Name is the probe name and report key.
	Name = "resolver"

	// DefaultTimeout is the default per-query timeout.
	DefaultTimeout = 3 * time.Second

	// DefaultResolvConf is where nameservers are read from by default.
	DefaultResolvConf = "/etc/resolv.conf"
)

// Answer is the outcome of a successful lookup.
type Answer struct {
	Name      string   `json:"name"`
	Server    string   `json:"server"`
	Addresses []string `json:"addresses"`
	RTTUS     int64    `json:"rtt_us"`
}

// Resolver looks up a single name against the system nameservers.
type Resolver struct {
	name       string
	resolvConf string
	servers    []string // host:port, overrides resolvConf when set
	timeout    time.Duration
	client     *dns.Client
}

// Option is a functional option for configuring a Resolver.
type Option func(*Resolver) error

// WithTimeout sets the per-query timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		r.timeout = d
		return nil
	}
}

// WithResolvConf reads nameservers from path instead of DefaultResolvConf.
func WithResolvConf(path string) Option {
	return func(r *Resolver) error {
		if path == "" {
			return fmt.Errorf("resolv.conf path must not be empty")
		}
		r.resolvConf = path
		return nil
	}
}

// WithServers queries the given host:port servers and ignores resolv.conf.
func WithServers(servers ...string) Option {
	return func(r *Resolver) error {
		if len(servers) == 0 {
			return fmt.Errorf("at least one server is required")
		}
		r.servers = servers
		return nil
	}
}

// New creates a Resolver for name.
func New(name string, opts ...Option) (*Resolver, error) {
	if name == "" {
		return nil, fmt.Errorf("resolver: name must not be empty")
	}

	r := &Resolver{
		name:       name,
		resolvConf: DefaultResolvConf,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("resolver: %w", err)
		}
	}

	r.client = &dns.Client{
		Timeout: r.timeout,
	}
	return r, nil
}

// Probe returns the resolver as a probe named Name.
func (r *Resolver) Probe() *probe.Func[Answer] {
	return probe.New(Name, r.Lookup)
}

// Lookup resolves the configured name. Servers are tried in order and the
// first one that yields addresses wins. An NXDOMAIN or empty answer is a
// not-found error; a response that cannot be used is malformed.
func (r *Resolver) Lookup(ctx context.Context) (Answer, error) {
	servers, err := r.nameservers()
	if err != nil {
		return Answer{}, err
	}

	var lastErr error
	for _, server := range servers {
		answer, err := r.query(ctx, server)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return Answer{}, lastErr
}

// query asks server for A and AAAA records of the configured name.
func (r *Resolver) query(ctx context.Context, server string) (Answer, error) {
	answer := Answer{Name: r.name, Server: server}
	var lastErr error

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(r.name), qtype)
		msg.RecursionDesired = true

		resp, rtt, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = result.IO(Name, fmt.Errorf("%s %s via %s: %w", qtypeName(qtype), r.name, server, err))
			continue
		}
		answer.RTTUS += rtt.Microseconds()

		switch resp.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			lastErr = result.NotFound(Name, fmt.Errorf("%s %s via %s: NXDOMAIN", qtypeName(qtype), r.name, server))
			continue
		case dns.RcodeFormatError:
			lastErr = result.Malformed(Name, fmt.Errorf("%w: %s %s via %s: FORMERR", result.ErrMalformed, qtypeName(qtype), r.name, server))
			continue
		default:
			lastErr = result.IO(Name, fmt.Errorf("%s %s via %s: rcode %s", qtypeName(qtype), r.name, server, dns.RcodeToString[resp.Rcode]))
			continue
		}

		answer.Addresses = append(answer.Addresses, addresses(resp.Answer)...)
	}

	if len(answer.Addresses) > 0 {
		return answer, nil
	}
	if lastErr == nil {
		lastErr = result.NotFound(Name, fmt.Errorf("%s via %s: no addresses in answer", r.name, server))
	}
	return Answer{}, lastErr
}

// nameservers returns the host:port pairs to query.
func (r *Resolver) nameservers() ([]string, error) {
	if len(r.servers) > 0 {
		return r.servers, nil
	}

	conf, err := dns.ClientConfigFromFile(r.resolvConf)
	if err != nil {
		return nil, result.Classify(Name, fmt.Errorf("reading %s: %w", r.resolvConf, err))
	}
	if len(conf.Servers) == 0 {
		return nil, result.NotFound(Name, fmt.Errorf("no nameservers in %s", r.resolvConf))
	}

	servers := make([]string, len(conf.Servers))
	for i, s := range conf.Servers {
		servers[i] = net.JoinHostPort(s, conf.Port)
	}
	return servers, nil
}

// addresses extracts A and AAAA addresses from an answer section.
func addresses(rrs []dns.RR) []string {
	var out []string
	for _, rr := range rrs {
		switch v := rr.(type) {
		case *dns.A:
			out = append(out, normalizeIP(v.A.String()))
		case *dns.AAAA:
			out = append(out, normalizeIP(v.AAAA.String()))
		}
	}
	return out
}

// normalizeIP parses and re-serializes an IP address string,
// handling IPv4-in-IPv6 representations and leading zeros.
func normalizeIP(s string) string {
	ip := net.ParseIP(s)
	if ip == nil {
		return s
	}
	return ip.String()
}

// qtypeName returns a human-readable record type name for error messages.
func qtypeName(qtype uint16) string {
	switch qtype {
	case dns.TypeA:
		return "A"
	case dns.TypeAAAA:
		return "AAAA"
	default:
		return fmt.Sprintf("TYPE%d", qtype)
	}
}
