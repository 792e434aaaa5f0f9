// Package probe defines the contract between the report assembler and the
// individual host probes.
//
// A Probe inspects one facet of the local machine and returns either a
// value or an error. Probes are independent: none depends on another's
// outcome, and a failing probe never prevents the others from running.
//
// Execute runs a probe, attributes any error to the probe's name and lifts
// the result into a result.Outcome. Observers receive every outcome, which
// is how the status Tracker and the metrics collectors stay current.
//
// The Registry provides lookup by name so single probes can be run on demand.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/conqp/digsigctl/pkg/result"
)

// Probe is the interface that all host probes implement.
type Probe interface {
	// Name returns the probe's name, which is also its report key (e.g. "cpuinfo").
	Name() string

	// Run inspects the host and returns the probe's value.
	// The provided context carries the per-probe timeout.
	Run(ctx context.Context) (any, error)
}

// Func is a typed probe backed by a function.
type Func[T any] struct {
	name string
	fn   func(ctx context.Context) (T, error)
}

// New creates a typed probe named name.
func New[T any](name string, fn func(ctx context.Context) (T, error)) *Func[T] {
	return &Func[T]{name: name, fn: fn}
}

// Name returns the probe name.
func (f *Func[T]) Name() string {
	return f.name
}

// Run implements Probe.
func (f *Func[T]) Run(ctx context.Context) (any, error) {
	return f.fn(ctx)
}

// Probe runs the probe and returns its typed value.
func (f *Func[T]) Probe(ctx context.Context) (T, error) {
	return f.fn(ctx)
}

// Observer is notified of every probe execution.
type Observer interface {
	Observe(name string, outcome result.Outcome, elapsed time.Duration)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(name string, outcome result.Outcome, elapsed time.Duration)

// Observe calls f.
func (f ObserverFunc) Observe(name string, outcome result.Outcome, elapsed time.Duration) {
	f(name, outcome, elapsed)
}

// Execute runs p and returns its attributed outcome.
// A panicking probe is reported as an I/O failure instead of crashing the caller.
func Execute(ctx context.Context, p Probe, observers ...Observer) (outcome result.Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome = result.Failure(result.IO(p.Name(), panicError{value: r}))
		}
		elapsed := time.Since(start)
		for _, o := range observers {
			o.Observe(p.Name(), outcome, elapsed)
		}
	}()

	value, err := p.Run(ctx)
	return result.Of(p.Name(), value, err)
}

type panicError struct {
	value any
}

func (e panicError) Error() string {
	return fmt.Sprintf("probe panicked: %v", e.value)
}
