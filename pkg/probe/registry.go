package probe

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds probes by name.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	probes map[string]Probe
	order  []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		probes: make(map[string]Probe),
	}
}

// Register adds a probe under its name.
// Returns an error if the name is empty or already registered.
func (r *Registry) Register(p Probe) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("probe name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.probes[name]; exists {
		return fmt.Errorf("probe %q is already registered", name)
	}
	r.probes[name] = p
	r.order = append(r.order, name)
	return nil
}

// Get returns the probe registered under name.
func (r *Registry) Get(name string) (Probe, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.probes[name]
	return p, ok
}

// Names returns the names of all registered probes, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.probes))
	for name := range r.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Probes returns the registered probes in registration order.
func (r *Registry) Probes() []Probe {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Probe, len(r.order))
	for i, name := range r.order {
		out[i] = r.probes[name]
	}
	return out
}
