package probe

import (
	"sync"
	"time"

	"github.com/conqp/digsigctl/pkg/result"
)

// Status tracks the latest outcome of a probe.
// It is safe for concurrent reads via the exported accessor methods,
// but writes should be done through SetOutcome.
type Status struct {
	mu         sync.RWMutex
	lastErrors result.Errors
	alive      bool
	elapsed    time.Duration
	lastUpdate int64
}

// NewStatus creates a Status with zero values (not alive, never run).
func NewStatus() *Status {
	return &Status{}
}

// Alive returns whether the probe's last execution succeeded.
func (s *Status) Alive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alive
}

// LastUpdate returns the unix timestamp of the last execution, or 0 if it never ran.
func (s *Status) LastUpdate() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// SetOutcome stores the latest probe outcome observed at ts.
func (s *Status) SetOutcome(outcome result.Outcome, elapsed time.Duration, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = outcome.Ok()
	s.lastErrors = outcome.Errors()
	s.elapsed = elapsed
	s.lastUpdate = ts.Unix()
}

// Snapshot returns a point-in-time copy of the status fields.
// This is useful for building API responses without holding the lock.
func (s *Status) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := StatusSnapshot{
		Alive:      s.alive,
		ElapsedUS:  s.elapsed.Microseconds(),
		LastUpdate: s.lastUpdate,
	}
	if s.lastErrors.Len() > 0 {
		snap.Kind = s.lastErrors.Kind().String()
		snap.Error = s.lastErrors.Error()
	}
	return snap
}

// StatusSnapshot is a point-in-time copy of Status fields.
type StatusSnapshot struct {
	Alive      bool   `json:"alive"`
	Kind       string `json:"kind,omitempty"`
	Error      string `json:"error,omitempty"`
	ElapsedUS  int64  `json:"elapsed_us"`
	LastUpdate int64  `json:"lastupdate"`
}

// Tracker keeps one Status per probe name and implements Observer.
type Tracker struct {
	mu       sync.RWMutex
	statuses map[string]*Status
	now      func() time.Time
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		statuses: make(map[string]*Status),
		now:      time.Now,
	}
}

// Observe records the outcome of the named probe.
func (t *Tracker) Observe(name string, outcome result.Outcome, elapsed time.Duration) {
	t.getOrCreate(name).SetOutcome(outcome, elapsed, t.now())
}

// getOrCreate returns the Status for name, creating it if needed.
func (t *Tracker) getOrCreate(name string) *Status {
	t.mu.RLock()
	s, ok := t.statuses[name]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.statuses[name]; ok {
		return s
	}
	s = NewStatus()
	t.statuses[name] = s
	return s
}

// Snapshots returns a snapshot of every probe that has run at least once.
func (t *Tracker) Snapshots() map[string]StatusSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]StatusSnapshot, len(t.statuses))
	for name, s := range t.statuses {
		out[name] = s.Snapshot()
	}
	return out
}
