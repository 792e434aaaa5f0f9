package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/conqp/digsigctl/pkg/probe"
)

func TestComputeSummary(t *testing.T) {
	now := time.Now()
	fresh := now.Add(-1 * time.Minute).Unix()
	stale := now.Add(-10 * time.Minute).Unix()
	window := 5 * time.Minute

	tests := []struct {
		name      string
		snapshots map[string]probe.StatusSnapshot
		window    time.Duration
		want      AgentStatus
		up, down  int
	}{
		{
			name:      "no probes ran",
			snapshots: map[string]probe.StatusSnapshot{},
			window:    window,
			want:      AgentStatusUnknown,
		},
		{
			name:      "nil snapshots",
			snapshots: nil,
			want:      AgentStatusUnknown,
		},
		{
			name: "all probes fresh and up",
			snapshots: map[string]probe.StatusSnapshot{
				"cpuinfo": {Alive: true, LastUpdate: fresh},
				"meminfo": {Alive: true, LastUpdate: fresh},
				"uptime":  {Alive: true, LastUpdate: fresh},
			},
			window: window,
			want:   AgentStatusUp,
			up:     3,
		},
		{
			name: "one probe failed",
			snapshots: map[string]probe.StatusSnapshot{
				"cpuinfo": {Alive: true, LastUpdate: fresh},
				"sensors": {Alive: false, LastUpdate: fresh, Kind: "not_found"},
			},
			window: window,
			want:   AgentStatusDegraded,
			up:     1,
			down:   1,
		},
		{
			name: "one probe stale",
			snapshots: map[string]probe.StatusSnapshot{
				"cpuinfo": {Alive: true, LastUpdate: fresh},
				"uptime":  {Alive: true, LastUpdate: stale},
			},
			window: window,
			want:   AgentStatusDegraded,
			up:     1,
			down:   1,
		},
		{
			name: "stale results count as up without a window",
			snapshots: map[string]probe.StatusSnapshot{
				"cpuinfo": {Alive: true, LastUpdate: stale},
			},
			window: 0,
			want:   AgentStatusUp,
			up:     1,
		},
		{
			name: "all probes failed",
			snapshots: map[string]probe.StatusSnapshot{
				"cpuinfo": {Alive: false, LastUpdate: fresh},
				"meminfo": {Alive: false, LastUpdate: fresh},
			},
			window: window,
			want:   AgentStatusDown,
			down:   2,
		},
		{
			name: "all probes stale",
			snapshots: map[string]probe.StatusSnapshot{
				"cpuinfo": {Alive: true, LastUpdate: stale},
			},
			window: window,
			want:   AgentStatusDown,
			down:   1,
		},
		{
			name: "exactly at the staleness boundary",
			snapshots: map[string]probe.StatusSnapshot{
				"cpuinfo": {Alive: true, LastUpdate: now.Add(-window).Unix()},
			},
			window: window,
			want:   AgentStatusDown,
			down:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeSummary(tt.snapshots, now, tt.window)
			if got.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Status)
			}
			if got.Up != tt.up || got.Down != tt.down || got.Total != len(tt.snapshots) {
				t.Errorf("unexpected counts up=%d down=%d total=%d", got.Up, got.Down, got.Total)
			}
			if got.Probes == nil {
				t.Error("probes must never be nil")
			}
		})
	}
}

func TestStaleAfter(t *testing.T) {
	tests := map[time.Duration]time.Duration{
		0:                0,
		-time.Second:     0,
		time.Minute:      stalenessWindow,
		10 * time.Minute: 30 * time.Minute,
	}
	for interval, want := range tests {
		if got := staleAfter(interval); got != want {
			t.Errorf("staleAfter(%v) = %v, want %v", interval, got, want)
		}
	}
}

func TestSummary_JSONShape(t *testing.T) {
	data, err := json.Marshal(computeSummary(nil, time.Now(), 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"status":"unknown","total":0,"up":0,"down":0,"probes":{}}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}
