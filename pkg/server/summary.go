package server

import (
	"time"

	"github.com/conqp/digsigctl/pkg/probe"
)

// AgentStatus is the aggregate status of the agent across all its probes.
// The string values are stable and consumed by monitoring dashboards.
type AgentStatus string

const (
	// AgentStatusUnknown means no probe has run yet.
	AgentStatusUnknown AgentStatus = "unknown"
	// AgentStatusUp means every probe succeeded on its last run.
	AgentStatusUp AgentStatus = "up"
	// AgentStatusDegraded means some probes succeeded and some failed or went stale.
	AgentStatusDegraded AgentStatus = "degraded"
	// AgentStatusDown means every probe failed or went stale.
	AgentStatusDown AgentStatus = "down"
)

// stalenessWindow is the minimum age at which a probe result counts as stale
// while background sampling is enabled.
const stalenessWindow = 5 * time.Minute

// staleAfter returns the staleness window for the given sample interval.
// Without background sampling results never go stale.
func staleAfter(interval time.Duration) time.Duration {
	if interval <= 0 {
		return 0
	}
	return max(stalenessWindow, 3*interval)
}

// Summary is the body of /api/summary.
type Summary struct {
	Status AgentStatus                     `json:"status"`
	Total  int                             `json:"total"`
	Up     int                             `json:"up"`
	Down   int                             `json:"down"`
	Probes map[string]probe.StatusSnapshot `json:"probes"`
}

// computeSummary aggregates probe snapshots. A probe is up if it is alive
// and, when window is positive, its last update is strictly more recent
// than now minus window. Everything else counts as down.
func computeSummary(snapshots map[string]probe.StatusSnapshot, now time.Time, window time.Duration) Summary {
	summary := Summary{
		Status: AgentStatusUnknown,
		Total:  len(snapshots),
		Probes: snapshots,
	}
	if summary.Probes == nil {
		summary.Probes = map[string]probe.StatusSnapshot{}
	}

	var cutoff int64
	if window > 0 {
		cutoff = now.Add(-window).Unix()
	}

	for _, snap := range snapshots {
		if snap.Alive && snap.LastUpdate > 0 && snap.LastUpdate > cutoff {
			summary.Up++
		} else {
			summary.Down++
		}
	}

	switch {
	case summary.Total == 0:
		summary.Status = AgentStatusUnknown
	case summary.Down == 0:
		summary.Status = AgentStatusUp
	case summary.Up > 0:
		summary.Status = AgentStatusDegraded
	default:
		summary.Status = AgentStatusDown
	}
	return summary
}
