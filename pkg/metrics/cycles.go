package metrics

import "sync/atomic"

// CycleCounters tracks watcher cycle outcomes. Safe for concurrent use.
type CycleCounters struct {
	succeeded atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	changes   atomic.Int64
}

// CycleStats is a point-in-time copy of CycleCounters.
type CycleStats struct {
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
	Changes   int64 `json:"changes"`
}

func (c *CycleCounters) Succeeded(changes int) {
	c.succeeded.Add(1)
	c.changes.Add(int64(changes))
}

func (c *CycleCounters) Failed() { c.failed.Add(1) }

func (c *CycleCounters) Skipped() { c.skipped.Add(1) }

// Snapshot reads all counters.
func (c *CycleCounters) Snapshot() CycleStats {
	return CycleStats{
		Succeeded: c.succeeded.Load(),
		Failed:    c.failed.Load(),
		Skipped:   c.skipped.Load(),
		Changes:   c.changes.Load(),
	}
}

// IsZero reports whether no cycle has been recorded.
func (s CycleStats) IsZero() bool {
	return s.Succeeded == 0 && s.Failed == 0 && s.Skipped == 0
}
