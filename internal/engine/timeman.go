package engine

import (
	"sync/atomic"
	"time"
)

// checkInterval is how many nodes pass between budget checks.
const checkInterval = 1024

// TimeManager enforces the wall-clock and node budgets of one search. It is
// shared by every worker of that search.
type TimeManager struct {
	startTime time.Time
	moveTime  time.Duration // 0 = no limit
	maxNodes  uint64        // 0 = no limit

	nodes   atomic.Uint64
	stopped atomic.Bool
}

// NewTimeManager creates a time manager for the given limits and starts its clock.
func NewTimeManager(limits SearchLimits) *TimeManager {
	return &TimeManager{
		startTime: time.Now(),
		moveTime:  limits.MoveTime,
		maxNodes:  limits.Nodes,
	}
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// Nodes returns the number of nodes counted so far.
func (tm *TimeManager) Nodes() uint64 {
	return tm.nodes.Load()
}

// Visit counts one node and returns true once the search has to stop.
func (tm *TimeManager) Visit() bool {
	if tm == nil {
		return false
	}
	n := tm.nodes.Add(1)
	if tm.stopped.Load() {
		return true
	}
	if tm.maxNodes > 0 && n >= tm.maxNodes {
		tm.stopped.Store(true)
		return true
	}
	if n%checkInterval == 0 && tm.moveTime > 0 && tm.Elapsed() >= tm.moveTime {
		tm.stopped.Store(true)
		return true
	}
	return false
}

// Stop aborts the search.
func (tm *TimeManager) Stop() {
	if tm != nil {
		tm.stopped.Store(true)
	}
}

// ShouldStop returns true if the search has been aborted.
func (tm *TimeManager) ShouldStop() bool {
	return tm != nil && tm.stopped.Load()
}

// PastOptimum returns true if another iteration is unlikely to finish: more
// than half of the move time is already spent.
func (tm *TimeManager) PastOptimum() bool {
	if tm.moveTime == 0 {
		return false
	}
	return tm.Elapsed()*2 >= tm.moveTime
}
