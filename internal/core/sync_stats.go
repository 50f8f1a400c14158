package core

import "sync/atomic"

// SyncStats accumulates per-outcome counts across a concurrent harvest run.
// Every counter is an atomic.Int64 rather than a mutex-guarded struct field:
// the harvest orchestrator fans out across many goroutines and the only
// shared mutation here is "add one", which atomics do without contention.
type SyncStats struct {
	unchanged atomic.Int64
	updated   atomic.Int64
	created   atomic.Int64
	failed    atomic.Int64
}

// SyncStatsSnapshot is a point-in-time, non-atomic copy of SyncStats safe to
// print, compare, or sum.
type SyncStatsSnapshot struct {
	Unchanged int64
	Updated   int64
	Created   int64
	Failed    int64
}

// Record increments the counter matching outcome. Any outcome other than the
// four known SyncOutcome values is ignored.
func (s *SyncStats) Record(outcome SyncOutcome) {
	switch outcome {
	case Unchanged:
		s.unchanged.Add(1)
	case Updated:
		s.updated.Add(1)
	case Created:
		s.created.Add(1)
	case Failed:
		s.failed.Add(1)
	}
}

// Snapshot returns the current counter values.
func (s *SyncStats) Snapshot() SyncStatsSnapshot {
	return SyncStatsSnapshot{
		Unchanged: s.unchanged.Load(),
		Updated:   s.updated.Load(),
		Created:   s.created.Load(),
		Failed:    s.failed.Load(),
	}
}

// Total returns the number of records processed regardless of outcome.
func (snap SyncStatsSnapshot) Total() int64 {
	return snap.Unchanged + snap.Updated + snap.Created + snap.Failed
}

// Successful returns the number of records that did not fail.
func (snap SyncStatsSnapshot) Successful() int64 {
	return snap.Unchanged + snap.Updated + snap.Created
}
