package condor

import (
	"context"
	"log/slog"
	"time"
)

// State is the lifecycle state of a submitted workflow.
type State int

const (
	StateUnsubmitted State = iota
	StateSubmitted
	StateRunning
	StateHeld
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnsubmitted:
		return "unsubmitted"
	case StateSubmitted:
		return "submitted"
	case StateRunning:
		return "running"
	case StateHeld:
		return "held"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// ParseState is the inverse of String. Unknown names map to
// StateUnsubmitted and false.
func ParseState(name string) (State, bool) {
	for s := StateUnsubmitted; s <= StateFailed; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return StateUnsubmitted, false
}

// JobRecord tracks one submitted workflow. Created at submission,
// mutated only by the polling loop, terminal at Completed/Failed.
type JobRecord struct {
	ClusterID  int64
	SubmitTime time.Time
	State      State
	ExitCode   *int
}

// Monitor polls a scheduler for workflow status. One Monitor watches
// one workflow at a time; watching several workflows concurrently
// means running independent Monitors, which share no state.
type Monitor struct {
	Scheduler Scheduler
	Log       *slog.Logger
}

func (m *Monitor) log() *slog.Logger {
	if m.Log != nil {
		return m.Log
	}
	return slog.Default()
}

// Snapshot reads the cluster's status once, classifying failures:
// a transient error is retried exactly once before being surfaced as
// ErrSchedulerUnavailable; a cluster absent from the queue falls
// through to the history for its terminal record.
func (m *Monitor) Snapshot(ctx context.Context, clusterID int64) (DAGStatus, error) {
	st, found, err := m.Scheduler.Query(ctx, clusterID)
	if err != nil {
		m.log().Debug("scheduler query failed, retrying once", "cluster", clusterID, "error", err)
		st, found, err = m.Scheduler.Query(ctx, clusterID)
	}
	if err != nil {
		return DAGStatus{}, &unavailableError{err: err}
	}
	if !found {
		return m.Scheduler.History(ctx, clusterID)
	}
	return st, nil
}

// Poll returns a point-in-time JobRecord for the cluster.
func (m *Monitor) Poll(ctx context.Context, clusterID int64) (JobRecord, error) {
	st, err := m.Snapshot(ctx, clusterID)
	if err != nil {
		return JobRecord{}, err
	}
	return JobRecord{
		ClusterID: clusterID,
		State:     st.State(),
		ExitCode:  st.ExitCode,
	}, nil
}

// Watch produces a lazy sequence of status snapshots for the cluster,
// one per interval, ending at the first terminal snapshot. Polling is
// level-triggered: each tick re-reads the full status. The snapshot
// channel is closed when the sequence ends; the error channel carries
// at most one error (cancellation or scheduler unavailability) and is
// closed with it.
//
// Cancelling ctx stops polling with no side effects; the in-flight
// scheduler workflow is not touched. The caller keeps the cluster ID
// needed to issue an explicit cancel against the scheduler.
func (m *Monitor) Watch(ctx context.Context, clusterID int64, interval time.Duration) (<-chan DAGStatus, <-chan error) {
	snaps := make(chan DAGStatus)
	errs := make(chan error, 1)
	go func() {
		defer close(snaps)
		defer close(errs)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			st, err := m.Snapshot(ctx, clusterID)
			if err != nil {
				errs <- err
				return
			}
			select {
			case snaps <- st:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
			if st.Terminal() {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()
	return snaps, errs
}

// Wait consumes Watch until the terminal snapshot and returns it.
// Callers wanting a deadline impose one through ctx.
func (m *Monitor) Wait(ctx context.Context, clusterID int64, interval time.Duration) (DAGStatus, error) {
	snaps, errs := m.Watch(ctx, clusterID, interval)
	var last DAGStatus
	for st := range snaps {
		last = st
		m.log().Debug("workflow status",
			"cluster", clusterID,
			"state", st.State().String(),
			"done", st.Done,
			"queued", st.Queued,
			"held", st.Held,
			"failed", st.Failed,
			"total", st.Total,
		)
	}
	if err := <-errs; err != nil {
		return DAGStatus{}, err
	}
	return last, nil
}

// unavailableError wraps the underlying transport error while matching
// errors.Is(err, ErrSchedulerUnavailable).
type unavailableError struct {
	err error
}

func (e *unavailableError) Error() string {
	return ErrSchedulerUnavailable.Error() + ": " + e.err.Error()
}

func (e *unavailableError) Is(target error) bool {
	return target == ErrSchedulerUnavailable
}

func (e *unavailableError) Unwrap() error {
	return e.err
}
