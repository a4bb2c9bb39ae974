// Package condor models the batch-scheduler side of the pipeline:
// immutable job and DAG descriptors, submission of a DAG workflow,
// level-triggered status polling until a terminal snapshot, and rescue
// DAG discovery for failed workflows.
//
// The scheduler itself is a collaborator behind the Scheduler
// interface. The production implementation shells out to the HTCondor
// command-line tools; tests substitute an in-memory scheduler.
//
// # Failure classification
//
// Three kinds of failure are kept distinct:
//   - a query that finds no job falls through to the scheduler history
//     (the workflow left the queue and has a terminal record)
//   - a transient query error is retried exactly once, then surfaced
//     as ErrSchedulerUnavailable
//   - a terminal record with non-zero exit code is a workflow failure,
//     reported to the caller and never retried here
package condor
