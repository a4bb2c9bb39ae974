package condor

import (
	"errors"
	"fmt"
)

// ErrNoRescue indicates no rescue DAG exists for a workflow.
var ErrNoRescue = errors.New("condor: no rescue DAG found")

// ErrSchedulerUnavailable indicates the scheduler could not be reached
// after the single automatic retry.
var ErrSchedulerUnavailable = errors.New("condor: scheduler unavailable")

// ErrNotFound indicates neither the queue nor the history knows the
// cluster ID.
var ErrNotFound = errors.New("condor: cluster not found")

// SubmissionError indicates the scheduler rejected a DAG submission or
// its response could not be parsed for a cluster ID.
type SubmissionError struct {
	Output string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("condor: DAG submission failed: %v", e.Err)
	}
	return fmt.Sprintf("condor: failed to extract cluster ID from submit output %q", e.Output)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
