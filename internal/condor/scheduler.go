package condor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
)

// DAGStatus is one level-triggered snapshot of a DAG workflow: the
// node counts reported by the scheduler, plus the workflow exit code
// once the DAG has left the queue. ExitCode == nil means the workflow
// is still in flight.
type DAGStatus struct {
	Total   int
	Done    int
	Queued  int
	Ready   int
	Unready int
	Failed  int
	Held    int
	Running int
	Idle    int

	ExitCode *int
}

// Terminal reports whether this snapshot is final.
func (s DAGStatus) Terminal() bool {
	return s.ExitCode != nil
}

// State derives the lifecycle state from the snapshot. Held is only
// reported, never escalated: a held workflow stays Held until an
// operator releases or removes it.
func (s DAGStatus) State() State {
	switch {
	case s.ExitCode != nil && *s.ExitCode == 0:
		return StateCompleted
	case s.ExitCode != nil:
		return StateFailed
	case s.Held > 0:
		return StateHeld
	case s.Running > 0 || s.Done > 0:
		return StateRunning
	default:
		return StateSubmitted
	}
}

// Scheduler is the abstract batch-scheduler protocol this package
// depends on: submit a DAG, query the live queue by cluster ID, and
// fetch the terminal record from the history.
type Scheduler interface {
	// Submit hands a DAG file to the scheduler and returns the
	// cluster ID it was assigned.
	Submit(ctx context.Context, dagFile string, force bool) (int64, error)

	// Query returns the current status of a cluster still in the
	// queue. found is false when the cluster has left the queue.
	Query(ctx context.Context, clusterID int64) (status DAGStatus, found bool, err error)

	// History returns the terminal record of a finished cluster.
	History(ctx context.Context, clusterID int64) (DAGStatus, error)
}

// Runner executes an external command and returns its stdout. The
// production runner wraps os/exec; tests substitute canned output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands via os/exec, folding stderr into the error.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return out, nil
}

// HTCondor drives a real HTCondor pool through its command-line tools.
type HTCondor struct {
	// Runner defaults to ExecRunner.
	Runner Runner

	// Tool overrides, empty means the standard names on PATH.
	SubmitDAG  string
	CondorQ    string
	CondorHist string
}

func (h *HTCondor) runner() Runner {
	if h.Runner != nil {
		return h.Runner
	}
	return ExecRunner{}
}

func (h *HTCondor) tool(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

// clusterPattern extracts the cluster ID from condor_submit_dag output,
// e.g. "1 job(s) submitted to cluster 123456."
var clusterPattern = regexp.MustCompile(`submitted to cluster ([0-9]+)`)

// Submit runs condor_submit_dag and scrapes the cluster ID from its
// output. Any failure to run the tool or parse an ID is a
// SubmissionError.
func (h *HTCondor) Submit(ctx context.Context, dagFile string, force bool) (int64, error) {
	args := []string{}
	if force {
		args = append(args, "-force")
	}
	args = append(args, dagFile)
	out, err := h.runner().Run(ctx, h.tool(h.SubmitDAG, "condor_submit_dag"), args...)
	if err != nil {
		return 0, &SubmissionError{Output: string(out), Err: err}
	}
	m := clusterPattern.FindSubmatch(out)
	if m == nil {
		return 0, &SubmissionError{Output: string(out)}
	}
	id, err := strconv.ParseInt(string(m[1]), 10, 64)
	if err != nil {
		return 0, &SubmissionError{Output: string(out), Err: err}
	}
	return id, nil
}

// dagAttributes are the classads carrying DAG node counts.
var dagAttributes = []string{
	"DAG_NodesTotal",
	"DAG_NodesDone",
	"DAG_NodesQueued",
	"DAG_NodesReady",
	"DAG_NodesUnready",
	"DAG_NodesFailed",
	"DAG_JobsHeld",
	"DAG_JobsRunning",
	"DAG_JobsIdle",
}

// classad is the JSON shape emitted by condor_q -json / condor_history
// -json for the attributes we request.
type classad struct {
	Total    int  `json:"DAG_NodesTotal"`
	Done     int  `json:"DAG_NodesDone"`
	Queued   int  `json:"DAG_NodesQueued"`
	Ready    int  `json:"DAG_NodesReady"`
	Unready  int  `json:"DAG_NodesUnready"`
	Failed   int  `json:"DAG_NodesFailed"`
	Held     int  `json:"DAG_JobsHeld"`
	Running  int  `json:"DAG_JobsRunning"`
	Idle     int  `json:"DAG_JobsIdle"`
	ExitCode *int `json:"ExitCode"`
}

func (c classad) status() DAGStatus {
	return DAGStatus{
		Total:    c.Total,
		Done:     c.Done,
		Queued:   c.Queued,
		Ready:    c.Ready,
		Unready:  c.Unready,
		Failed:   c.Failed,
		Held:     c.Held,
		Running:  c.Running,
		Idle:     c.Idle,
		ExitCode: c.ExitCode,
	}
}

func attributeList(extra ...string) string {
	attrs := ""
	for i, a := range append(dagAttributes[:len(dagAttributes):len(dagAttributes)], extra...) {
		if i > 0 {
			attrs += ","
		}
		attrs += a
	}
	return attrs
}

// Query asks condor_q for the live status of the cluster. An empty
// result set means the cluster has left the queue.
func (h *HTCondor) Query(ctx context.Context, clusterID int64) (DAGStatus, bool, error) {
	out, err := h.runner().Run(ctx, h.tool(h.CondorQ, "condor_q"),
		"-json",
		"-attributes", attributeList(),
		"-constraint", fmt.Sprintf("ClusterId == %d", clusterID),
	)
	if err != nil {
		return DAGStatus{}, false, err
	}
	ads, err := parseClassads(out)
	if err != nil {
		return DAGStatus{}, false, err
	}
	if len(ads) == 0 {
		return DAGStatus{}, false, nil
	}
	return ads[0].status(), true, nil
}

// History fetches the terminal record of the cluster, including its
// exit code.
func (h *HTCondor) History(ctx context.Context, clusterID int64) (DAGStatus, error) {
	out, err := h.runner().Run(ctx, h.tool(h.CondorHist, "condor_history"),
		"-json",
		"-limit", "1",
		"-attributes", attributeList("ExitCode"),
		"-constraint", fmt.Sprintf("ClusterId == %d", clusterID),
	)
	if err != nil {
		return DAGStatus{}, err
	}
	ads, err := parseClassads(out)
	if err != nil {
		return DAGStatus{}, err
	}
	if len(ads) == 0 {
		return DAGStatus{}, fmt.Errorf("%w: cluster %d has no history record", ErrNotFound, clusterID)
	}
	st := ads[0].status()
	if st.ExitCode == nil {
		// history records always terminate; treat a missing code as 0
		zero := 0
		st.ExitCode = &zero
	}
	return st, nil
}

func parseClassads(out []byte) ([]classad, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var ads []classad
	if err := json.Unmarshal(trimmed, &ads); err != nil {
		return nil, fmt.Errorf("condor: cannot parse scheduler output: %w", err)
	}
	return ads, nil
}
