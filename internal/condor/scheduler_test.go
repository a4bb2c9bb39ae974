package condor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner returns canned outputs in order, recording each call.
type scriptedRunner struct {
	outputs []string
	errs    []error
	calls   [][]string
}

func (r *scriptedRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	i := len(r.calls)
	r.calls = append(r.calls, append([]string{name}, args...))
	var err error
	if i < len(r.errs) {
		err = r.errs[i]
	}
	var out string
	if i < len(r.outputs) {
		out = r.outputs[i]
	}
	return []byte(out), err
}

func TestHTCondor_Submit(t *testing.T) {
	r := &scriptedRunner{outputs: []string{
		"Renaming rescue DAGs newer than number 0.\n" +
			"-----------------------------------------\n" +
			"1 job(s) submitted to cluster 123456.\n",
	}}
	h := &HTCondor{Runner: r}

	id, err := h.Submit(context.Background(), "/run/condor/omicron.dag", false)
	require.NoError(t, err)
	assert.Equal(t, int64(123456), id)
	assert.Equal(t, []string{"condor_submit_dag", "/run/condor/omicron.dag"}, r.calls[0])
}

func TestHTCondor_SubmitForce(t *testing.T) {
	r := &scriptedRunner{outputs: []string{"1 job(s) submitted to cluster 7.\n"}}
	h := &HTCondor{Runner: r}

	_, err := h.Submit(context.Background(), "x.dag", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"condor_submit_dag", "-force", "x.dag"}, r.calls[0])
}

func TestHTCondor_Submit_UnparseableOutput(t *testing.T) {
	r := &scriptedRunner{outputs: []string{"something unexpected\n"}}
	h := &HTCondor{Runner: r}

	_, err := h.Submit(context.Background(), "x.dag", false)
	require.Error(t, err)
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Contains(t, subErr.Output, "something unexpected")
}

func TestHTCondor_Submit_ToolFailure(t *testing.T) {
	r := &scriptedRunner{errs: []error{errors.New("exit status 1")}}
	h := &HTCondor{Runner: r}

	_, err := h.Submit(context.Background(), "x.dag", false)
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
}

func TestHTCondor_Query(t *testing.T) {
	r := &scriptedRunner{outputs: []string{`[
		{"DAG_NodesTotal": 10, "DAG_NodesDone": 4, "DAG_NodesQueued": 3,
		 "DAG_NodesReady": 1, "DAG_NodesUnready": 1, "DAG_NodesFailed": 1,
		 "DAG_JobsHeld": 0, "DAG_JobsRunning": 2, "DAG_JobsIdle": 1}
	]`}}
	h := &HTCondor{Runner: r}

	st, found, err := h.Query(context.Background(), 123)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 10, st.Total)
	assert.Equal(t, 4, st.Done)
	assert.Equal(t, 2, st.Running)
	assert.False(t, st.Terminal())
	assert.Equal(t, StateRunning, st.State())
}

func TestHTCondor_Query_NotInQueue(t *testing.T) {
	// condor_q prints nothing when the constraint matches no jobs
	r := &scriptedRunner{outputs: []string{""}}
	h := &HTCondor{Runner: r}

	_, found, err := h.Query(context.Background(), 123)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHTCondor_History(t *testing.T) {
	r := &scriptedRunner{outputs: []string{`[
		{"DAG_NodesTotal": 10, "DAG_NodesDone": 10, "ExitCode": 0}
	]`}}
	h := &HTCondor{Runner: r}

	st, err := h.History(context.Background(), 123)
	require.NoError(t, err)
	require.True(t, st.Terminal())
	assert.Equal(t, 0, *st.ExitCode)
	assert.Equal(t, StateCompleted, st.State())
}

func TestHTCondor_History_NoRecord(t *testing.T) {
	r := &scriptedRunner{outputs: []string{"[]"}}
	h := &HTCondor{Runner: r}

	_, err := h.History(context.Background(), 123)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTCondor_Query_BadJSON(t *testing.T) {
	r := &scriptedRunner{outputs: []string{"{not json"}}
	h := &HTCondor{Runner: r}

	_, _, err := h.Query(context.Background(), 123)
	assert.Error(t, err)
}

func TestDAGStatus_State(t *testing.T) {
	one := 1
	zero := 0
	cases := []struct {
		status DAGStatus
		want   State
	}{
		{DAGStatus{ExitCode: &zero}, StateCompleted},
		{DAGStatus{ExitCode: &one, Failed: 2}, StateFailed},
		{DAGStatus{Held: 1, Running: 3}, StateHeld},
		{DAGStatus{Running: 3}, StateRunning},
		{DAGStatus{Done: 1}, StateRunning},
		{DAGStatus{Queued: 5}, StateSubmitted},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.status.State(), "status %+v", c.status)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "held", StateHeld.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateRunning.Terminal())
}
