package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigpipe/trigpipe/internal/archive"
	"github.com/trigpipe/trigpipe/internal/condor"
	"github.com/trigpipe/trigpipe/internal/segments"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "trigpipe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trigpipe.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, s2.Close())
}

func TestWorkflowLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.RecordWorkflow(ctx, "omicron-abc", segments.Segment{Start: 1000, End: 2000})
	require.NoError(t, err)

	w, err := s.GetWorkflow(ctx, "omicron-abc")
	require.NoError(t, err)
	assert.Equal(t, id, w.ID)
	assert.Equal(t, segments.Segment{Start: 1000, End: 2000}, w.Span)
	assert.Equal(t, condor.StateUnsubmitted, w.State)
	assert.True(t, w.SubmittedAt.IsZero())
	assert.Nil(t, w.ExitCode)

	submitted := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkSubmitted(ctx, id, 4242, submitted))

	code := 0
	require.NoError(t, s.UpdateWorkflowState(ctx, id, condor.StateCompleted, &code))

	w, err = s.GetWorkflow(ctx, "omicron-abc")
	require.NoError(t, err)
	assert.Equal(t, int64(4242), w.ClusterID)
	assert.Equal(t, submitted, w.SubmittedAt)
	assert.Equal(t, condor.StateCompleted, w.State)
	require.NotNil(t, w.ExitCode)
	assert.Zero(t, *w.ExitCode)
}

func TestGetWorkflow_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetWorkflow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateTagRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.RecordWorkflow(ctx, "omicron-abc", segments.Segment{Start: 0, End: 10})
	require.NoError(t, err)
	_, err = s.RecordWorkflow(ctx, "omicron-abc", segments.Segment{Start: 10, End: 20})
	assert.Error(t, err)
}

func TestListWorkflows_MostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.RecordWorkflow(ctx, "first", segments.Segment{Start: 0, End: 10})
	require.NoError(t, err)
	_, err = s.RecordWorkflow(ctx, "second", segments.Segment{Start: 10, End: 20})
	require.NoError(t, err)

	ws, err := s.ListWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, ws, 2)
	assert.Equal(t, "second", ws[0].Tag)
	assert.Equal(t, "first", ws[1].Tag)
}

func TestJobs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.RecordWorkflow(ctx, "omicron-abc", segments.Segment{Start: 0, End: 1000})
	require.NoError(t, err)

	windows := segments.List{{Start: 0, End: 288}, {Start: 280, End: 568}, {Start: 560, End: 848}, {Start: 840, End: 1000}}
	require.NoError(t, s.RecordJobs(ctx, id, windows))

	jobs, err := s.ListJobs(ctx, id)
	require.NoError(t, err)
	require.Len(t, jobs, 4)
	for i, j := range jobs {
		assert.Equal(t, windows[i], j.Span)
		assert.Equal(t, condor.StateUnsubmitted, j.State)
	}

	code := 1
	require.NoError(t, s.UpdateJobState(ctx, jobs[0].ID, condor.StateFailed, &code))
	jobs, err = s.ListJobs(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, condor.StateFailed, jobs[0].State)
	require.NotNil(t, jobs[0].ExitCode)
	assert.Equal(t, 1, *jobs[0].ExitCode)
}

func TestTriggerFiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	files := []archive.TriggerFile{
		{Observatory: "L1", Description: "A_OMICRON", Start: 0, Duration: 60, Ext: "root", Path: "/t/L1-A_OMICRON-0-60.root"},
		{Observatory: "L1", Description: "A_OMICRON", Start: 60, Duration: 40, Ext: "root", Path: "/t/L1-A_OMICRON-60-40.root"},
	}
	require.NoError(t, s.RecordTriggerFiles(ctx, files))
	// re-recording the same paths is a no-op
	require.NoError(t, s.RecordTriggerFiles(ctx, files))

	unmerged, err := s.ListUnmerged(ctx)
	require.NoError(t, err)
	require.Len(t, unmerged, 2)
	assert.Equal(t, int64(0), unmerged[0].Start)

	require.NoError(t, s.MarkMerged(ctx, []string{files[0].Path}))
	unmerged, err = s.ListUnmerged(ctx)
	require.NoError(t, err)
	require.Len(t, unmerged, 1)
	assert.Equal(t, int64(60), unmerged[0].Start)
}

func TestLastCompletedSpan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.LastCompletedSpan(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	a, err := s.RecordWorkflow(ctx, "a", segments.Segment{Start: 0, End: 1000})
	require.NoError(t, err)
	b, err := s.RecordWorkflow(ctx, "b", segments.Segment{Start: 1000, End: 2000})
	require.NoError(t, err)

	require.NoError(t, s.UpdateWorkflowState(ctx, a, condor.StateCompleted, nil))
	// b failed, so its span does not advance the checkpoint
	require.NoError(t, s.UpdateWorkflowState(ctx, b, condor.StateFailed, nil))

	span, ok, err := s.LastCompletedSpan(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, segments.Segment{Start: 0, End: 1000}, span)
}
