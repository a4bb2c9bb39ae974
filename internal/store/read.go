package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trigpipe/trigpipe/internal/archive"
	"github.com/trigpipe/trigpipe/internal/condor"
	"github.com/trigpipe/trigpipe/internal/segments"
)

// ErrNotFound indicates a record absent from the store.
var ErrNotFound = errors.New("store: not found")

// Workflow is one recorded processing run.
type Workflow struct {
	ID          int64
	Tag         string
	ClusterID   int64
	Span        segments.Segment
	State       condor.State
	SubmittedAt time.Time // zero when never submitted
	ExitCode    *int
}

// Job is one processing window of a workflow.
type Job struct {
	ID         int64
	WorkflowID int64
	Span       segments.Segment
	State      condor.State
	ExitCode   *int
}

func scanWorkflow(row interface{ Scan(...any) error }) (Workflow, error) {
	var (
		w           Workflow
		state       string
		submittedAt sql.NullString
		exitCode    sql.NullInt64
	)
	err := row.Scan(&w.ID, &w.Tag, &w.ClusterID, &w.Span.Start, &w.Span.End,
		&state, &submittedAt, &exitCode)
	if err != nil {
		return Workflow{}, err
	}
	w.State, _ = condor.ParseState(state)
	if submittedAt.Valid {
		if t, perr := time.Parse(time.RFC3339, submittedAt.String); perr == nil {
			w.SubmittedAt = t
		}
	}
	if exitCode.Valid {
		code := int(exitCode.Int64)
		w.ExitCode = &code
	}
	return w, nil
}

const workflowColumns = "id, tag, cluster_id, start_gps, end_gps, state, submitted_at, exit_code"

// GetWorkflow looks up one workflow by tag.
func (s *Store) GetWorkflow(ctx context.Context, tag string) (Workflow, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+workflowColumns+" FROM workflows WHERE tag = ?", tag)
	w, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Workflow{}, fmt.Errorf("get workflow %q: %w", tag, ErrNotFound)
	}
	if err != nil {
		return Workflow{}, fmt.Errorf("get workflow %q: %w", tag, err)
	}
	return w, nil
}

// ListWorkflows returns all workflows, most recently created first.
func (s *Store) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+workflowColumns+" FROM workflows ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var out []Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("list workflows: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return out, nil
}

// ListJobs returns the jobs of one workflow in window order.
func (s *Store) ListJobs(ctx context.Context, workflowID int64) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workflow_id, start_gps, end_gps, state, exit_code
		FROM jobs WHERE workflow_id = ? ORDER BY start_gps
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var (
			j        Job
			state    string
			exitCode sql.NullInt64
		)
		if err := rows.Scan(&j.ID, &j.WorkflowID, &j.Span.Start, &j.Span.End,
			&state, &exitCode); err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		j.State, _ = condor.ParseState(state)
		if exitCode.Valid {
			code := int(exitCode.Int64)
			j.ExitCode = &code
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return out, nil
}

// ListUnmerged returns the recorded trigger files not yet consumed by
// a merge, in start order.
func (s *Store) ListUnmerged(ctx context.Context) ([]archive.TriggerFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path FROM trigger_files WHERE merged = 0 ORDER BY channel, ext, start
	`)
	if err != nil {
		return nil, fmt.Errorf("list unmerged: %w", err)
	}
	defer rows.Close()

	var out []archive.TriggerFile
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("list unmerged: %w", err)
		}
		f, perr := archive.Parse(path)
		if perr != nil {
			continue
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unmerged: %w", err)
	}
	return out, nil
}

// LastCompletedSpan returns the span of the most recently completed
// workflow. The second return is false when no workflow has completed.
func (s *Store) LastCompletedSpan(ctx context.Context) (segments.Segment, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT start_gps, end_gps FROM workflows
		WHERE state = ? ORDER BY end_gps DESC LIMIT 1
	`, condor.StateCompleted.String())

	var span segments.Segment
	err := row.Scan(&span.Start, &span.End)
	if errors.Is(err, sql.ErrNoRows) {
		return segments.Segment{}, false, nil
	}
	if err != nil {
		return segments.Segment{}, false, fmt.Errorf("last completed span: %w", err)
	}
	return span, true, nil
}
