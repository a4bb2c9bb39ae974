package store

import (
	"context"
	"fmt"
	"time"

	"github.com/trigpipe/trigpipe/internal/archive"
	"github.com/trigpipe/trigpipe/internal/condor"
	"github.com/trigpipe/trigpipe/internal/segments"
)

// RecordWorkflow inserts a new workflow covering span and returns its
// row ID. The tag must be unique across runs.
func (s *Store) RecordWorkflow(ctx context.Context, tag string, span segments.Segment) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO workflows (tag, start_gps, end_gps)
		VALUES (?, ?, ?)
	`, tag, span.Start, span.End)
	if err != nil {
		return 0, fmt.Errorf("record workflow: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record workflow: %w", err)
	}
	return id, nil
}

// MarkSubmitted records the scheduler cluster ID and submission time
// and moves the workflow to the submitted state.
func (s *Store) MarkSubmitted(ctx context.Context, id, clusterID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE workflows
		SET cluster_id = ?, submitted_at = ?, state = ?
		WHERE id = ?
	`, clusterID, at.UTC().Format(time.RFC3339), condor.StateSubmitted.String(), id)
	if err != nil {
		return fmt.Errorf("mark submitted: %w", err)
	}
	return nil
}

// UpdateWorkflowState moves the workflow to state, recording the exit
// code when one is known.
func (s *Store) UpdateWorkflowState(ctx context.Context, id int64, state condor.State, exitCode *int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE workflows SET state = ?, exit_code = ? WHERE id = ?
	`, state.String(), exitCode, id)
	if err != nil {
		return fmt.Errorf("update workflow state: %w", err)
	}
	return nil
}

// RecordJobs inserts one job row per processing window, atomically.
func (s *Store) RecordJobs(ctx context.Context, workflowID int64, windows segments.List) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record jobs: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	for _, w := range windows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO jobs (workflow_id, start_gps, end_gps)
			VALUES (?, ?, ?)
		`, workflowID, w.Start, w.End); err != nil {
			return fmt.Errorf("record jobs: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record jobs: commit: %w", err)
	}
	return nil
}

// UpdateJobState moves one job to state, recording the exit code when
// one is known.
func (s *Store) UpdateJobState(ctx context.Context, jobID int64, state condor.State, exitCode *int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET state = ?, exit_code = ? WHERE id = ?
	`, state.String(), exitCode, jobID)
	if err != nil {
		return fmt.Errorf("update job state: %w", err)
	}
	return nil
}

// RecordTriggerFiles inserts trigger-file provenance rows. Duplicate
// paths are silently ignored so re-scanning a directory is idempotent.
func (s *Store) RecordTriggerFiles(ctx context.Context, files []archive.TriggerFile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record trigger files: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, f := range files {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trigger_files (channel, ext, start, duration, path)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(path) DO NOTHING
		`, f.Channel(), f.Ext, f.Start, f.Duration, f.Path); err != nil {
			return fmt.Errorf("record trigger files: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record trigger files: commit: %w", err)
	}
	return nil
}

// MarkMerged flags the given trigger-file paths as consumed by a merge.
func (s *Store) MarkMerged(ctx context.Context, paths []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mark merged: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, p := range paths {
		if _, err := tx.ExecContext(ctx, `
			UPDATE trigger_files SET merged = 1 WHERE path = ?
		`, p); err != nil {
			return fmt.Errorf("mark merged: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mark merged: commit: %w", err)
	}
	return nil
}
