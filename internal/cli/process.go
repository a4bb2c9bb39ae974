package cli

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/trigpipe/trigpipe/internal/archive"
	"github.com/trigpipe/trigpipe/internal/condor"
	"github.com/trigpipe/trigpipe/internal/config"
	"github.com/trigpipe/trigpipe/internal/merge"
	"github.com/trigpipe/trigpipe/internal/params"
	"github.com/trigpipe/trigpipe/internal/segments"
	"github.com/trigpipe/trigpipe/internal/store"
)

// ProcessOptions holds the flags for the process command.
type ProcessOptions struct {
	ConfigPath string
	GPSStart   int64
	StartSet   bool // --gps-start was given; 0 is a valid GPS start
	GPSEnd     int64
	NoSubmit   bool
	Poll       time.Duration
}

// NewProcessCommand creates the process command: partition a GPS span
// into batch jobs, submit them as a DAG, wait for completion, then
// merge and archive the resulting trigger files.
func NewProcessCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProcessOptions{}

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the full batch processing pipeline for a GPS span",
		Long: `Partition [gps-start, gps-end) into batch-job windows, render the
engine parameter files, build and submit an HTCondor DAG, wait for it
to finish, then merge contiguous trigger files and archive them.

When --gps-start is omitted the span resumes from the end of the last
completed workflow recorded in the database.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.StartSet = cmd.Flags().Changed("gps-start")
			return runProcess(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "run configuration file")
	cmd.Flags().Int64Var(&opts.GPSStart, "gps-start", 0, "GPS start of the span (defaults to the stored checkpoint)")
	cmd.Flags().Int64Var(&opts.GPSEnd, "gps-end", 0, "GPS end of the span")
	cmd.Flags().BoolVar(&opts.NoSubmit, "no-submit", false, "write the workflow files but do not submit")
	cmd.Flags().DurationVar(&opts.Poll, "poll", 30*time.Second, "scheduler polling interval")
	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("gps-end")

	return cmd
}

func runProcess(cmd *cobra.Command, opts *ProcessOptions) error {
	ctx := cmd.Context()
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot load configuration", err)
	}
	p, err := cfg.PartitionParameters()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid parameters", err)
	}

	var st *store.Store
	if cfg.Database != "" {
		st, err = store.Open(cfg.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot open database", err)
		}
		defer st.Close()
	}

	span, err := resolveSpan(ctx, opts, st)
	if err != nil {
		return err
	}
	if span.IsEmpty() {
		slog.Info("empty span, nothing to process")
		return nil
	}
	slog.Info("processing span", "start", span.Start, "end", span.End)

	windows := segments.PartitionJobs(span, p.Chunk, p.Overlap, cfg.Parameters.ChunksPerJob)
	slog.Info("partitioned span", "windows", len(windows))

	runDir := cfg.RunDir
	triggerDir := filepath.Join(runDir, "triggers")
	for _, d := range []string{triggerDir, filepath.Join(runDir, "logs"), filepath.Join(runDir, "merge")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return WrapExitError(ExitCommandError, "cannot create run directory", err)
		}
	}
	if err := segments.WriteFile(filepath.Join(runDir, "segments.txt"), segments.List{span}); err != nil {
		return WrapExitError(ExitCommandError, "cannot write segment list", err)
	}

	files := params.Build(p, params.RenderOptions{
		CacheFile:    cfg.Data.CacheFile,
		TriggerDir:   triggerDir,
		ChannelLimit: cfg.Data.ChannelLimit,
	})
	paramPaths, err := params.WriteAll(filepath.Join(runDir, "parameters"), files)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot write parameter files", err)
	}
	slog.Info("wrote parameter files", "count", len(paramPaths))

	var extra []condor.Classad
	if cfg.Scheduler.AccountingGroup != "" {
		extra = append(extra, condor.Classad{Key: "accounting_group", Value: cfg.Scheduler.AccountingGroup})
	}
	tag, job, dag := condor.BuildWorkflow(condor.WorkflowSpec{
		Executable:     cfg.Executables.Omicron,
		Universe:       cfg.Scheduler.Universe,
		RunDir:         runDir,
		Retries:        cfg.Scheduler.Retries,
		Windows:        windows,
		ParameterFiles: paramPaths,
		Extra:          extra,
	})
	dagPath, err := condor.WriteFiles(filepath.Join(runDir, "condor"), job, dag, tag+".dag")
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot write workflow files", err)
	}
	slog.Info("built workflow", "tag", tag, "nodes", len(dag.Nodes), "dag", dagPath)

	var workflowID int64
	if st != nil {
		workflowID, err = st.RecordWorkflow(ctx, tag, span)
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot record workflow", err)
		}
		if err := st.RecordJobs(ctx, workflowID, windows); err != nil {
			return WrapExitError(ExitCommandError, "cannot record jobs", err)
		}
	}

	if opts.NoSubmit {
		fmt.Fprintln(cmd.OutOrStdout(), dagPath)
		return nil
	}

	scheduler := &condor.HTCondor{}
	status, err := submitAndWait(ctx, scheduler, st, workflowID, dagPath, opts.Poll)
	if err != nil {
		return err
	}
	if status.State() == condor.StateFailed {
		if st != nil {
			if err := st.UpdateWorkflowState(ctx, workflowID, condor.StateFailed, status.ExitCode); err != nil {
				slog.Error("cannot update workflow state", "error", err)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("workflow failed: %d of %d nodes failed", status.Failed, status.Total))
	}
	if st != nil {
		if err := st.UpdateWorkflowState(ctx, workflowID, condor.StateCompleted, status.ExitCode); err != nil {
			return WrapExitError(ExitCommandError, "cannot update workflow state", err)
		}
	}
	slog.Info("workflow completed", "tag", tag, "done", status.Done, "total", status.Total)

	return reconcile(ctx, cfg, p, st, span, triggerDir)
}

// resolveSpan builds the processing span from flags, resuming from the
// stored checkpoint when --gps-start is omitted.
func resolveSpan(ctx context.Context, opts *ProcessOptions, st *store.Store) (segments.Segment, error) {
	start := opts.GPSStart
	if !opts.StartSet {
		if st == nil {
			return segments.Segment{}, NewExitError(ExitCommandError, "--gps-start required when no database is configured")
		}
		last, ok, err := st.LastCompletedSpan(ctx)
		if err != nil {
			return segments.Segment{}, WrapExitError(ExitCommandError, "cannot read checkpoint", err)
		}
		if !ok {
			return segments.Segment{}, NewExitError(ExitCommandError, "--gps-start required: no completed workflow to resume from")
		}
		start = last.End
		slog.Info("resuming from checkpoint", "start", start)
	}
	span, err := segments.New(start, opts.GPSEnd)
	if err != nil {
		return segments.Segment{}, WrapExitError(ExitCommandError, "invalid GPS span", err)
	}
	return span, nil
}

// submitAndWait submits the DAG and waits for a terminal status. A
// failed workflow with a rescue DAG on disk is resubmitted exactly
// once, without force: DAGMan picks up the newest rescue on a plain
// resubmission and skips completed nodes, while force would discard it
// and rerun the whole DAG.
func submitAndWait(ctx context.Context, scheduler condor.Scheduler, st *store.Store, workflowID int64, dagPath string, poll time.Duration) (condor.DAGStatus, error) {
	monitor := &condor.Monitor{Scheduler: scheduler}

	clusterID, err := scheduler.Submit(ctx, dagPath, false)
	if err != nil {
		return condor.DAGStatus{}, WrapExitError(ExitFailure, "submission failed", err)
	}
	slog.Info("submitted workflow", "cluster", clusterID)
	markSubmitted(ctx, st, workflowID, clusterID)

	status, err := monitor.Wait(ctx, clusterID, poll)
	if err != nil {
		return condor.DAGStatus{}, WrapExitError(ExitFailure, "lost track of workflow", err)
	}
	if status.State() != condor.StateFailed {
		return status, nil
	}

	if _, rerr := condor.FindRescueDAG(dagPath); rerr != nil {
		return status, nil
	}
	slog.Info("workflow failed, resubmitting from rescue DAG", "cluster", clusterID)
	clusterID, err = scheduler.Submit(ctx, dagPath, false)
	if err != nil {
		return condor.DAGStatus{}, WrapExitError(ExitFailure, "rescue submission failed", err)
	}
	markSubmitted(ctx, st, workflowID, clusterID)
	status, err = monitor.Wait(ctx, clusterID, poll)
	if err != nil {
		return condor.DAGStatus{}, WrapExitError(ExitFailure, "lost track of workflow", err)
	}
	return status, nil
}

// markSubmitted records a submission in the store; recording failures
// are logged, not fatal, since the workflow is already running.
func markSubmitted(ctx context.Context, st *store.Store, workflowID, clusterID int64) {
	if st == nil {
		return
	}
	if err := st.MarkSubmitted(ctx, workflowID, clusterID, time.Now()); err != nil {
		slog.Error("cannot record submission", "error", err)
	}
}

// reconcile merges the trigger files the workflow produced, checks the
// merged coverage against the prediction, and archives the results.
func reconcile(ctx context.Context, cfg *config.Config, p params.Parameters, st *store.Store, span segments.Segment, triggerDir string) error {
	paths, err := collectTriggerFiles(triggerDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot scan trigger directory", err)
	}
	if len(paths) == 0 {
		slog.Warn("no trigger files produced", "dir", triggerDir)
		return NewExitError(ExitFailure, "workflow completed but produced no trigger files")
	}

	reconciler := &merge.Reconciler{
		OutDir: filepath.Join(cfg.RunDir, "merge"),
		Tools:  cfg.MergeTools(),
	}
	merged, failed, err := reconciler.MergeContiguous(ctx, paths, false)
	if err != nil {
		return WrapExitError(ExitFailure, "merge failed", err)
	}

	if st != nil {
		var files []archive.TriggerFile
		for _, path := range paths {
			if f, perr := archive.Parse(path); perr == nil {
				files = append(files, f)
			}
		}
		if err := st.RecordTriggerFiles(ctx, files); err != nil {
			slog.Error("cannot record trigger files", "error", err)
		} else if err := st.MarkMerged(ctx, paths); err != nil {
			slog.Error("cannot mark trigger files merged", "error", err)
		}
	}

	expected := segments.PredictOutput(span, p.Chunk, p.Segment, p.Overlap, p.EngineVersion)
	var actual segments.List
	for _, m := range merged {
		if f, perr := archive.Parse(m); perr == nil {
			actual = append(actual, f.Segment())
		}
	}
	if gaps := merge.DetectGaps(expected, actual); len(gaps) > 0 {
		slog.Warn("merged coverage has gaps", "gaps", fmt.Sprint(gaps))
	}

	if cfg.ArchiveRoot != "" {
		archiver := &archive.Archiver{Root: cfg.ArchiveRoot}
		archived, skipped := archiver.Archive(merged)
		slog.Info("archived trigger files", "archived", archived, "skipped", skipped)
		if skipped > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) failed to archive", skipped))
		}
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d merge run(s) failed", failed))
	}
	return nil
}

// collectTriggerFiles walks dir gathering regular files; the engine
// nests output under per-channel subdirectories.
func collectTriggerFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
