package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/trigpipe/trigpipe/internal/merge"
)

// MergeOptions holds the flags for the merge command.
type MergeOptions struct {
	OutDir  string
	Strict  bool
	NoGzip  bool
	UintBug bool
}

// NewMergeCommand creates the merge command: coalesce contiguous
// trigger files into one output per run.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{}

	cmd := &cobra.Command{
		Use:   "merge <file-or-glob>...",
		Short: "Merge contiguous trigger files",
		Long: `Group trigger files by channel and extension, merge each contiguous
run into a single file under --out-dir, and report coverage gaps.
With --strict a channel with gaps fails instead of merging around them.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.OutDir, "out-dir", "o", "", "directory for merged files")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on coverage gaps instead of merging around them")
	cmd.Flags().BoolVar(&opts.NoGzip, "no-gzip", false, "leave merged XML files uncompressed")
	cmd.Flags().BoolVar(&opts.UintBug, "uint-bug", false, "rewrite uint_8s column types before merging XML")
	cmd.MarkFlagRequired("out-dir")

	return cmd
}

func runMerge(cmd *cobra.Command, opts *MergeOptions, args []string) error {
	paths, err := expandGlobs(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad file pattern", err)
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no files match the given patterns")
	}

	reconciler := &merge.Reconciler{
		OutDir:   opts.OutDir,
		SkipGzip: opts.NoGzip,
		UintBug:  opts.UintBug,
	}
	merged, failed, err := reconciler.MergeContiguous(cmd.Context(), paths, opts.Strict)
	var derr *merge.DiscontiguousMergeError
	if errors.As(err, &derr) {
		return WrapExitError(ExitFailure, "strict merge refused", err)
	}
	var oerr *merge.OverlappingFilesError
	if errors.As(err, &oerr) {
		return WrapExitError(ExitFailure, "refusing to merge", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "merge failed", err)
	}

	for _, m := range merged {
		fmt.Fprintln(cmd.OutOrStdout(), m)
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d merge run(s) failed", failed))
	}
	return nil
}

// expandGlobs resolves each argument as a glob pattern. A literal path
// is its own single match; patterns with no matches contribute nothing.
func expandGlobs(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		matches, err := filepath.Glob(a)
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	return out, nil
}
