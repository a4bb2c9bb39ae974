package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/trigpipe/trigpipe/internal/params"
	"github.com/trigpipe/trigpipe/internal/segments"
)

// PredictOptions holds the flags for the predict command.
type PredictOptions struct {
	Chunk         int64
	Segment       int64
	Overlap       int64
	ChunksPerJob  int
	EngineVersion string
}

// NewPredictCommand creates the predict command: print the job windows
// and output file segments a span would produce, without running
// anything.
func NewPredictCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PredictOptions{}

	cmd := &cobra.Command{
		Use:           "predict <gps-start> <gps-end>",
		Short:         "Print predicted job windows and output segments for a span",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, opts, args)
		},
	}

	cmd.Flags().Int64Var(&opts.Chunk, "chunk", 64, "chunk duration in seconds")
	cmd.Flags().Int64Var(&opts.Segment, "segment", 64, "segment duration in seconds")
	cmd.Flags().Int64Var(&opts.Overlap, "overlap", 8, "overlap duration in seconds")
	cmd.Flags().IntVar(&opts.ChunksPerJob, "chunks-per-job", 1, "chunks grouped into one batch job")
	cmd.Flags().StringVar(&opts.EngineVersion, "engine-version", "v2r2", "engine version governing file naming")

	return cmd
}

func runPredict(cmd *cobra.Command, opts *PredictOptions, args []string) error {
	start, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid GPS start", err)
	}
	end, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid GPS end", err)
	}
	span, err := segments.New(start, end)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid GPS span", err)
	}
	version, err := segments.ParseVersion(opts.EngineVersion)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid engine version", err)
	}
	p := params.Parameters{
		Chunk:         opts.Chunk,
		Segment:       opts.Segment,
		Overlap:       opts.Overlap,
		EngineVersion: version,
	}
	if err := p.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid parameters", err)
	}

	windows := segments.PartitionJobs(span, p.Chunk, p.Overlap, opts.ChunksPerJob)
	files := segments.PredictOutput(span, p.Chunk, p.Segment, p.Overlap, version)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "job windows (%d):\n", len(windows))
	for _, w := range windows {
		fmt.Fprintf(out, "  %d %d\n", w.Start, w.End)
	}
	fmt.Fprintf(out, "output segments (%d):\n", len(files))
	for _, f := range files {
		fmt.Fprintf(out, "  %d %d\n", f.Start, f.End)
	}
	return nil
}
