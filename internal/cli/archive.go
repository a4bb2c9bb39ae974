package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trigpipe/trigpipe/internal/archive"
)

// ArchiveOptions holds the flags for the archive command.
type ArchiveOptions struct {
	Root string
}

// NewArchiveCommand creates the archive command: file merged trigger
// files into the metric-day archive tree.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArchiveOptions{}

	cmd := &cobra.Command{
		Use:   "archive <file-or-glob>...",
		Short: "Copy trigger files into the archive tree",
		Long: `Copy each trigger file to
{root}/{observatory}/{description}/{metric day}/{filename},
creating directories as needed. Unparseable filenames are skipped.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", "", "archive root directory")
	cmd.MarkFlagRequired("root")

	return cmd
}

func runArchive(opts *ArchiveOptions, args []string) error {
	paths, err := expandGlobs(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad file pattern", err)
	}
	archiver := &archive.Archiver{Root: opts.Root}
	archived, skipped := archiver.Archive(paths)
	if skipped > 0 {
		return NewExitError(ExitFailure,
			fmt.Sprintf("archived %d file(s), %d skipped", archived, skipped))
	}
	return nil
}
