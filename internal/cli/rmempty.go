package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trigpipe/trigpipe/internal/merge"
)

// RmEmptyOptions holds the flags for the rmempty command.
type RmEmptyOptions struct {
	FileList string
}

// NewRmEmptyCommand creates the rmempty command: delete trigger files
// that declare zero triggers.
func NewRmEmptyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RmEmptyOptions{}

	cmd := &cobra.Command{
		Use:   "rmempty [<file-or-glob>...]",
		Short: "Delete trigger files with zero triggers",
		Long: `Count the triggers each XML file declares and delete the empty ones.
Files whose format cannot be counted are left alone. Paths come from
the arguments, from --flist, or both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRmEmpty(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.FileList, "flist", "", "file holding one trigger-file path per line")

	return cmd
}

func runRmEmpty(cmd *cobra.Command, opts *RmEmptyOptions, args []string) error {
	paths, err := expandGlobs(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad file pattern", err)
	}
	if opts.FileList != "" {
		listed, err := readFileList(opts.FileList)
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot read file list", err)
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no files given; pass paths or --flist")
	}

	examined, removed := merge.RemoveEmpty(paths, merge.XMLRowCounter{}, nil)
	fmt.Fprintf(cmd.OutOrStdout(), "examined %d file(s), removed %d empty\n", examined, removed)
	return nil
}

func readFileList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}
