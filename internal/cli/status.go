package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/trigpipe/trigpipe/internal/condor"
)

// StatusOptions holds the flags for the status command.
type StatusOptions struct {
	Watch  bool
	Poll   time.Duration
	Rescue string
}

// NewStatusCommand creates the status command: report on one or more
// submitted workflows by cluster ID.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{}

	cmd := &cobra.Command{
		Use:   "status <cluster-id>...",
		Short: "Report the state of submitted workflows",
		Long: `Query the scheduler for each cluster ID and print a status line.
With --watch, poll until every workflow reaches a terminal state.
With --rescue, print the newest rescue DAG for a failed workflow's
DAG file instead of querying the scheduler.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Rescue != "" {
				return runRescue(cmd, opts.Rescue)
			}
			if len(args) == 0 {
				return NewExitError(ExitCommandError, "at least one cluster ID is required")
			}
			return runStatus(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "poll until all workflows are terminal")
	cmd.Flags().DurationVar(&opts.Poll, "poll", 30*time.Second, "scheduler polling interval")
	cmd.Flags().StringVar(&opts.Rescue, "rescue", "", "print the newest rescue DAG for this DAG file")

	return cmd
}

func runRescue(cmd *cobra.Command, dagFile string) error {
	rescue, err := condor.FindRescueDAG(dagFile)
	if errors.Is(err, condor.ErrNoRescue) {
		return NewExitError(ExitFailure, fmt.Sprintf("no rescue DAG for %s", dagFile))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot look for rescue DAG", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), rescue)
	return nil
}

func runStatus(cmd *cobra.Command, opts *StatusOptions, args []string) error {
	clusters := make([]int64, len(args))
	for i, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid cluster ID %q", a), err)
		}
		clusters[i] = id
	}

	scheduler := &condor.HTCondor{}
	results := make(map[int64]condor.DAGStatus, len(clusters))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(cmd.Context())
	for _, id := range clusters {
		id := id
		g.Go(func() error {
			st, err := pollCluster(ctx, scheduler, id, opts)
			if err != nil {
				return fmt.Errorf("cluster %d: %w", id, err)
			}
			mu.Lock()
			results[id] = st
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "status query failed", err)
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i] < clusters[j] })
	anyFailed := false
	for _, id := range clusters {
		st := results[id]
		fmt.Fprintln(cmd.OutOrStdout(), formatStatus(id, st))
		if st.State() == condor.StateFailed {
			anyFailed = true
		}
	}
	if anyFailed {
		return NewExitError(ExitFailure, "one or more workflows failed")
	}
	return nil
}

func pollCluster(ctx context.Context, scheduler condor.Scheduler, id int64, opts *StatusOptions) (condor.DAGStatus, error) {
	monitor := &condor.Monitor{Scheduler: scheduler}
	if opts.Watch {
		return monitor.Wait(ctx, id, opts.Poll)
	}
	return monitor.Snapshot(ctx, id)
}

func formatStatus(id int64, st condor.DAGStatus) string {
	return fmt.Sprintf("cluster %d: %s (done %d/%d, queued %d, held %d, failed %d)",
		id, st.State(), st.Done, st.Total, st.Queued, st.Held, st.Failed)
}
