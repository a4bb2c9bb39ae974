package condor

import (
	"fmt"
	"path/filepath"
	"sort"
)

// FindRescueDAG returns the highest-numbered rescue file for a DAG,
// e.g. workflow.dag.rescue002. The scheduler writes one rescue file per
// failed attempt, numbering them consecutively; resubmitting the DAG
// picks up the newest rescue and skips completed nodes.
func FindRescueDAG(dagFile string) (string, error) {
	matches, err := filepath.Glob(dagFile + ".rescue[0-9][0-9][0-9]")
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w for %s", ErrNoRescue, dagFile)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
