package condor

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/trigpipe/trigpipe/internal/segments"
)

// WorkflowSpec collects everything needed to build one analysis
// workflow: the partitioned job windows, the parameter files the
// channels were distributed across, and the scheduler directives.
type WorkflowSpec struct {
	// Tag names the workflow; a fresh UUID-based tag is generated when
	// empty.
	Tag string

	Executable string
	Universe   string
	RunDir     string

	// Retries is the per-node RETRY count handed to the scheduler.
	Retries int

	// Windows are the batch-job time windows from the partitioner.
	Windows segments.List

	// ParameterFiles are the rendered parameter file paths; every
	// window runs once per parameter file.
	ParameterFiles []string

	// Extra classads appended to the submit description.
	Extra []Classad
}

// BuildWorkflow assembles the job descriptor and DAG for a spec: one
// node per (window, parameter file) pair. Windows are independent by
// construction, so the DAG carries no inter-node edges. The returned
// tag identifies the workflow in logs and the run-state store.
func BuildWorkflow(spec WorkflowSpec) (tag string, job JobDescriptor, dag *DAG) {
	tag = spec.Tag
	if tag == "" {
		tag = "omicron-" + uuid.NewString()
	}
	job = JobDescriptor{
		Tag:        "omicron",
		Executable: spec.Executable,
		Universe:   spec.Universe,
		Arguments:  "$(parameters) $(start) $(end)",
		LogDir:     filepath.Join(spec.RunDir, "logs"),
		Extra:      spec.Extra,
	}
	dag = &DAG{}
	subFile := filepath.Join(spec.RunDir, "condor", job.SubFileName())
	for i, w := range spec.Windows {
		for j, pf := range spec.ParameterFiles {
			dag.Nodes = append(dag.Nodes, DAGNode{
				Name:    fmt.Sprintf("omicron_w%d_p%d", i, j),
				SubFile: subFile,
				Vars: []Classad{
					{Key: "parameters", Value: pf},
					{Key: "start", Value: fmt.Sprintf("%d", w.Start)},
					{Key: "end", Value: fmt.Sprintf("%d", w.End)},
				},
				Retry: spec.Retries,
			})
		}
	}
	return tag, job, dag
}
