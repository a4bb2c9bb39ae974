package condor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// logTag is interpolated by the scheduler into per-process log names.
const logTag = "$(cluster)-$(process)"

// Classad is one key = value line of a submit description.
type Classad struct {
	Key   string
	Value string
}

// JobDescriptor is an immutable description of one job shape within a
// workflow: the executable, its argument template, and where its logs
// go. There is no mutable wrapper around the scheduler's own job
// object; the descriptor renders to submit-file text and is handed to
// the scheduler as a file.
type JobDescriptor struct {
	Tag        string // base name for the submit file and logs
	Executable string
	Universe   string // "vanilla" when empty
	Arguments  string // may reference DAG VARS like $(start)
	LogDir     string
	Extra      []Classad // appended verbatim, in order
}

// SubFileName returns the submit file name for this descriptor.
func (d JobDescriptor) SubFileName() string {
	return d.Tag + ".sub"
}

// Render produces the submit-file text.
func (d JobDescriptor) Render() string {
	var b strings.Builder
	universe := d.Universe
	if universe == "" {
		universe = "vanilla"
	}
	fmt.Fprintf(&b, "universe = %s\n", universe)
	fmt.Fprintf(&b, "executable = %s\n", d.Executable)
	if d.Arguments != "" {
		fmt.Fprintf(&b, "arguments = \" %s\"\n", d.Arguments)
	}
	fmt.Fprintf(&b, "getenv = True\n")
	if d.LogDir != "" {
		fmt.Fprintf(&b, "log = %s\n", filepath.Join(d.LogDir, d.Tag+"-"+logTag+".log"))
		fmt.Fprintf(&b, "error = %s\n", filepath.Join(d.LogDir, d.Tag+"-"+logTag+".err"))
		fmt.Fprintf(&b, "output = %s\n", filepath.Join(d.LogDir, d.Tag+"-"+logTag+".out"))
	}
	for _, c := range d.Extra {
		fmt.Fprintf(&b, "%s = %s\n", c.Key, c.Value)
	}
	b.WriteString("queue 1\n")
	return b.String()
}

// DAGNode is one node of a DAG: a name, the submit file it runs, its
// VARS bindings, and how many times the scheduler retries it.
type DAGNode struct {
	Name    string
	SubFile string
	Vars    []Classad
	Retry   int
}

// Edge is a PARENT -> CHILD dependency between two nodes.
type Edge struct {
	Parent string
	Child  string
}

// DAG is an immutable workflow descriptor: nodes plus dependencies.
type DAG struct {
	Nodes []DAGNode
	Edges []Edge
}

// Render produces the DAG-file text: JOB, VARS and RETRY lines per
// node, then PARENT/CHILD lines.
func (d *DAG) Render() string {
	var b strings.Builder
	for _, n := range d.Nodes {
		fmt.Fprintf(&b, "JOB %s %s\n", n.Name, n.SubFile)
		if len(n.Vars) > 0 {
			fmt.Fprintf(&b, "VARS %s", n.Name)
			for _, v := range n.Vars {
				fmt.Fprintf(&b, " %s=\"%s\"", v.Key, v.Value)
			}
			b.WriteString("\n")
		}
		if n.Retry > 0 {
			fmt.Fprintf(&b, "RETRY %s %d\n", n.Name, n.Retry)
		}
	}
	for _, e := range d.Edges {
		fmt.Fprintf(&b, "PARENT %s CHILD %s\n", e.Parent, e.Child)
	}
	return b.String()
}

// WriteFiles writes the submit file and the DAG file under dir,
// creating it as needed, and returns the DAG file path for submission.
func WriteFiles(dir string, job JobDescriptor, dag *DAG, dagName string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	subPath := filepath.Join(dir, job.SubFileName())
	if err := os.WriteFile(subPath, []byte(job.Render()), 0o644); err != nil {
		return "", err
	}
	dagPath := filepath.Join(dir, dagName)
	if err := os.WriteFile(dagPath, []byte(dag.Render()), 0o644); err != nil {
		return "", err
	}
	return dagPath, nil
}
