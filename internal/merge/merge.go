package merge

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/trigpipe/trigpipe/internal/archive"
	"github.com/trigpipe/trigpipe/internal/segments"
)

// legacyFormatSignature is the exact stderr text the XML merge tool
// emits for files written in the old ilwd:char table format. The
// string match is a contract with the tool's undocumented behavior and
// is preserved verbatim; do not generalize it.
var legacyFormatSignature = []byte("invalid type 'ilwd:char'")

// legacyCompatFlag is retried exactly once on the legacy signature.
const legacyCompatFlag = "--ilwdchar-compat"

// Runner executes a merge tool, returning its stderr. A non-zero exit
// is reported as a *ProcessError.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner invokes tools through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ProcessError{
				Cmd:      name,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		return fmt.Errorf("merge: %s: %w", name, err)
	}
	return nil
}

// Run is a maximal contiguous sequence of trigger files for one
// (channel, extension) group.
type Run struct {
	Channel string
	Ext     string
	Files   []archive.TriggerFile
}

// Span returns the time covered by the run.
func (r Run) Span() segments.Segment {
	if len(r.Files) == 0 {
		return segments.Segment{}
	}
	last := r.Files[len(r.Files)-1]
	return segments.Segment{Start: r.Files[0].Start, End: last.Start + last.Duration}
}

// GroupContiguous sorts files by (channel, extension, start) and
// splits each group into maximal runs where every file starts exactly
// where the previous one ends.
func GroupContiguous(files []archive.TriggerFile) []Run {
	sorted := append([]archive.TriggerFile(nil), files...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Channel() != b.Channel() {
			return a.Channel() < b.Channel()
		}
		if a.Ext != b.Ext {
			return a.Ext < b.Ext
		}
		return a.Start < b.Start
	})

	var out []Run
	for _, f := range sorted {
		if n := len(out); n > 0 {
			prev := &out[n-1]
			if prev.Channel == f.Channel() && prev.Ext == f.Ext &&
				prev.Span().End == f.Start {
				prev.Files = append(prev.Files, f)
				continue
			}
		}
		out = append(out, Run{Channel: f.Channel(), Ext: f.Ext, Files: []archive.TriggerFile{f}})
	}
	return out
}

// DetectGaps returns the expected coverage not present in actual;
// an empty result means full coverage.
func DetectGaps(expected, actual segments.List) segments.List {
	return segments.Coalesce(expected).Diff(segments.Coalesce(actual))
}

// Reconciler merges contiguous trigger files into coalesced outputs.
type Reconciler struct {
	OutDir string
	Tools  Tools
	Runner Runner
	Log    *slog.Logger

	// SkipGzip leaves merged XML files uncompressed.
	SkipGzip bool

	// UintBug rewrites the uint_8s column type the old engine wrote
	// into valid int_8u before merging XML files.
	UintBug bool
}

func (r *Reconciler) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

func (r *Reconciler) runner() Runner {
	if r.Runner != nil {
		return r.Runner
	}
	return ExecRunner{}
}

func (r *Reconciler) tools() Tools {
	t := r.Tools
	if t.RootMerge == "" {
		t.RootMerge = DefaultTools.RootMerge
	}
	if t.HDF5Merge == "" {
		t.HDF5Merge = DefaultTools.HDF5Merge
	}
	if t.LigolwAdd == "" {
		t.LigolwAdd = DefaultTools.LigolwAdd
	}
	return t
}

// MergeContiguous groups the given trigger files by (channel,
// extension), merges each contiguous run into one output file under
// OutDir, and returns the merged paths plus the count of runs that
// failed to merge. Unparseable filenames are logged and skipped.
//
// In strict mode a group whose runs do not form a single contiguous
// span fails with DiscontiguousMergeError before any merging; in
// non-strict mode the gaps are logged and each run merges on its own.
func (r *Reconciler) MergeContiguous(ctx context.Context, paths []string, strict bool) (merged []string, failed int, err error) {
	var files []archive.TriggerFile
	for _, p := range paths {
		f, perr := archive.Parse(p)
		if perr != nil {
			r.log().Error("skipping unparseable trigger file", "path", p, "error", perr)
			continue
		}
		files = append(files, f)
	}
	if oerr := checkOverlaps(files); oerr != nil {
		return nil, 0, oerr
	}
	runs := GroupContiguous(files)

	if strict {
		if derr := r.checkContiguous(runs); derr != nil {
			return nil, 0, derr
		}
	} else {
		r.logGaps(runs)
	}

	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return nil, 0, err
	}
	for _, run := range runs {
		out, merr := r.mergeRun(ctx, run)
		if merr != nil {
			r.log().Error("merge failed", "channel", run.Channel, "ext", run.Ext,
				"span", run.Span(), "error", merr)
			failed++
			continue
		}
		merged = append(merged, out)
	}
	return merged, failed, nil
}

// checkOverlaps rejects file sets where two files of the same
// (channel, extension) group claim overlapping time.
func checkOverlaps(files []archive.TriggerFile) error {
	groups := map[string][]segments.List{}
	names := map[string]archive.TriggerFile{}
	for _, f := range files {
		key := f.Channel() + "." + f.Ext
		groups[key] = append(groups[key], segments.List{f.Segment()})
		names[key] = f
	}
	for key, lists := range groups {
		if ov := segments.CacheOverlaps(lists...); len(ov) > 0 {
			f := names[key]
			return &OverlappingFilesError{Channel: f.Channel(), Ext: f.Ext, Overlaps: ov}
		}
	}
	return nil
}

// checkContiguous fails on the first (channel, extension) group with
// more than one run.
func (r *Reconciler) checkContiguous(runs []Run) error {
	coverage := map[string]segments.List{}
	for _, run := range runs {
		key := run.Channel + "." + run.Ext
		coverage[key] = append(coverage[key], run.Span())
	}
	for _, run := range runs {
		key := run.Channel + "." + run.Ext
		spans := coverage[key]
		if len(segments.Coalesce(spans)) > 1 {
			return &DiscontiguousMergeError{
				Channel: run.Channel,
				Ext:     run.Ext,
				Gaps:    segments.List{spans.Span()}.Diff(spans),
			}
		}
	}
	return nil
}

func (r *Reconciler) logGaps(runs []Run) {
	seen := map[string]segments.List{}
	for _, run := range runs {
		key := run.Channel + "." + run.Ext
		seen[key] = append(seen[key], run.Span())
	}
	for key, spans := range seen {
		if gaps := (segments.List{spans.Span()}).Diff(spans); len(gaps) > 0 {
			r.log().Warn("merging around coverage gaps", "group", key, "gaps", fmt.Sprint(gaps))
		}
	}
}

// mergeRun coalesces one contiguous run into a single output file
// named {channel}-{start}-{duration}.{ext}. A singleton run is copied,
// not merged. XML output is gzip-compressed unless SkipGzip.
func (r *Reconciler) mergeRun(ctx context.Context, run Run) (string, error) {
	span := run.Span()
	outPath := filepath.Join(r.OutDir,
		fmt.Sprintf("%s-%d-%d.%s", run.Channel, span.Start, span.Duration(), run.Ext))

	format, err := FormatForExtension(run.Ext)
	if err != nil {
		return "", err
	}

	if len(run.Files) == 1 {
		src := run.Files[0].Path
		if src != outPath {
			if err := copyFile(src, outPath); err != nil {
				return "", err
			}
			r.log().Info("copied singleton trigger file", "dest", outPath)
		}
		return r.compress(format, outPath)
	}

	inputs := make([]string, len(run.Files))
	for i, f := range run.Files {
		inputs[i] = f.Path
	}

	if format == FormatXML && r.UintBug {
		for _, in := range inputs {
			if err := fixUintBug(in); err != nil {
				return "", err
			}
		}
	}

	tool := format.command(r.tools())
	r.log().Info("merging trigger files", "count", len(inputs), "ext", run.Ext, "dest", outPath)
	err = r.runner().Run(ctx, tool, format.args(inputs, outPath)...)
	if err != nil && format == FormatXML && isLegacyFormatError(err) {
		// retry exactly once with the compatibility flag
		r.log().Info("retrying merge with legacy format compatibility", "dest", outPath)
		err = r.runner().Run(ctx, tool, format.args(inputs, outPath, legacyCompatFlag)...)
	}
	if err != nil {
		return "", err
	}
	return r.compress(format, outPath)
}

// compress gzips XML output unless SkipGzip; singleton copies and
// multi-file merges get the same treatment.
func (r *Reconciler) compress(format Format, outPath string) (string, error) {
	if format != FormatXML || r.SkipGzip {
		return outPath, nil
	}
	gz, err := gzipFile(outPath)
	if err != nil {
		return "", err
	}
	r.log().Info("compressed merged file", "dest", gz)
	return gz, nil
}

// isLegacyFormatError matches the exact legacy-format signature with
// exit code 1, per the tool's observed behavior.
func isLegacyFormatError(err error) bool {
	var perr *ProcessError
	if !errors.As(err, &perr) {
		return false
	}
	return perr.ExitCode == 1 && bytes.Contains([]byte(perr.Stderr), legacyFormatSignature)
}

// fixUintBug rewrites uint_8s column types to int_8u in place.
func fixUintBug(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fixed := bytes.ReplaceAll(data, []byte("uint_8s"), []byte("int_8u"))
	if bytes.Equal(fixed, data) {
		return nil
	}
	return os.WriteFile(path, fixed, 0o644)
}

func gzipFile(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()
	out, err := os.Create(path + ".gz")
	if err != nil {
		return "", err
	}
	zw, _ := gzip.NewWriterLevel(out, gzip.BestCompression)
	if _, err := io.Copy(zw, in); err != nil {
		out.Close()
		return "", err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil {
		return "", err
	}
	return path + ".gz", nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
