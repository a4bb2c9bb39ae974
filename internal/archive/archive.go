// Package archive implements the trigger-file naming contract and the
// metric-day archive layout. Filenames are bit-exact:
//
//	{observatory}-{description}-{startGPS}-{duration}.{ext}
//
// and archived files live under
//
//	{root}/{observatory}/{description}/{metric day}/{filename}
//
// where the metric day is the first five digits of the start GPS time.
package archive

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/trigpipe/trigpipe/internal/segments"
)

// namePattern matches {obs}-{description}-{start}-{duration}.{ext};
// the extension may be compound (xml.gz).
var namePattern = regexp.MustCompile(`^([A-Z][0-9])-(.+)-([0-9]+)-([0-9]+)\.(.+)$`)

// TriggerFile identifies one output file of the analysis engine, either
// observed on disk or synthesized as a prediction.
type TriggerFile struct {
	Observatory string // e.g. "L1"
	Description string // channel/trigger-type tag, e.g. "GDS_CALIB_STRAIN_OMICRON"
	Start       int64
	Duration    int64
	Ext         string // "root", "h5", "xml", "xml.gz"
	Path        string // on-disk location, empty for predictions
}

// ErrBadName indicates a filename that does not match the naming
// contract.
type ErrBadName struct {
	Name string
}

func (e *ErrBadName) Error() string {
	return fmt.Sprintf("archive: filename %q does not match {obs}-{description}-{start}-{duration}.{ext}", e.Name)
}

// Parse extracts the trigger-file fields from a path's base name.
func Parse(path string) (TriggerFile, error) {
	m := namePattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return TriggerFile{}, &ErrBadName{Name: filepath.Base(path)}
	}
	start, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return TriggerFile{}, &ErrBadName{Name: filepath.Base(path)}
	}
	duration, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return TriggerFile{}, &ErrBadName{Name: filepath.Base(path)}
	}
	return TriggerFile{
		Observatory: m[1],
		Description: m[2],
		Start:       start,
		Duration:    duration,
		Ext:         m[5],
		Path:        path,
	}, nil
}

// Name renders the canonical filename.
func (f TriggerFile) Name() string {
	return fmt.Sprintf("%s-%s-%d-%d.%s", f.Observatory, f.Description, f.Start, f.Duration, f.Ext)
}

// Channel is the grouping key used when merging: observatory and
// description joined the way the engine names files.
func (f TriggerFile) Channel() string {
	return f.Observatory + "-" + f.Description
}

// Segment returns the time covered by the file.
func (f TriggerFile) Segment() segments.Segment {
	return segments.Segment{Start: f.Start, End: f.Start + f.Duration}
}

// MetricDay returns gps/100000, the first five digits of a 10-digit GPS
// time, used as the per-directory bucket in the archive.
func MetricDay(gps int64) int64 {
	return gps / 100000
}

// Path returns the archive location of f under root.
func Path(root string, f TriggerFile) string {
	return filepath.Join(root, f.Observatory, f.Description,
		strconv.FormatInt(MetricDay(f.Start), 10), f.Name())
}

// Archiver copies merged trigger files into the archive tree.
type Archiver struct {
	Root string
	Log  *slog.Logger
}

// Archive copies each file into its archive directory, creating
// directories as needed. Files that fail to parse or copy are logged
// and skipped; the counts of archived and skipped files are returned.
func (a *Archiver) Archive(paths []string) (archived, skipped int) {
	log := a.Log
	if log == nil {
		log = slog.Default()
	}
	for _, p := range paths {
		f, err := Parse(p)
		if err != nil {
			log.Error("skipping unparseable trigger file", "path", p, "error", err)
			skipped++
			continue
		}
		dest := Path(a.Root, f)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			log.Error("cannot create archive directory", "path", filepath.Dir(dest), "error", err)
			skipped++
			continue
		}
		if err := copyFile(p, dest); err != nil {
			log.Error("cannot archive trigger file", "src", p, "dest", dest, "error", err)
			skipped++
			continue
		}
		log.Debug("archived trigger file", "src", p, "dest", dest)
		archived++
	}
	return archived, skipped
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
