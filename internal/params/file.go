package params

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one whitespace-delimited record of a parameters file:
// a group header, a key, and the remainder of the line as the value.
type Entry struct {
	Group string
	Key   string
	Value string
}

// File is an in-memory parameters file: ordered entries plus the
// channel list (one DATA CHANNELS record per channel). Write then Read
// reproduces the same entries and channels.
type File struct {
	Entries  []Entry
	Channels []string
}

// Lookup returns the value of the first entry matching group and key.
func (f *File) Lookup(group, key string) (string, bool) {
	for _, e := range f.Entries {
		if e.Group == group && e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Write renders the file in the engine's format: group and key columns
// padded to fixed widths, one blank line between groups, channel
// records last.
func (f *File) Write(w io.Writer) error {
	group := ""
	for _, e := range f.Entries {
		if group != "" && e.Group != group {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		group = e.Group
		if _, err := fmt.Fprintf(w, "%-10s %-16s %s\n", e.Group, e.Key, e.Value); err != nil {
			return err
		}
	}
	if len(f.Entries) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	for _, c := range f.Channels {
		if _, err := fmt.Fprintf(w, "%-10s %-16s %s\n", "DATA", "CHANNELS", c); err != nil {
			return err
		}
	}
	return nil
}

// Read parses a parameters file. Values keep internal single spacing;
// the column padding written by Write is not significant.
func Read(r io.Reader) (*File, error) {
	f := &File{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 3 {
			return nil, fmt.Errorf("params: line %d: expected GROUP KEY VALUE, got %q", line, text)
		}
		group, key := fields[0], fields[1]
		value := strings.Join(fields[2:], " ")
		if group == "DATA" && key == "CHANNELS" {
			f.Channels = append(f.Channels, value)
			continue
		}
		f.Entries = append(f.Entries, Entry{Group: group, Key: key, Value: value})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteFile writes the parameters file to path.
func (f *File) WriteFile(path string) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Write(fp); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}

// ReadFile reads a parameters file from path.
func ReadFile(path string) (*File, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return Read(fp)
}

// RenderOptions carries the per-run values that end up in the
// parameters files alongside the Parameters themselves.
type RenderOptions struct {
	// CacheFile is the frame cache consumed by the engine (DATA FFL).
	CacheFile string
	// TriggerDir is where the engine writes output (OUTPUT DIRECTORY).
	TriggerDir string
	// ChannelLimit caps the channels per file; channels beyond the
	// limit spill into additional numbered files. Zero means all
	// channels in one file.
	ChannelLimit int
}

// Defaults applied to every rendered file, matching the engine's
// expectations.
var defaults = []Entry{
	{Group: "PARAMETER", Key: "CLUSTERING", Value: "TIME"},
	{Group: "OUTPUT", Key: "PRODUCTS", Value: "triggers"},
	{Group: "OUTPUT", Key: "VERBOSITY", Value: "2"},
	{Group: "OUTPUT", Key: "FORMAT", Value: "rootxml"},
	{Group: "OUTPUT", Key: "NTRIGGERMAX", Value: "1e7"},
}

// Build renders p into one or more parameters files, distributing the
// channel list across files of at most opts.ChannelLimit channels.
func Build(p Parameters, opts RenderOptions) []*File {
	base := []Entry{
		{Group: "PARAMETER", Key: "CHUNKDURATION", Value: fmt.Sprintf("%d", p.Chunk)},
		{Group: "PARAMETER", Key: "SEGMENTDURATION", Value: fmt.Sprintf("%d", p.Segment)},
		{Group: "PARAMETER", Key: "OVERLAPDURATION", Value: fmt.Sprintf("%d", p.Overlap)},
		{Group: "PARAMETER", Key: "FREQUENCYRANGE", Value: fmt.Sprintf("%g %g", p.FrequencyRange[0], p.FrequencyRange[1])},
	}
	if p.QRange != [2]float64{} {
		base = append(base, Entry{Group: "PARAMETER", Key: "QRANGE",
			Value: fmt.Sprintf("%g %g", p.QRange[0], p.QRange[1])})
	}
	base = append(base, defaults[0])
	base = append(base, Entry{Group: "OUTPUT", Key: "DIRECTORY", Value: opts.TriggerDir})
	base = append(base, defaults[1:]...)
	base = append(base, Entry{Group: "DATA", Key: "FFL", Value: opts.CacheFile})
	if p.SampleFrequency > 0 {
		base = append(base, Entry{Group: "DATA", Key: "SAMPLEFREQUENCY",
			Value: fmt.Sprintf("%g", p.SampleFrequency)})
	}

	var files []*File
	for _, group := range Distribute(p.Channels, opts.ChannelLimit) {
		files = append(files, &File{Entries: base, Channels: group})
	}
	return files
}

// Distribute splits channels into groups of at most limit entries,
// preserving order. A non-positive limit yields a single group.
func Distribute(channels []string, limit int) [][]string {
	if len(channels) == 0 {
		return nil
	}
	if limit <= 0 || limit >= len(channels) {
		return [][]string{channels}
	}
	var out [][]string
	for i := 0; i < len(channels); i += limit {
		out = append(out, channels[i:min(i+limit, len(channels))])
	}
	return out
}

// WriteAll writes the files under dir as parameters_0.txt,
// parameters_1.txt, ... and returns the written paths.
func WriteAll(dir string, files []*File) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(files))
	for i, f := range files {
		path := filepath.Join(dir, fmt.Sprintf("parameters_%d.txt", i))
		if err := f.WriteFile(path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
