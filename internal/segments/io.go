package segments

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Read parses segments from r in the two-column text format: one
// segment per line, "start end" separated by whitespace, sorted by
// start. Blank lines and #-comments are skipped.
func Read(r io.Reader) (List, error) {
	var out List
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrBadFormat, line, text)
		}
		start, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadFormat, line, err)
		}
		end, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadFormat, line, err)
		}
		seg, err := New(start, end)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, seg)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Write renders segments to w in the two-column text format.
// Read(Write(l)) reproduces l exactly.
func Write(w io.Writer, l List) error {
	for _, s := range l {
		if _, err := fmt.Fprintf(w, "%d %d\n", s.Start, s.End); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile reads a segment file from disk.
func ReadFile(path string) (List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// WriteFile writes a segment file to disk, truncating any existing file.
func WriteFile(path string, l List) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, l); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LastSegment returns the final segment of a run-state file, i.e. the
// span covered by the most recent completed run.
func LastSegment(path string) (Segment, error) {
	l, err := ReadFile(path)
	if err != nil {
		return Segment{}, err
	}
	if len(l) == 0 {
		return Segment{}, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return l[len(l)-1], nil
}
