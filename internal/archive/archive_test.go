package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trigpipe/trigpipe/internal/segments"
)

func TestParse(t *testing.T) {
	f, err := Parse("/data/merge/L1-GDS_CALIB_STRAIN_OMICRON-1323748945-1055.h5")
	require.NoError(t, err)
	assert.Equal(t, "L1", f.Observatory)
	assert.Equal(t, "GDS_CALIB_STRAIN_OMICRON", f.Description)
	assert.Equal(t, int64(1323748945), f.Start)
	assert.Equal(t, int64(1055), f.Duration)
	assert.Equal(t, "h5", f.Ext)
	assert.Equal(t, segments.Segment{Start: 1323748945, End: 1323750000}, f.Segment())
}

func TestParse_CompoundExtension(t *testing.T) {
	f, err := Parse("H1-SUS_PR3_M1_DAMP_T_IN1_DQ_OMICRON-1336799058-8064.xml.gz")
	require.NoError(t, err)
	assert.Equal(t, "xml.gz", f.Ext)
}

func TestParse_Invalid(t *testing.T) {
	for _, name := range []string{
		"notatriggerfile.txt",
		"L1-MISSING_TIMES.root",
		"lowercase-CHAN-123-456.root",
	} {
		_, err := Parse(name)
		require.Error(t, err, "name %q", name)
		var bad *ErrBadName
		assert.ErrorAs(t, err, &bad)
	}
}

func TestName_RoundTrip(t *testing.T) {
	f := TriggerFile{
		Observatory: "L1",
		Description: "GDS_CALIB_STRAIN_OMICRON",
		Start:       1323748945,
		Duration:    1055,
		Ext:         "root",
	}
	got, err := Parse(f.Name())
	require.NoError(t, err)
	f.Path = f.Name()
	assert.Equal(t, f, got)
}

func TestChannel(t *testing.T) {
	f := TriggerFile{Observatory: "L1", Description: "GDS_CALIB_STRAIN_OMICRON"}
	assert.Equal(t, "L1-GDS_CALIB_STRAIN_OMICRON", f.Channel())
}

func TestMetricDay(t *testing.T) {
	assert.Equal(t, int64(13237), MetricDay(1323748945))
	assert.Equal(t, int64(11870), MetricDay(1187000000))
}

func TestPath(t *testing.T) {
	f := TriggerFile{
		Observatory: "L1",
		Description: "GDS_CALIB_STRAIN_OMICRON",
		Start:       1323748945,
		Duration:    1055,
		Ext:         "h5",
	}
	want := filepath.Join("/archive", "L1", "GDS_CALIB_STRAIN_OMICRON", "13237",
		"L1-GDS_CALIB_STRAIN_OMICRON-1323748945-1055.h5")
	assert.Equal(t, want, Path("/archive", f))
}

func TestArchiver_Archive(t *testing.T) {
	srcDir := t.TempDir()
	root := t.TempDir()

	good := filepath.Join(srcDir, "L1-TEST_OMICRON-1234567890-100.root")
	require.NoError(t, os.WriteFile(good, []byte("triggers"), 0o644))
	bad := filepath.Join(srcDir, "garbage.root")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))

	a := &Archiver{Root: root}
	archived, skipped := a.Archive([]string{good, bad})
	assert.Equal(t, 1, archived)
	assert.Equal(t, 1, skipped)

	dest := filepath.Join(root, "L1", "TEST_OMICRON", "12345",
		"L1-TEST_OMICRON-1234567890-100.root")
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("triggers"), data)
}
