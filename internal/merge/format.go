package merge

import "strings"

// Format is the closed set of trigger-file formats with a merge
// strategy. The variant is selected by a pure mapping from the file
// extension; anything else is UnsupportedExtensionError.
type Format int

const (
	FormatROOT Format = iota
	FormatHDF5
	FormatXML
)

func (f Format) String() string {
	switch f {
	case FormatROOT:
		return "root"
	case FormatHDF5:
		return "hdf5"
	case FormatXML:
		return "xml"
	default:
		return "unknown"
	}
}

// FormatForExtension maps a file extension to its format. Compound
// extensions containing "xml" (xml, xml.gz) select the XML strategy,
// matching the file names the engine writes.
func FormatForExtension(ext string) (Format, error) {
	switch {
	case ext == "root":
		return FormatROOT, nil
	case ext == "h5":
		return FormatHDF5, nil
	case strings.Contains(ext, "xml"):
		return FormatXML, nil
	default:
		return 0, &UnsupportedExtensionError{Ext: ext}
	}
}

// Tools names the external merge executables per format.
type Tools struct {
	RootMerge string
	HDF5Merge string
	LigolwAdd string
}

// DefaultTools are the standard tool names found on PATH.
var DefaultTools = Tools{
	RootMerge: "omicron-root-merge",
	HDF5Merge: "omicron-hdf5-merge",
	LigolwAdd: "ligolw_add",
}

// command returns the merge executable for the format.
func (f Format) command(t Tools) string {
	switch f {
	case FormatROOT:
		return t.RootMerge
	case FormatHDF5:
		return t.HDF5Merge
	default:
		return t.LigolwAdd
	}
}

// args builds the tool invocation. The XML tool takes --output=; the
// ROOT and HDF5 tools take the output path as the final argument.
func (f Format) args(inputs []string, output string, extra ...string) []string {
	var args []string
	args = append(args, extra...)
	if f == FormatXML {
		args = append(args, "--output="+output)
		args = append(args, inputs...)
		return args
	}
	args = append(args, inputs...)
	args = append(args, output)
	return args
}
