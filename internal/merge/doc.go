// Package merge reconciles the trigger files an analysis run actually
// produced against the span it was asked to cover: contiguous files
// are coalesced into single per-channel outputs by shelling out to the
// format-specific merge tool, remaining coverage gaps are reported,
// and empty trigger files are removed.
//
// The merge tools themselves are collaborators; this package only
// decides which files belong together and invokes the right tool for
// the file format.
package merge
