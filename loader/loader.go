// Package loader defines the collaborator interface the pipeline receives
// a loaded negative's pixels from (spec section 6, the out-of-scope
// ImageLoader), plus the one concrete implementation the spec actually
// describes well enough to build: a headerless planar format sized by a
// sidecar file. Standard RAW container and 16-bit TIFF decoding are out of
// scope (spec.md's Non-goals: "RAW decoding and demosaicing... treated as
// an ImageLoader producing a linear float RGB buffer").
package loader

import "github.com/marcinz606/NegPy/imgbuf"

// Metadata is the subset of a loaded file's EXIF-adjacent information this
// module records: source path, dimensions and bit depth. It is not a full
// EXIF parse and carries no white-balance or calibration fields.
type Metadata struct {
	SourcePath string
	Width      int
	Height     int
	BitDepth   int // 10 or 14 for HeaderlessPlanarLoader; 0 if unknown
}

// CalibrationHint optionally overrides calib.Analyze's computed bounds
// with values the loader already knows (e.g. a scanner's per-roll
// calibration frame), one channel at a time. A nil hint means the caller
// should run calib.Analyze normally.
type CalibrationHint struct {
	FloorR, FloorG, FloorB       float64
	CeilingR, CeilingG, CeilingB float64
}

// Loader decodes a source file into the pipeline's linear working-space
// buffer (spec section 6: "load(path) -> (ImageBuffer, ExifMetadata,
// CalibrationHint?)").
type Loader interface {
	// CanLoad reports whether this Loader recognizes path (by extension,
	// sidecar presence, or other file-local evidence — never by reading
	// and decoding the full pixel payload).
	CanLoad(path string) bool

	// Load decodes path into a Buffer. hint is nil when the source carries
	// no calibration information beyond its pixels.
	Load(path string) (buf *imgbuf.Buffer, meta Metadata, hint *CalibrationHint, err error)
}
