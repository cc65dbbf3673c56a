// Package config defines WorkspaceConfig, the flat parameter record edited
// by a UI controller (out of scope here) and consumed by the engine.
// Updates are structural replacements: callers build a new WorkspaceConfig
// value rather than mutating one in place, so the edit store only ever
// sees complete records.
package config

// ManualSpot is a single manual-healing circle in normalized full-image
// (post-rotation, post-flip, pre-crop) coordinates.
type ManualSpot struct {
	X, Y   float64 // normalized [0, 1] in full rotated-and-flipped image space
	Radius float64 // normalized to the image's longer edge
}

// ExposureConfig controls the positive-print sigmoid and filtration.
type ExposureConfig struct {
	Density     float64 // pivot of the H&D sigmoid, in normalized log-density units
	Grade       float64 // slope (contrast) of the sigmoid
	Toe         float64 // toe softening coefficient, >= 0
	Shoulder    float64 // shoulder compression coefficient, >= 0
	CyanShift   float64 // additive density shift subtracted from R
	MagentaShift float64 // additive density shift subtracted from G
	YellowShift float64 // additive density shift subtracted from B
	WhiteBalanceR float64 // per-channel multiplier applied before Normalization
	WhiteBalanceG float64
	WhiteBalanceB float64
	ProcessMode ProcessMode
}

// NormalizationFloor is a per-channel log10-density floor, or "auto" to
// request the calibration analyzer compute one.
type NormalizationFloor struct {
	Auto  bool
	Value float64 // log10 density; ignored when Auto is true
}

// NormalizationConfig holds the per-channel calibration window.
type NormalizationConfig struct {
	FloorR, FloorG, FloorB     NormalizationFloor
	CeilingR, CeilingG, CeilingB NormalizationFloor
}

// LabConfig controls color separation and the luma unsharp mask.
type LabConfig struct {
	SeparationStrength float64 // beta in [0, 1]
	CLAHEStrength      float64 // alpha blend between raw and equalized luma
	CLAHEClipLimit     float64
	SharpenAmount      float64 // lambda
	SharpenRadius      float64 // sigma of the luma Gaussian blur
}

// ToningConfig controls paper tint, chemical toning, and the final gamma.
type ToningConfig struct {
	PaperTintR, PaperTintG, PaperTintB float64
	DMaxGamma                         float64
	SeleniumStrength                  float64
	SepiaStrength                     float64
	Saturation                        float64
	BlackAndWhite                     bool
	FinalGamma                        float64
}

// RetouchConfig controls auto-dust detection and manual healing.
type RetouchConfig struct {
	AutoDustEnabled   bool
	AutoDustThreshold float64
	AutoDustSize      float64 // selects the 3x3/5x5/7x7 median kernel
	ManualSpots       []ManualSpot
}

// CropRect is a crop rectangle in normalized [0,1] coordinates of the
// rotated-and-flipped (pre-crop) image.
type CropRect struct {
	X0, Y0, X1, Y1 float64
}

// GeometryConfig controls rotation, flips, fine rotation, and the crop.
type GeometryConfig struct {
	Rotation      int // one of 0, 90, 180, 270
	FlipHorizontal bool
	FlipVertical   bool
	FineRotation   float64 // degrees, applied after the 90-degree step
	Crop           CropRect
	AspectTag      string
	KeepFullFrame  bool
}

// OutputSizePolicy selects how Export resolves a target pixel size.
type OutputSizePolicy int

const (
	// OutputSizeOriginal keeps the cropped image's native resolution.
	OutputSizeOriginal OutputSizePolicy = iota
	// OutputSizePrintCM derives pixel dimensions from PrintWidthCM/DPI.
	OutputSizePrintCM
)

// BorderSpec describes an optional letterbox/border composited by the
// Layout stage.
type BorderSpec struct {
	Enabled bool
	WidthFraction float64 // border width as a fraction of the short edge
	ColorR, ColorG, ColorB float64
}

// ExportConfig controls render_export's output sizing and tagging.
type ExportConfig struct {
	SizePolicy     OutputSizePolicy
	PrintWidthCM   float64
	PrintHeightCM  float64
	DPI            float64
	ColorSpaceTag  string // one of sRGB, Adobe RGB, ProPhoto, Display P3, Rec2020, WideGamut, Greyscale
	Border         BorderSpec
	OriginalResolution bool
}

// WorkspaceConfig is the flat, immutable parameter record for one render.
// All mutation happens by structural replacement: copy the value, change a
// field, and pass the new value on.
type WorkspaceConfig struct {
	Exposure     ExposureConfig
	Normalization NormalizationConfig
	Lab          LabConfig
	Toning       ToningConfig
	Retouch      RetouchConfig
	Geometry     GeometryConfig
	Export       ExportConfig
}

// Default returns the workspace defaults a newly loaded file starts with.
func Default() WorkspaceConfig {
	return WorkspaceConfig{
		Exposure: ExposureConfig{
			Density:       0.5,
			Grade:         3.0,
			Toe:           0.3,
			Shoulder:      0.3,
			WhiteBalanceR: 1.0,
			WhiteBalanceG: 1.0,
			WhiteBalanceB: 1.0,
			ProcessMode:   C41Negative,
		},
		Normalization: NormalizationConfig{
			FloorR:   NormalizationFloor{Auto: true},
			FloorG:   NormalizationFloor{Auto: true},
			FloorB:   NormalizationFloor{Auto: true},
			CeilingR: NormalizationFloor{Auto: true},
			CeilingG: NormalizationFloor{Auto: true},
			CeilingB: NormalizationFloor{Auto: true},
		},
		Lab: LabConfig{
			SeparationStrength: 0.3,
			CLAHEStrength:      0.5,
			CLAHEClipLimit:     4.0,
			SharpenAmount:      0.0,
			SharpenRadius:      1.5,
		},
		Toning: ToningConfig{
			PaperTintR: 1.0, PaperTintG: 1.0, PaperTintB: 1.0,
			DMaxGamma:  1.0,
			Saturation: 1.0,
			FinalGamma: 1.0 / 2.2,
		},
		Retouch: RetouchConfig{
			AutoDustEnabled:   false,
			AutoDustThreshold: 0.12,
			AutoDustSize:      1.0,
		},
		Geometry: GeometryConfig{
			Rotation: 0,
			Crop:     CropRect{X0: 0, Y0: 0, X1: 1, Y1: 1},
		},
		Export: ExportConfig{
			SizePolicy:    OutputSizeOriginal,
			DPI:           300,
			ColorSpaceTag: "sRGB",
		},
	}
}
