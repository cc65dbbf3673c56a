package config

import (
	"fmt"

	"github.com/marcinz606/NegPy/negpyerr"
)

// Validate checks cfg's numeric fields against the bounds a render depends
// on to produce a finite, sane image, matching
// original_source/src/core/validation.py's pre-render bounds check (spec
// section 3 EXPANSION): a ConfigInvalid error here rejects an out-of-range
// request once, before it reaches any stage kernel, rather than letting a
// degenerate value (a zero contrast slope, a negative blur radius, an
// inverted crop rectangle) divide by zero or silently produce garbage deep
// in the pipeline.
func Validate(cfg WorkspaceConfig) error {
	if cfg.Exposure.Grade <= 0 {
		return negpyerr.New(negpyerr.ConfigInvalid, "exposure.grade must be > 0")
	}
	if cfg.Exposure.Toe < 0 {
		return negpyerr.New(negpyerr.ConfigInvalid, "exposure.toe must be >= 0")
	}
	if cfg.Exposure.Shoulder < 0 {
		return negpyerr.New(negpyerr.ConfigInvalid, "exposure.shoulder must be >= 0")
	}
	if cfg.Exposure.WhiteBalanceR <= 0 || cfg.Exposure.WhiteBalanceG <= 0 || cfg.Exposure.WhiteBalanceB <= 0 {
		return negpyerr.New(negpyerr.ConfigInvalid, "exposure.white_balance multipliers must be > 0")
	}

	if cfg.Lab.SeparationStrength < 0 || cfg.Lab.SeparationStrength > 1 {
		return negpyerr.New(negpyerr.ConfigInvalid, "lab.separation_strength must be in [0, 1]")
	}
	if cfg.Lab.CLAHEStrength < 0 || cfg.Lab.CLAHEStrength > 1 {
		return negpyerr.New(negpyerr.ConfigInvalid, "lab.clahe_strength must be in [0, 1]")
	}
	if cfg.Lab.CLAHEClipLimit <= 0 {
		return negpyerr.New(negpyerr.ConfigInvalid, "lab.clahe_clip_limit must be > 0")
	}
	if cfg.Lab.SharpenRadius < 0 {
		return negpyerr.New(negpyerr.ConfigInvalid, "lab.sharpen_radius must be >= 0")
	}

	if cfg.Toning.FinalGamma <= 0 {
		return negpyerr.New(negpyerr.ConfigInvalid, "toning.final_gamma must be > 0")
	}
	if cfg.Toning.DMaxGamma <= 0 {
		return negpyerr.New(negpyerr.ConfigInvalid, "toning.dmax_gamma must be > 0")
	}
	if cfg.Toning.Saturation < 0 {
		return negpyerr.New(negpyerr.ConfigInvalid, "toning.saturation must be >= 0")
	}

	if cfg.Retouch.AutoDustEnabled {
		if cfg.Retouch.AutoDustThreshold <= 0 {
			return negpyerr.New(negpyerr.ConfigInvalid, "retouch.auto_dust_threshold must be > 0")
		}
		if cfg.Retouch.AutoDustSize <= 0 {
			return negpyerr.New(negpyerr.ConfigInvalid, "retouch.auto_dust_size must be > 0")
		}
	}
	for i, spot := range cfg.Retouch.ManualSpots {
		if spot.X < 0 || spot.X > 1 || spot.Y < 0 || spot.Y > 1 {
			return negpyerr.New(negpyerr.ConfigInvalid, fmt.Sprintf("retouch.manual_spots[%d] center must be normalized to [0, 1]", i))
		}
		if spot.Radius < 0 {
			return negpyerr.New(negpyerr.ConfigInvalid, fmt.Sprintf("retouch.manual_spots[%d] radius must be >= 0", i))
		}
	}

	switch cfg.Geometry.Rotation {
	case 0, 90, 180, 270:
	default:
		return negpyerr.New(negpyerr.ConfigInvalid, "geometry.rotation must be one of 0, 90, 180, 270")
	}
	crop := cfg.Geometry.Crop
	if crop.X0 < 0 || crop.Y0 < 0 || crop.X1 > 1 || crop.Y1 > 1 || crop.X0 >= crop.X1 || crop.Y0 >= crop.Y1 {
		return negpyerr.New(negpyerr.ConfigInvalid, "geometry.crop must be a non-degenerate rectangle within [0, 1]")
	}

	if cfg.Export.SizePolicy == OutputSizePrintCM {
		if cfg.Export.PrintWidthCM <= 0 || cfg.Export.PrintHeightCM <= 0 {
			return negpyerr.New(negpyerr.ConfigInvalid, "export.print_width_cm/print_height_cm must be > 0 for OutputSizePrintCM")
		}
		if cfg.Export.DPI <= 0 {
			return negpyerr.New(negpyerr.ConfigInvalid, "export.dpi must be > 0 for OutputSizePrintCM")
		}
	}

	return nil
}
