// Package icc tags render.Facade's export output with an ICC color-space
// profile and flags out-of-gamut pixels for the preview soft-proofing
// feature (spec section 4.12/9 EXPANSION). The pipeline core performs zero
// color management itself — every stage kernel works directly in the
// negative's linear RGB working space — so Provider is consumed only at
// the renderer facade's edges, never by a stage.
package icc

import "github.com/marcinz606/NegPy/imgbuf"

// Tag names the handful of output color spaces render.RenderExport can
// attach, matching the primaries/white-point constants this package
// synthesizes them from.
type Tag string

const (
	TagSRGB        Tag = "sRGB"
	TagAdobeRGB    Tag = "AdobeRGB1998"
	TagDisplayP3   Tag = "DisplayP3"
	TagProPhotoRGB Tag = "ProPhotoRGB"
)

// Provider creates RGB working-space transforms and evaluates gamut
// membership against a named output Tag, implemented over
// github.com/yzigangirova/lcms-go without the pipeline core ever linking
// against it directly.
type Provider interface {
	// Transform converts buf's pixels (already in the pipeline's linear
	// working space) to dst, which must be the same dimensions as buf,
	// tagged for output as tag.
	Transform(tag Tag, buf, dst *imgbuf.Buffer) error

	// InGamut reports, per pixel, whether buf's color falls outside tag's
	// gamut: true marks an out-of-gamut pixel. len(mask) ==
	// buf.Width*buf.Height, row-major.
	InGamut(tag Tag, buf *imgbuf.Buffer) (mask []bool, err error)
}
