package icc

import (
	"fmt"
	"sync"

	gol "github.com/yzigangirova/lcms-go"
	"github.com/yzigangirova/lcms-go/mem"

	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/negpyerr"
)

// LcmsProvider implements Provider over github.com/yzigangirova/lcms-go,
// synthesizing each Tag's profile from its primaries and white point rather
// than reading a profile file from disk, matching
// cmd/golcms-demo/main.go's CmsCreate_sRGBProfile/CmsCreateRGBProfile
// pattern in the teacher's reference lcms pack.
type LcmsProvider struct {
	mm mem.Manager

	mu       sync.Mutex
	profiles map[Tag]gol.CmsHPROFILE
}

// NewLcmsProvider constructs a Provider with its own lcms memory manager.
func NewLcmsProvider() *LcmsProvider {
	return &LcmsProvider{mm: mem.NewManager(), profiles: make(map[Tag]gol.CmsHPROFILE)}
}

// primaries holds the CIE xyY chromaticities and white point this package
// synthesizes a profile from; gamma is the simple power-law transfer
// function assumed for each working space (ProPhoto's true transfer curve
// is a two-segment function, but lcms's CmsBuildGamma power-law
// approximation is what the teacher's reference pack demonstrates, and the
// gamut-membership math this package uses doesn't depend on the transfer
// curve's exact shape).
type primaries struct {
	white            gol.CmsCIExyY
	red, green, blue gol.CmsCIExyY
	gamma            float64
}

var tagPrimaries = map[Tag]primaries{
	TagAdobeRGB: {
		white: gol.CmsCIExyY{X_small: 0.3127, Y_small: 0.3290, Y_large: 1.0},
		red:   gol.CmsCIExyY{X_small: 0.6400, Y_small: 0.3300, Y_large: 1.0},
		green: gol.CmsCIExyY{X_small: 0.2100, Y_small: 0.7100, Y_large: 1.0},
		blue:  gol.CmsCIExyY{X_small: 0.1500, Y_small: 0.0600, Y_large: 1.0},
		gamma: 2.2,
	},
	TagDisplayP3: {
		white: gol.CmsCIExyY{X_small: 0.3127, Y_small: 0.3290, Y_large: 1.0},
		red:   gol.CmsCIExyY{X_small: 0.6800, Y_small: 0.3200, Y_large: 1.0},
		green: gol.CmsCIExyY{X_small: 0.2650, Y_small: 0.6900, Y_large: 1.0},
		blue:  gol.CmsCIExyY{X_small: 0.1500, Y_small: 0.0600, Y_large: 1.0},
		gamma: 2.4,
	},
	TagProPhotoRGB: {
		white: gol.CmsCIExyY{X_small: 0.3457, Y_small: 0.3585, Y_large: 1.0},
		red:   gol.CmsCIExyY{X_small: 0.7347, Y_small: 0.2653, Y_large: 1.0},
		green: gol.CmsCIExyY{X_small: 0.1596, Y_small: 0.8404, Y_large: 1.0},
		blue:  gol.CmsCIExyY{X_small: 0.0366, Y_small: 0.0001, Y_large: 1.0},
		gamma: 1.8,
	},
}

// profile returns (creating and caching on first use) tag's lcms profile
// handle. TagSRGB uses lcms's built-in sRGB constructor; every other tag is
// synthesized from tagPrimaries via CmsCreateRGBProfile.
func (p *LcmsProvider) profile(tag Tag) (gol.CmsHPROFILE, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.profiles[tag]; ok {
		return h, nil
	}

	var h gol.CmsHPROFILE
	if tag == TagSRGB {
		h = gol.CmsCreate_sRGBProfile(p.mm)
	} else {
		prim, ok := tagPrimaries[tag]
		if !ok {
			return nil, negpyerr.New(negpyerr.ConfigInvalid, fmt.Sprintf("icc: unknown tag %q", tag))
		}
		curve := gol.CmsBuildGamma(p.mm, nil, prim.gamma)
		transfer := []*gol.CmsToneCurve{curve, curve, curve}
		triple := gol.CmsCIExyYTRIPLE{Red: prim.red, Green: prim.green, Blue: prim.blue}
		h = gol.CmsCreateRGBProfile(p.mm, &prim.white, &triple, transfer)
	}
	if h == nil {
		return nil, negpyerr.New(negpyerr.ConfigInvalid, fmt.Sprintf("icc: failed to build profile for tag %q", tag))
	}
	p.profiles[tag] = h
	return h, nil
}

// transformTo builds (or would build, on every call — lcms transforms are
// cheap relative to a render and aren't cached, unlike profiles, since
// they're parameterized by both a source and destination tag) a
// perceptual-intent transform from the pipeline's linear RGB working space
// (modeled as sRGB primaries for colorimetric purposes) to tag.
func (p *LcmsProvider) transformTo(tag Tag) (gol.CmsHTRANSFORM, error) {
	src, err := p.profile(TagSRGB)
	if err != nil {
		return nil, err
	}
	dst, err := p.profile(tag)
	if err != nil {
		return nil, err
	}
	xform := gol.CmsCreateTransform(p.mm, src, gol.TYPE_RGB_FLT, dst, gol.TYPE_RGB_FLT,
		gol.INTENT_PERCEPTUAL, gol.CmsFLAGS_BLACKPOINTCOMPENSATION)
	if xform == nil {
		return nil, negpyerr.New(negpyerr.ConfigInvalid, fmt.Sprintf("icc: failed to build transform to %q", tag))
	}
	return xform, nil
}

// Transform converts every pixel of buf into tag's color space, writing
// into dst (which must already be sized to buf's dimensions).
func (p *LcmsProvider) Transform(tag Tag, buf, dst *imgbuf.Buffer) error {
	if buf.Width != dst.Width || buf.Height != dst.Height {
		return negpyerr.New(negpyerr.ConfigInvalid, "icc: Transform dst dimensions must match src")
	}
	xform, err := p.transformTo(tag)
	if err != nil {
		return err
	}
	n := buf.Width * buf.Height
	out := make([]float32, len(buf.Data))
	gol.CmsDoTransform(p.mm, xform, buf.Data, out, uint32(n))
	copy(dst.Data, out)
	return nil
}

// gamutEpsilon is the per-channel round-trip tolerance below which a pixel
// is considered to have survived tag's gamut clip undamaged.
const gamutEpsilon = 1.0 / 255.0

// InGamut flags pixels that don't survive a round trip into tag and back
// to the working space within gamutEpsilon: lcms clips an out-of-gamut
// color to its destination profile's boundary during the forward
// transform, so a clipped pixel no longer maps back to its original value
// once transformed back. This package exposes no access to lcms's internal
// cmsCreateProofingTransformTHR (unexported in the reference pack), so
// InGamut uses this round-trip check rather than the library's native
// soft-proofing alarm-color path.
func (p *LcmsProvider) InGamut(tag Tag, buf *imgbuf.Buffer) ([]bool, error) {
	forward, err := p.transformTo(tag)
	if err != nil {
		return nil, err
	}
	backward, err := p.reverseTransformFrom(tag)
	if err != nil {
		return nil, err
	}

	n := buf.Width * buf.Height
	clipped := make([]float32, len(buf.Data))
	gol.CmsDoTransform(p.mm, forward, buf.Data, clipped, uint32(n))
	roundTripped := make([]float32, len(buf.Data))
	gol.CmsDoTransform(p.mm, backward, clipped, roundTripped, uint32(n))

	mask := make([]bool, n)
	for i := 0; i < n; i++ {
		base := i * 3
		for c := 0; c < 3; c++ {
			if absf32(buf.Data[base+c]-roundTripped[base+c]) > gamutEpsilon {
				mask[i] = true
				break
			}
		}
	}
	return mask, nil
}

func (p *LcmsProvider) reverseTransformFrom(tag Tag) (gol.CmsHTRANSFORM, error) {
	src, err := p.profile(tag)
	if err != nil {
		return nil, err
	}
	dst, err := p.profile(TagSRGB)
	if err != nil {
		return nil, err
	}
	xform := gol.CmsCreateTransform(p.mm, src, gol.TYPE_RGB_FLT, dst, gol.TYPE_RGB_FLT,
		gol.INTENT_PERCEPTUAL, gol.CmsFLAGS_BLACKPOINTCOMPENSATION)
	if xform == nil {
		return nil, negpyerr.New(negpyerr.ConfigInvalid, fmt.Sprintf("icc: failed to build reverse transform from %q", tag))
	}
	return xform, nil
}

func absf32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
