// Command negpy batch-converts scanned film negatives into positive
// prints from the command line (spec section 6, EXPANSION), grounded on
// vearutop-ultrahdr's cmd/uhdrtool/main.go flag.NewFlagSet/fail-and-exit
// pattern and gogpu-gg's cmd/ggdemo/main.go flat top-level flag style.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/icc"
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/loader"
	"github.com/marcinz606/NegPy/negpyerr"
	"github.com/marcinz606/NegPy/preset"
	"github.com/marcinz606/NegPy/render"
	"github.com/marcinz606/NegPy/session"
)

// rawExtensions is the recognized-but-unsupported RAW container set
// original_source/negpy/cli/batch.py expands directories against,
// matching the CLI's extension set even though this module ships no RAW
// decoder (spec.md's Non-goals: RAW decoding is an ImageLoader
// collaborator, out of scope). It also includes
// loader.HeaderlessExtension, the one format here that does decode.
var rawExtensions = map[string]bool{
	".cr2": true, ".nef": true, ".arw": true, ".dng": true,
	".tif": true, ".tiff": true, ".raf": true, ".orf": true, ".rw2": true,
	loader.HeaderlessExtension: true,
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("negpy", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	mode := fs.String("mode", "c41", "process mode: c41, bw, or e6")
	outdir := fs.String("outdir", ".", "output directory")
	colorspace := fs.String("colorspace", "sRGB", "output ICC tag: sRGB, AdobeRGB1998, DisplayP3, ProPhotoRGB, or none")
	density := fs.Float64("density", 0, "override exposure density pivot (0 keeps the preset/default)")
	grade := fs.Float64("grade", 0, "override exposure grade/contrast (0 keeps the preset/default)")
	sharpen := fs.Float64("sharpen", -1, "override LabTools sharpen amount (-1 keeps the preset/default)")
	dpi := fs.Float64("dpi", 0, "override export DPI (0 keeps the preset/default)")
	printsize := fs.String("printsize", "", "override export print size in cm, WxH (e.g. 20x30)")
	origres := fs.Bool("origres", false, "force ExportConfig.OriginalResolution regardless of printsize/dpi")
	template := fs.String("template", "{stem}_{mode}.png", "output filename template; {stem} and {mode} are substituted")
	gpuDisable := fs.Bool("gpu-disable", false, "never attempt GPU dispatch, even if an accelerator is registered")
	settingsPath := fs.String("settings", "", "optional JSON preset file (preset.Envelope) to use as the base config")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	_ = gpuDisable // no gpuaccel.Accelerator is registered by this CLI today, so dispatch is already CPU-only; the flag is accepted for forward compatibility with a future registered backend.

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: negpy [flags] <file-or-dir> [file-or-dir ...]")
		fs.PrintDefaults()
		return 2
	}

	baseCfg := config.Default()
	if *settingsPath != "" {
		env, err := preset.Load(*settingsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "negpy: loading settings:", err)
			return 1
		}
		baseCfg = env.Config
	}
	applyOverrides(&baseCfg, *mode, *density, *grade, *sharpen, *dpi, *printsize, *origres)

	tag, err := parseColorspace(*colorspace)
	if err != nil {
		fmt.Fprintln(os.Stderr, "negpy:", err)
		return 1
	}

	files, err := expandInputs(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "negpy:", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "negpy: no recognized input files found")
		return 1
	}

	sess := session.New()
	facade := render.New(sess, icc.NewLcmsProvider())
	defer facade.Close()

	loaders := []loader.Loader{loader.HeaderlessPlanarLoader{}}

	var failures []string
	for _, path := range files {
		if err := processOne(facade, loaders, baseCfg, tag, path, *outdir, *template, *mode); err != nil {
			fmt.Fprintf(os.Stderr, "negpy: FAILED %s: %v\n", path, err)
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		fmt.Fprintf(os.Stderr, "negpy: OK %s\n", path)
	}

	if len(failures) > 0 {
		fmt.Fprintf(os.Stderr, "negpy: %d of %d file(s) failed:\n", len(failures), len(files))
		for _, f := range failures {
			fmt.Fprintln(os.Stderr, "  "+f)
		}
		return 1
	}
	return 0
}

func processOne(facade *render.Facade, loaders []loader.Loader, cfg config.WorkspaceConfig, tag icc.Tag, path, outdir, tmpl, mode string) error {
	var ld loader.Loader
	for _, cand := range loaders {
		if cand.CanLoad(path) {
			ld = cand
			break
		}
	}
	if ld == nil {
		return negpyerr.New(negpyerr.LoaderUnsupported, "no registered Loader recognizes "+path+" (RAW container decoding is out of scope for this build)")
	}

	src, _, hint, err := ld.Load(path)
	if err != nil {
		return err
	}
	if hint != nil {
		cfg.Normalization.FloorR = config.NormalizationFloor{Value: hint.FloorR}
		cfg.Normalization.FloorG = config.NormalizationFloor{Value: hint.FloorG}
		cfg.Normalization.FloorB = config.NormalizationFloor{Value: hint.FloorB}
		cfg.Normalization.CeilingR = config.NormalizationFloor{Value: hint.CeilingR}
		cfg.Normalization.CeilingG = config.NormalizationFloor{Value: hint.CeilingG}
		cfg.Normalization.CeilingB = config.NormalizationFloor{Value: hint.CeilingB}
	}

	out, _, err := facade.RenderExport(path, cfg, src, tag)
	if err != nil {
		return err
	}

	outPath := filepath.Join(outdir, renderTemplate(tmpl, path, mode))
	return writePNG(outPath, out)
}

// applyOverrides mutates cfg in place with the CLI's non-sentinel flag
// overrides, leaving preset/default values for any flag left at its
// sentinel ("keep the preset/default") value.
func applyOverrides(cfg *config.WorkspaceConfig, mode string, density, grade, sharpen, dpi float64, printsize string, origres bool) {
	switch strings.ToLower(mode) {
	case "c41":
		cfg.Exposure.ProcessMode = config.C41Negative
	case "bw":
		cfg.Exposure.ProcessMode = config.BWNegative
	case "e6":
		cfg.Exposure.ProcessMode = config.E6Positive
	}
	if density != 0 {
		cfg.Exposure.Density = density
	}
	if grade != 0 {
		cfg.Exposure.Grade = grade
	}
	if sharpen >= 0 {
		cfg.Lab.SharpenAmount = sharpen
	}
	if dpi != 0 {
		cfg.Export.DPI = dpi
		cfg.Export.SizePolicy = config.OutputSizePrintCM
	}
	if printsize != "" {
		if w, h, ok := parsePrintSize(printsize); ok {
			cfg.Export.PrintWidthCM = w
			cfg.Export.PrintHeightCM = h
			cfg.Export.SizePolicy = config.OutputSizePrintCM
		}
	}
	if origres {
		cfg.Export.OriginalResolution = true
		cfg.Export.SizePolicy = config.OutputSizeOriginal
	}
}

func parsePrintSize(s string) (w, h float64, ok bool) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, errW := strconv.ParseFloat(parts[0], 64)
	h, errH := strconv.ParseFloat(parts[1], 64)
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}

func parseColorspace(s string) (icc.Tag, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return "", nil
	case "srgb":
		return icc.TagSRGB, nil
	case "adobergb1998", "adobergb":
		return icc.TagAdobeRGB, nil
	case "displayp3":
		return icc.TagDisplayP3, nil
	case "prophotorgb", "prophoto":
		return icc.TagProPhotoRGB, nil
	default:
		return "", fmt.Errorf("unrecognized -colorspace %q", s)
	}
}

func renderTemplate(tmpl, sourcePath, mode string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	out := strings.ReplaceAll(tmpl, "{stem}", stem)
	out = strings.ReplaceAll(out, "{mode}", mode)
	return out
}

// expandInputs recursively expands any directory argument against
// rawExtensions (matching original_source/negpy/cli/batch.py's extension
// set), passing plain file arguments through unfiltered.
func expandInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, negpyerr.Wrap(negpyerr.PathNotFound, "stat "+arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.Walk(arg, func(p string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if fi.IsDir() {
				return nil
			}
			if rawExtensions[strings.ToLower(filepath.Ext(p))] {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, negpyerr.Wrap(negpyerr.PathNotFound, "walking "+arg, err)
		}
	}
	return files, nil
}

// writePNG encodes buf ([0,1] RGB that already carries Toning's final
// display gamma) as an 8-bit PNG by clamping and quantizing each channel,
// with no further transfer curve applied; PNG is the one output codec stdlib provides without pulling in a
// dedicated image-format library the retrieval pack never exercises for
// writing (gogpu-gg's own gg.Context.SavePNG wraps the same image/png
// encoder internally).
func writePNG(path string, buf *imgbuf.Buffer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return negpyerr.Wrap(negpyerr.PersistenceFailed, "creating output dir", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			r, g, b := buf.At(x, y)
			img.Set(x, y, color.RGBA{
				R: to8(r), G: to8(g), B: to8(b), A: 0xff,
			})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return negpyerr.Wrap(negpyerr.PersistenceFailed, "creating "+path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return negpyerr.Wrap(negpyerr.PersistenceFailed, "encoding "+path, err)
	}
	return nil
}

func to8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}
