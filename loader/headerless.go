package loader

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/negpyerr"
)

// HeaderlessExtension is the file extension HeaderlessPlanarLoader
// recognizes, matching batch.py's extension set (spec section 6).
const HeaderlessExtension = ".praw"

// sidecarSuffix is appended to the source path to find its dimension/bit
// depth sidecar, e.g. "scan001.praw" -> "scan001.praw.json".
const sidecarSuffix = ".json"

// sidecar is the on-disk shape of a HeaderlessPlanarLoader sidecar file.
type sidecar struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	BitDepth int `json:"bit_depth"`
}

// HeaderlessPlanarLoader decodes the one framing the spec actually
// describes: 10- or 14-bit big-endian RGB triplets with no in-file header,
// sized by a JSON sidecar (spec section 6, grounded on the teacher pack's
// own Pakon planar format in original_source/src/backend/io.py, adapted to
// the distilled spec's explicit big-endian/sidecar framing rather than
// the original's little-endian/file-size-identification scheme).
type HeaderlessPlanarLoader struct{}

// CanLoad reports whether path has the recognized extension and a sidecar
// alongside it.
func (HeaderlessPlanarLoader) CanLoad(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), HeaderlessExtension) {
		return false
	}
	_, err := os.Stat(path + sidecarSuffix)
	return err == nil
}

// Load reads path's sidecar for width/height/bit depth, then decodes the
// big-endian planar triplet payload into a normalized [0,1] linear buffer.
func (HeaderlessPlanarLoader) Load(path string) (*imgbuf.Buffer, Metadata, *CalibrationHint, error) {
	sc, err := readSidecar(path + sidecarSuffix)
	if err != nil {
		return nil, Metadata{}, nil, err
	}
	if sc.Width <= 0 || sc.Height <= 0 {
		return nil, Metadata{}, nil, negpyerr.New(negpyerr.LoaderCorrupt, fmt.Sprintf("loader: sidecar for %s has non-positive dimensions %dx%d", path, sc.Width, sc.Height))
	}
	if sc.BitDepth != 10 && sc.BitDepth != 14 {
		return nil, Metadata{}, nil, negpyerr.New(negpyerr.LoaderUnsupported, fmt.Sprintf("loader: unsupported bit depth %d (want 10 or 14)", sc.BitDepth))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, Metadata{}, nil, negpyerr.Wrap(negpyerr.PathNotFound, "loader: reading "+path, err)
	}

	wantBytes := sc.Width * sc.Height * 3 * 2
	if len(raw) < wantBytes {
		return nil, Metadata{}, nil, negpyerr.New(negpyerr.LoaderCorrupt,
			fmt.Sprintf("loader: %s is %d bytes, want at least %d for %dx%d at %d-bit", path, len(raw), wantBytes, sc.Width, sc.Height, sc.BitDepth))
	}

	maxValue := float32((uint32(1) << uint(sc.BitDepth)) - 1)
	buf := imgbuf.New(sc.Width, sc.Height)
	for i := 0; i < sc.Width*sc.Height; i++ {
		off := i * 6
		r := binary.BigEndian.Uint16(raw[off : off+2])
		g := binary.BigEndian.Uint16(raw[off+2 : off+4])
		b := binary.BigEndian.Uint16(raw[off+4 : off+6])
		buf.Data[i*3] = float32(r) / maxValue
		buf.Data[i*3+1] = float32(g) / maxValue
		buf.Data[i*3+2] = float32(b) / maxValue
	}

	meta := Metadata{SourcePath: path, Width: sc.Width, Height: sc.Height, BitDepth: sc.BitDepth}
	return buf, meta, nil, nil
}

func readSidecar(path string) (sidecar, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sidecar{}, negpyerr.Wrap(negpyerr.PathNotFound, "loader: reading sidecar "+path, err)
	}
	var sc sidecar
	if err := json.Unmarshal(raw, &sc); err != nil {
		return sidecar{}, negpyerr.Wrap(negpyerr.LoaderCorrupt, "loader: parsing sidecar "+path, err)
	}
	return sc, nil
}
