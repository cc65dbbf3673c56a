package loader

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeHeaderlessFixture(t *testing.T, dir string, width, height, bitDepth int, pixel [3]uint16) string {
	t.Helper()
	path := filepath.Join(dir, "frame.praw")

	payload := make([]byte, width*height*3*2)
	for i := 0; i < width*height; i++ {
		off := i * 6
		binary.BigEndian.PutUint16(payload[off:], pixel[0])
		binary.BigEndian.PutUint16(payload[off+2:], pixel[1])
		binary.BigEndian.PutUint16(payload[off+4:], pixel[2])
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("writing fixture payload: %v", err)
	}

	sidecarJSON := []byte(fmt.Sprintf(`{"width": %d, "height": %d, "bit_depth": %d}`, width, height, bitDepth))
	if err := os.WriteFile(path+sidecarSuffix, sidecarJSON, 0o644); err != nil {
		t.Fatalf("writing sidecar: %v", err)
	}
	return path
}

func TestHeaderlessPlanarLoaderCanLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeHeaderlessFixture(t, dir, 2, 2, 14, [3]uint16{100, 200, 300})

	l := HeaderlessPlanarLoader{}
	if !l.CanLoad(path) {
		t.Fatal("expected CanLoad to recognize a .praw file with a sidecar")
	}
	if l.CanLoad(path + ".nonexistent") {
		t.Fatal("expected CanLoad to reject a path with no sidecar")
	}
}

func TestHeaderlessPlanarLoaderDecodesMaxValue(t *testing.T) {
	dir := t.TempDir()
	maxVal14 := uint16((1 << 14) - 1)
	path := writeHeaderlessFixture(t, dir, 2, 2, 14, [3]uint16{maxVal14, maxVal14, maxVal14})

	buf, meta, hint, err := HeaderlessPlanarLoader{}.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if hint != nil {
		t.Fatal("expected nil CalibrationHint for a file with no calibration info")
	}
	if meta.Width != 2 || meta.Height != 2 || meta.BitDepth != 14 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	r, g, b := buf.At(0, 0)
	if r < 0.999 || g < 0.999 || b < 0.999 {
		t.Fatalf("expected full-scale 14-bit value to normalize to ~1.0, got (%v,%v,%v)", r, g, b)
	}
}

func TestHeaderlessPlanarLoaderRejectsTruncatedPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.praw")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := os.WriteFile(path+sidecarSuffix, []byte(`{"width": 4, "height": 4, "bit_depth": 10}`), 0o644); err != nil {
		t.Fatalf("writing sidecar: %v", err)
	}

	if _, _, _, err := (HeaderlessPlanarLoader{}).Load(path); err == nil {
		t.Fatal("expected an error decoding a truncated payload")
	}
}
