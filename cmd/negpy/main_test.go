package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/marcinz606/NegPy/loader"
)

func writeFixture(t *testing.T, dir string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, "frame.praw")
	payload := make([]byte, w*h*3*2)
	for i := 0; i < w*h; i++ {
		off := i * 6
		binary.BigEndian.PutUint16(payload[off:], 5000)
		binary.BigEndian.PutUint16(payload[off+2:], 6000)
		binary.BigEndian.PutUint16(payload[off+4:], 4000)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	sidecar := fmt.Sprintf(`{"width": %d, "height": %d, "bit_depth": 14}`, w, h)
	if err := os.WriteFile(path+".json", []byte(sidecar), 0o644); err != nil {
		t.Fatalf("writing sidecar: %v", err)
	}
	return path
}

func TestRunSucceedsOnRecognizedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, 8, 8)
	outdir := filepath.Join(dir, "out")

	code := run([]string{"-outdir", outdir, "-mode", "c41", path})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}

	entries, err := os.ReadDir(outdir)
	if err != nil {
		t.Fatalf("reading outdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one output file, got %d", len(entries))
	}
}

func TestRunReportsFailureForUnrecognizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.cr2")
	if err := os.WriteFile(path, []byte("not a real raw file"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	code := run([]string{"-outdir", filepath.Join(dir, "out"), path})
	if code != 1 {
		t.Fatalf("expected exit 1 for an unsupported RAW container, got %d", code)
	}
}

func TestRunExpandsDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, 4, 4)
	outdir := filepath.Join(dir, "out")

	code := run([]string{"-outdir", outdir, dir})
	if code != 0 {
		t.Fatalf("expected exit 0 expanding a directory of recognized files, got %d", code)
	}
}

func TestParsePrintSize(t *testing.T) {
	w, h, ok := parsePrintSize("20x30")
	if !ok || w != 20 || h != 30 {
		t.Fatalf("expected 20x30, got %v %v %v", w, h, ok)
	}
	if _, _, ok := parsePrintSize("garbage"); ok {
		t.Fatal("expected parsePrintSize to reject a malformed value")
	}
}

func TestRenderTemplateSubstitution(t *testing.T) {
	got := renderTemplate("{stem}_{mode}.png", "/a/b/roll12_frame04.praw", "bw")
	want := "roll12_frame04_bw.png"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

var _ loader.Loader = loader.HeaderlessPlanarLoader{}
