package render

import (
	"testing"

	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/icc"
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/session"
)

// fakeICC is a deterministic stand-in for icc.Provider: Transform is
// identity, InGamut flags any pixel whose channel exceeds 0.9.
type fakeICC struct{}

func (fakeICC) Transform(tag icc.Tag, buf, dst *imgbuf.Buffer) error {
	copy(dst.Data, buf.Data)
	return nil
}

func (fakeICC) InGamut(tag icc.Tag, buf *imgbuf.Buffer) ([]bool, error) {
	mask := make([]bool, buf.Width*buf.Height)
	for i := 0; i < buf.Width*buf.Height; i++ {
		r, g, b := buf.At(i%buf.Width, i/buf.Width)
		mask[i] = r > 0.9 || g > 0.9 || b > 0.9
	}
	return mask, nil
}

func testSrc(w, h int) *imgbuf.Buffer {
	b := imgbuf.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.Set(x, y, 0.3, 0.3, 0.3)
		}
	}
	return b
}

func TestRenderPreviewScalesToMaxEdge(t *testing.T) {
	sess := session.New()
	f := New(sess, fakeICC{})
	defer f.Close()

	out, hist, err := f.RenderPreview("test.tif", config.Default(), testSrc(64, 32), 16)
	if err != nil {
		t.Fatalf("RenderPreview: %v", err)
	}
	if hist == nil {
		t.Fatal("expected non-nil histogram")
	}
	if out.Width != 16 || out.Height != 8 {
		t.Fatalf("expected 16x8 scaled preview, got %dx%d", out.Width, out.Height)
	}
}

// TestRenderPreviewReturnsPlaceholderAndEventOnFailure pins spec section
// 4.12/9's distinction: render_preview returns a placeholder plus a
// render_failed event, while render_export (tested below) returns a plain
// typed error with no placeholder output.
func TestRenderPreviewReturnsPlaceholderAndEventOnFailure(t *testing.T) {
	sess := session.New()
	f := New(sess, nil)
	defer f.Close()

	var event *RenderFailedEvent
	f.OnRenderFailed = func(e RenderFailedEvent) { event = &e }

	cfg := config.Default()
	cfg.Exposure.Grade = 0 // rejected by config.Validate

	out, hist, err := f.RenderPreview("bad.tif", cfg, testSrc(32, 16), 16)
	if err == nil {
		t.Fatal("expected an error for an invalid config")
	}
	if out == nil {
		t.Fatal("expected a non-nil placeholder buffer even on failure")
	}
	if hist != nil {
		t.Fatal("expected a nil histogram on failure")
	}
	if event == nil {
		t.Fatal("expected OnRenderFailed to have been invoked")
	}
	if event.Kind == "" || event.Message == "" {
		t.Fatalf("expected a populated RenderFailedEvent, got %+v", event)
	}
}

func TestRenderExportReturnsPlainErrorOnFailureNoPlaceholder(t *testing.T) {
	sess := session.New()
	f := New(sess, nil)
	defer f.Close()

	cfg := config.Default()
	cfg.Exposure.Grade = 0 // rejected by config.Validate

	out, hist, err := f.RenderExport("bad.tif", cfg, testSrc(32, 16), "")
	if err == nil {
		t.Fatal("expected an error for an invalid config")
	}
	if out != nil || hist != nil {
		t.Fatal("expected a nil output/histogram, not a placeholder, on RenderExport failure")
	}
}

func TestRenderExportUntagged(t *testing.T) {
	sess := session.New()
	f := New(sess, nil)
	defer f.Close()

	out, hist, err := f.RenderExport("test.tif", config.Default(), testSrc(24, 24), "")
	if err != nil {
		t.Fatalf("RenderExport: %v", err)
	}
	if out == nil || hist == nil {
		t.Fatal("expected non-nil output and histogram")
	}
}

func TestRenderExportTaggingRequiresProvider(t *testing.T) {
	sess := session.New()
	f := New(sess, nil)
	defer f.Close()

	if _, _, err := f.RenderExport("test.tif", config.Default(), testSrc(8, 8), icc.TagSRGB); err == nil {
		t.Fatal("expected error tagging output with no icc.Provider configured")
	}
}

func TestGamutWarningFlagsOutOfRangePixels(t *testing.T) {
	sess := session.New()
	f := New(sess, fakeICC{})
	defer f.Close()

	buf := imgbuf.New(2, 1)
	buf.Set(0, 0, 0.5, 0.5, 0.5)
	buf.Set(1, 0, 0.95, 0.1, 0.1)

	mask, err := f.GamutWarning(buf, icc.TagSRGB)
	if err != nil {
		t.Fatalf("GamutWarning: %v", err)
	}
	if mask[0] || !mask[1] {
		t.Fatalf("expected mask [false, true], got %v", mask)
	}
}

func TestRenderThumbnailSkipsAutoDustAndCLAHE(t *testing.T) {
	sess := session.New()
	f := New(sess, nil)
	defer f.Close()

	cfg := config.Default()
	cfg.Retouch.AutoDustEnabled = true
	cfg.Lab.CLAHEStrength = 0.8

	out, err := f.RenderThumbnail("test.tif", cfg, testSrc(48, 24), 12)
	if err != nil {
		t.Fatalf("RenderThumbnail: %v", err)
	}
	if out.Width != 12 || out.Height != 6 {
		t.Fatalf("expected 12x6 thumbnail, got %dx%d", out.Width, out.Height)
	}
	// cfg itself (the caller's copy) must be untouched by the thumbnail
	// pass's AutoDust/CLAHE overrides.
	if !cfg.Retouch.AutoDustEnabled || cfg.Lab.CLAHEStrength != 0.8 {
		t.Fatal("RenderThumbnail must not mutate the caller's config")
	}
}
