package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/marcinz606/NegPy/calib"
	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/negpyerr"
)

func testBounds() calib.Bounds {
	return calib.Bounds{FloorR: -3, FloorG: -3, FloorB: -3, CeilingR: 0, CeilingG: 0, CeilingB: 0}
}

func testBuffer(w, h int) *imgbuf.Buffer {
	buf := imgbuf.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Set(x, y, 0.3, 0.3, 0.3)
		}
	}
	return buf
}

func TestEngineRunProducesOutputAndHistogram(t *testing.T) {
	e := New()
	defer e.Close()

	cfg := config.Default()
	src := testBuffer(16, 12)

	var wg sync.WaitGroup
	wg.Add(1)
	var result Result
	e.Submit(cfg, testBounds(), src, func(r Result) {
		result = r
		wg.Done()
	})

	waitOrTimeout(t, &wg, 2*time.Second)

	if result.Err != nil {
		t.Fatalf("render failed: %v", result.Err)
	}
	if result.Output == nil {
		t.Fatal("expected non-nil output")
	}
	if result.Histogram == nil {
		t.Fatal("expected non-nil histogram")
	}
}

func TestEngineSubmitRejectsInvalidConfig(t *testing.T) {
	e := New()
	defer e.Close()

	cfg := config.Default()
	cfg.Exposure.Grade = 0 // degenerate sigmoid slope, config.Validate must reject this

	var wg sync.WaitGroup
	wg.Add(1)
	var result Result
	e.Submit(cfg, testBounds(), testBuffer(8, 8), func(r Result) {
		result = r
		wg.Done()
	})
	waitOrTimeout(t, &wg, 2*time.Second)

	if result.Output != nil {
		t.Fatal("expected no output for a rejected config")
	}
	if !negpyerr.AsKind(result.Err, negpyerr.ConfigInvalid) {
		t.Fatalf("expected a ConfigInvalid error, got %v", result.Err)
	}
}

func TestEngineComputeMetricsStandalone(t *testing.T) {
	e := New()
	defer e.Close()

	buf := testBuffer(20, 20)
	hist, rect, err := e.ComputeMetrics(buf)
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	if hist == nil {
		t.Fatal("expected non-nil histogram")
	}
	if rect.X1 != 20 || rect.Y1 != 20 {
		t.Fatalf("rect = %+v, want full-image bounds", rect)
	}
}

func TestEngineSubmitCoalescesSupersededRequests(t *testing.T) {
	e := New()
	defer e.Close()

	cfg := config.Default()
	src := testBuffer(8, 8)

	results := make(chan Result, 2)
	onDone := func(r Result) { results <- r }

	firstID := e.Submit(cfg, testBounds(), src, onDone)
	secondID := e.Submit(cfg, testBounds(), src, onDone)

	if secondID <= firstID {
		t.Fatalf("expected monotonically increasing renderID, got %d then %d", firstID, secondID)
	}

	var got []Result
	deadline := time.After(2 * time.Second)
collect:
	for {
		select {
		case r := <-results:
			got = append(got, r)
		case <-deadline:
			break collect
		case <-time.After(200 * time.Millisecond):
			break collect
		}
	}

	if len(got) == 0 {
		t.Fatal("expected at least one callback to fire")
	}
	last := got[len(got)-1]
	if last.RenderID != secondID {
		t.Fatalf("expected the surviving render to be the most recent (id %d), got id %d", secondID, last.RenderID)
	}
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for engine callback")
	}
}
