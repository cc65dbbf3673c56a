package metrics

import (
	"testing"

	"github.com/marcinz606/NegPy/imgbuf"
)

func TestHistogramSingleSpike(t *testing.T) {
	buf := imgbuf.New(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			buf.Set(x, y, 0.5, 0.5, 0.5)
		}
	}
	res, err := Histogram(buf)
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	for i, count := range res.Luma {
		if i == 128 {
			if count != 16 {
				t.Errorf("bin 128 = %d, want 16", count)
			}
			continue
		}
		if count != 0 {
			t.Errorf("bin %d = %d, want 0", i, count)
		}
	}
}

func TestHistogramTotalsMatchPixelCount(t *testing.T) {
	buf := imgbuf.New(10, 7)
	for y := 0; y < 7; y++ {
		for x := 0; x < 10; x++ {
			buf.Set(x, y, float32(x)/10, float32(y)/7, 0.3)
		}
	}
	res, err := Histogram(buf)
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	var total uint64
	for _, c := range res.R {
		total += c
	}
	if total != 70 {
		t.Fatalf("R total = %d, want 70", total)
	}
}
