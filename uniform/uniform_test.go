package uniform

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestReserveAlignsTo256(t *testing.T) {
	b := NewBlock()
	s1 := b.Reserve("normalization", 48)
	s2 := b.Reserve("exposure", 64)

	if s1.Offset != 0 {
		t.Fatalf("expected first slot at offset 0, got %d", s1.Offset)
	}
	if s2.Offset != Alignment {
		t.Fatalf("expected second slot at offset %d, got %d", Alignment, s2.Offset)
	}
	if b.Len() != 2*Alignment {
		t.Fatalf("expected backing buffer of %d bytes, got %d", 2*Alignment, b.Len())
	}
}

func TestSlotsDoNotOverlap(t *testing.T) {
	b := NewBlock()
	ids := []string{"normalization", "transform", "exposure", "lab", "clahe", "toning"}
	for _, id := range ids {
		b.Reserve(id, 37) // deliberately unaligned size
	}
	slots := b.Slots()
	for a := range slots {
		for c := range slots {
			if a == c {
				continue
			}
			sa, sc := slots[a], slots[c]
			if sa.Offset < sc.Offset+Alignment && sc.Offset < sa.Offset+Alignment {
				// adjacent slots are fine as long as ranges truly don't overlap
				if sa.Offset == sc.Offset {
					t.Fatalf("slots %q and %q overlap at offset %d", a, c, sa.Offset)
				}
			}
		}
	}
}

func TestWriteFloat32sRoundTrip(t *testing.T) {
	b := NewBlock()
	b.Reserve("exposure", 16)

	vals := []float32{0.5, 3.0, 0.3, 0.3}
	if err := b.WriteFloat32s("exposure", 0, vals); err != nil {
		t.Fatalf("WriteFloat32s: %v", err)
	}

	slice := b.Slice("exposure")
	if len(slice) != 16 {
		t.Fatalf("expected slot size 16, got %d", len(slice))
	}
	for i, want := range vals {
		got := math.Float32frombits(binary.LittleEndian.Uint32(slice[i*4:]))
		if got != want {
			t.Fatalf("value %d read back as %v, want %v", i, got, want)
		}
	}
}

func TestWriteFloat32sOverflowRejected(t *testing.T) {
	b := NewBlock()
	b.Reserve("exposure", 8)
	if err := b.WriteFloat32s("exposure", 0, []float32{1, 2, 3}); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestReserveDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate reservation")
		}
	}()
	b := NewBlock()
	b.Reserve("exposure", 16)
	b.Reserve("exposure", 16)
}
