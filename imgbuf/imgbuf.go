// Package imgbuf defines the linear float32 RGB image buffer that flows
// through every stage kernel, plus the coordinate bookkeeping (full image
// dimensions and tile offset) stage kernels need to stay tile-invariant.
package imgbuf

import "fmt"

// Buffer is an interleaved RGB float32 image. Values are linear
// scene-referred radiance, normalized to [0, 1] once past the Normalization
// stage. Stride is expressed in floats per row (== Width*3 for a tightly
// packed buffer, but kept explicit so a tile view can alias a larger
// backing array).
type Buffer struct {
	Width, Height int
	Stride        int // floats per row
	Data          []float32

	// FullWidth/FullHeight describe the full (untiled) image this buffer is
	// a region of. GlobalOffsetX/Y locate this buffer's (0,0) pixel within
	// that full image. For an untiled render FullWidth==Width,
	// FullHeight==Height, and the offset is (0,0). Coordinate-sensitive
	// stages (Retouch's dust hash, manual spot influence) must compute
	// full-image coordinates via these fields so tiled and untiled renders
	// agree bit-for-bit outside tile halos.
	FullWidth, FullHeight int
	GlobalOffsetX         int
	GlobalOffsetY         int
}

// New allocates a tightly packed buffer of the given dimensions, with the
// full-image geometry defaulting to the buffer's own size (i.e. untiled).
func New(width, height int) *Buffer {
	b := &Buffer{
		Width:  width,
		Height: height,
		Stride: width * 3,
		Data:   make([]float32, width*height*3),
	}
	b.FullWidth, b.FullHeight = width, height
	return b
}

// FromSlice wraps an existing tightly packed float32 RGB slice (such as a
// texpool.Texture's CPU backing) as a Buffer with no copy. The slice must
// have length width*height*3.
func FromSlice(data []float32, width, height int) *Buffer {
	b := &Buffer{Width: width, Height: height, Stride: width * 3, Data: data}
	b.FullWidth, b.FullHeight = width, height
	return b
}

// NewTile allocates a buffer representing a sub-region of a full image,
// carrying the full-image geometry needed to reconstruct global
// coordinates for every pixel it contains.
func NewTile(width, height, fullWidth, fullHeight, offsetX, offsetY int) *Buffer {
	b := New(width, height)
	b.FullWidth, b.FullHeight = fullWidth, fullHeight
	b.GlobalOffsetX, b.GlobalOffsetY = offsetX, offsetY
	return b
}

// FromSliceTile wraps an existing tightly packed float32 RGB slice as a
// Buffer representing a sub-region of a larger full image, for stage
// kernels that need a pooled texture's backing to carry tile geometry.
func FromSliceTile(data []float32, width, height, fullWidth, fullHeight, offsetX, offsetY int) *Buffer {
	b := FromSlice(data, width, height)
	b.FullWidth, b.FullHeight = fullWidth, fullHeight
	b.GlobalOffsetX, b.GlobalOffsetY = offsetX, offsetY
	return b
}

// At returns the RGB triple at local coordinate (x, y), in [R, G, B] order.
func (b *Buffer) At(x, y int) (r, g, b2 float32) {
	i := y*b.Stride + x*3
	return b.Data[i], b.Data[i+1], b.Data[i+2]
}

// Set writes the RGB triple at local coordinate (x, y).
func (b *Buffer) Set(x, y int, r, g, bl float32) {
	i := y*b.Stride + x*3
	b.Data[i] = r
	b.Data[i+1] = g
	b.Data[i+2] = bl
}

// GlobalXY converts a local pixel coordinate to its coordinate in the full
// (untiled) image space, the space manual-spot coordinates and the
// auto-dust grain hash are defined in.
func (b *Buffer) GlobalXY(x, y int) (gx, gy int) {
	return b.GlobalOffsetX + x, b.GlobalOffsetY + y
}

// Clone returns a deep copy sharing no backing storage with the original.
func (b *Buffer) Clone() *Buffer {
	out := *b
	out.Data = make([]float32, len(b.Data))
	copy(out.Data, b.Data)
	return &out
}

// AllFinite reports whether every element of the buffer is finite, the
// invariant every stage kernel must preserve.
func (b *Buffer) AllFinite() error {
	for i, v := range b.Data {
		if v != v || v > 3.4e38 || v < -3.4e38 { // NaN or overflow-class value
			return fmt.Errorf("imgbuf: non-finite value %v at element %d", v, i)
		}
	}
	return nil
}
