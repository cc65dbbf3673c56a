package texpool

import "fmt"

// Format names the pixel layout a PooledTexture's backing storage uses.
type Format int

const (
	// FormatRGBA32Float backs every stage's intermediate buffer: linear
	// float32, 3 channels tightly packed, matching imgbuf.Buffer's layout.
	FormatRGBA32Float Format = iota
	// FormatR8 backs 256-bin histograms staged for GPU atomic writes.
	FormatR8
)

// Key is the pool's lookup key: a stage output is uniquely identified by
// which stage produced it and the dimensions/format it was produced at.
type Key struct {
	StageID string
	Width   int
	Height  int
	Format  Format
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%dx%d:%d", k.StageID, k.Width, k.Height, k.Format)
}

// Backing is the opaque storage a PooledTexture wraps: a CPU []float32 in
// software mode, or a GPU handle when a hardware backend is registered.
type Backing any

// Texture is a pooled allocation plus the bookkeeping the pool needs to
// decide when it is safe to reclaim: a reference count (how many in-flight
// stage dispatches currently hold it) and a fence flag (whether the last
// command buffer that wrote it has been confirmed complete). A texture with
// zero references can be reused by a matching Acquire; its backing storage
// is destroyed only when, in addition, its fence is signaled, per the data
// model invariant that no PooledTexture is freed before its owning command
// buffer signals completion.
type Texture struct {
	Key     Key
	Backing Backing

	id            uint64
	refcount      int32
	fenceSignaled bool
	lastUsedRender uint64
}

// ID returns the pool-internal identity of this texture. Stable for the
// lifetime of the allocation; a texture reused by a later Acquire keeps its
// ID.
func (t *Texture) ID() uint64 { return t.id }

// RefCount returns the current reference count. Exported for tests and
// diagnostics; callers should use Pool.Acquire/Release rather than mutating
// this directly.
func (t *Texture) RefCount() int32 { return t.refcount }
